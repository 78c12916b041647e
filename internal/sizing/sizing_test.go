package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

func snapshot(cash float64, positions ...types.Position) types.Snapshot {
	snap := types.Snapshot{
		Cash:           cash,
		InitialCapital: 1_000_000,
		Positions:      make(map[string]types.Position),
	}
	for _, p := range positions {
		snap.Positions[p.Symbol] = p
	}
	return snap
}

func signal(symbol string, t types.SignalType) types.Signal {
	return types.Signal{Symbol: symbol, Type: t, Confidence: 1}
}

func TestFactory(t *testing.T) {
	s, err := New(config.SizingConfig{Type: config.SizingFixedPercent, Percent: 0.1}, 100)
	require.NoError(t, err)
	assert.Equal(t, "fixed_percent", s.Name())

	s, err = New(config.SizingConfig{Type: config.SizingKelly, WinRate: 0.6, WinLossRatio: 2, MaxPercent: 0.25}, 100)
	require.NoError(t, err)
	assert.Equal(t, "kelly", s.Name())

	s, err = New(config.SizingConfig{Type: config.SizingMartingale, BasePercent: 0.05, Multiplier: 2, MaxDoubles: 3}, 100)
	require.NoError(t, err)
	assert.Equal(t, "martingale", s.Name())

	_, err = New(config.SizingConfig{Type: "fibonacci"}, 100)
	assert.Error(t, err)

	_, err = New(config.SizingConfig{Type: config.SizingFixedPercent, Percent: 0.1}, 0)
	assert.Error(t, err)
}

// A 10% entry out of 1,000,000 at price 100 buys exactly 1,000 shares.
func TestFixedPercent_OpenScenario(t *testing.T) {
	s := NewFixedPercent(0.1, 100)
	qty := s.Size(signal("600000", types.SignalOpen), snapshot(1_000_000), 100)
	assert.Equal(t, int64(1000), qty)
}

func TestFixedPercent_OpenIsNoOpWhenHolding(t *testing.T) {
	s := NewFixedPercent(0.1, 100)
	snap := snapshot(900_000, types.Position{Symbol: "600000", Quantity: 1000, AvgCost: 100, LastPrice: 100})
	assert.Equal(t, int64(0), s.Size(signal("600000", types.SignalOpen), snap, 100))
	// BUY still adds.
	assert.Equal(t, int64(900), s.Size(signal("600000", types.SignalBuy), snap, 100))
}

func TestFixedPercent_LotRounding(t *testing.T) {
	s := NewFixedPercent(0.1, 100)
	// 10% of 123,456 at 7.89 = 1564.71 shares, floored to 15 lots.
	qty := s.Size(signal("600000", types.SignalOpen), snapshot(123_456), 7.89)
	assert.Equal(t, int64(1500), qty)
	assert.Zero(t, qty%100)
}

func TestFixedPercent_InsufficientCashShrinks(t *testing.T) {
	s := NewFixedPercent(1.0, 100)
	// 100% of 9,999 at price 100 affords 0 full lots.
	assert.Equal(t, int64(0), s.Size(signal("600000", types.SignalOpen), snapshot(9_999), 100))
	// 25,000 affords 2 lots.
	assert.Equal(t, int64(200), s.Size(signal("600000", types.SignalOpen), snapshot(25_000), 100))
}

func TestFixedPercent_PartialClose(t *testing.T) {
	s := NewFixedPercent(0.5, 100)
	snap := snapshot(0, types.Position{Symbol: "x", Quantity: 1000, AvgCost: 10, LastPrice: 10})
	assert.Equal(t, int64(-500), s.Size(signal("x", types.SignalClose), snap, 10))

	// Selling from a flat book is a no-op.
	assert.Equal(t, int64(0), s.Size(signal("x", types.SignalClose), snapshot(0), 10))
}

func TestFixedPercent_CloseSweepsSubLotRemainder(t *testing.T) {
	s := NewFixedPercent(0.9, 100)
	snap := snapshot(0, types.Position{Symbol: "x", Quantity: 300, LastPrice: 10})
	// 90% of 300 = 270, floored to 200, leaving 100 which is one whole
	// lot, so no sweep.
	assert.Equal(t, int64(-200), s.Size(signal("x", types.SignalClose), snap, 10))

	snap = snapshot(0, types.Position{Symbol: "x", Quantity: 250, LastPrice: 10})
	// 90% of 250 = 225, floored to 200, leaving a 50-share tail that
	// could never be sold on its own. The whole position goes.
	assert.Equal(t, int64(-250), s.Size(signal("x", types.SignalClose), snap, 10))
}

func TestFixedPercent_Liquidate(t *testing.T) {
	s := NewFixedPercent(0.1, 100)
	snap := snapshot(0, types.Position{Symbol: "x", Quantity: 1234, LastPrice: 10})
	assert.Equal(t, int64(-1234), s.Size(signal("x", types.SignalLiquidate), snap, 10))
	assert.Equal(t, int64(-1234), s.Size(signal("x", types.SignalHedge), snap, 10))
}

func TestFixedPercent_ExplicitQuantity(t *testing.T) {
	s := NewFixedPercent(0.1, 100)
	snap := snapshot(0, types.Position{Symbol: "x", Quantity: 1000, AvgCost: 10, LastPrice: 10})

	sell := signal("x", types.SignalClose)
	sell.Quantity = 500
	assert.Equal(t, int64(-500), s.Size(sell, snap, 10))

	// Requests beyond the holding clamp to the holding.
	sell.Quantity = 5000
	assert.Equal(t, int64(-1000), s.Size(sell, snap, 10))

	buy := signal("x", types.SignalBuy)
	buy.Quantity = 700
	assert.Equal(t, int64(700), s.Size(buy, snapshot(100_000), 10))
}

func TestFixedPercent_Rebalance(t *testing.T) {
	s := NewFixedPercent(0.1, 100)

	// Flat book, 20% target of 1,000,000 equity at price 50 = 4000 shares.
	sig := signal("x", types.SignalRebalance)
	sig.TargetPct = 0.2
	assert.Equal(t, int64(4000), s.Size(sig, snapshot(1_000_000), 50))

	// Overweight position sells down to target.
	snap := snapshot(500_000, types.Position{Symbol: "x", Quantity: 10_000, AvgCost: 50, LastPrice: 50})
	assert.Equal(t, int64(-6000), s.Size(sig, snap, 50))
}

func TestKelly_Fraction(t *testing.T) {
	// 0.6 - 0.4/2 = 0.4, clamped to 0.25.
	k := NewKelly(0.6, 2, 0.25, 100)
	assert.InDelta(t, 0.25, k.Fraction(), 1e-12)

	// 0.5 - 0.5/2 = 0.25, below the clamp.
	k = NewKelly(0.5, 2, 0.5, 100)
	assert.InDelta(t, 0.25, k.Fraction(), 1e-12)

	// Negative edge sizes to zero.
	k = NewKelly(0.3, 1, 0.25, 100)
	assert.Zero(t, k.Fraction())
	assert.Equal(t, int64(0), k.Size(signal("x", types.SignalOpen), snapshot(1_000_000), 100))
}

func TestKelly_SizesLikeFixedPercent(t *testing.T) {
	k := NewKelly(0.5, 2, 0.5, 100) // fraction 0.25
	qty := k.Size(signal("x", types.SignalOpen), snapshot(1_000_000), 100)
	assert.Equal(t, int64(2500), qty)
}

func TestMartingale_EntryAndAdds(t *testing.T) {
	m := NewMartingale(0.05, 2, 5, 100)

	// Entry at the base fraction: 5% of 1,000,000 at 10 = 5000 shares.
	qty := m.Size(signal("x", types.SignalBuy), snapshot(1_000_000), 10)
	assert.Equal(t, int64(5000), qty)
	assert.Equal(t, 0, m.Level("x"))

	// First add, still x1: 5% of 950,000 at 10 = 4700 floored.
	held := snapshot(950_000, types.Position{Symbol: "x", Quantity: 5000, LastPrice: 10})
	qty = m.Size(signal("x", types.SignalBuy), held, 10)
	assert.Equal(t, int64(4700), qty)
	assert.Equal(t, 1, m.Level("x"))

	// Second add doubles: 5% of 900,000 x2 at 10 = 9000.
	held = snapshot(900_000, types.Position{Symbol: "x", Quantity: 9700, LastPrice: 10})
	qty = m.Size(signal("x", types.SignalBuy), held, 10)
	assert.Equal(t, int64(9000), qty)
	assert.Equal(t, 2, m.Level("x"))
}

func TestMartingale_MaxDoubles(t *testing.T) {
	m := NewMartingale(0.05, 2, 2, 100)
	held := snapshot(1_000_000, types.Position{Symbol: "x", Quantity: 10_000, LastPrice: 10})

	require.NotZero(t, m.Size(signal("x", types.SignalBuy), held, 10))
	require.NotZero(t, m.Size(signal("x", types.SignalBuy), held, 10))
	assert.Equal(t, 2, m.Level("x"))

	// Level cap reached, further adds refuse.
	assert.Equal(t, int64(0), m.Size(signal("x", types.SignalBuy), held, 10))
}

func TestMartingale_ExitResetsLevel(t *testing.T) {
	m := NewMartingale(0.05, 2, 5, 100)
	held := snapshot(900_000, types.Position{Symbol: "x", Quantity: 5000, LastPrice: 10})
	m.Size(signal("x", types.SignalBuy), held, 10)
	require.Equal(t, 1, m.Level("x"))

	// Any exit liquidates in full and resets.
	assert.Equal(t, int64(-5000), m.Size(signal("x", types.SignalSell), held, 10))
	assert.Equal(t, 0, m.Level("x"))

	// Next fresh entry is back at the base fraction.
	qty := m.Size(signal("x", types.SignalBuy), snapshot(1_000_000), 10)
	assert.Equal(t, int64(5000), qty)
}

func TestMartingale_OpenDoesNotAdd(t *testing.T) {
	m := NewMartingale(0.05, 2, 5, 100)
	held := snapshot(900_000, types.Position{Symbol: "x", Quantity: 5000, LastPrice: 10})
	assert.Equal(t, int64(0), m.Size(signal("x", types.SignalOpen), held, 10))
	assert.Equal(t, 0, m.Level("x"))
}
