package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leminhbao/stock-rule-bot/internal/event"
	"github.com/leminhbao/stock-rule-bot/internal/indicators"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

func makePanel(symbol string, closes ...float64) *types.Panel {
	bars := make([]types.OHLCV, len(closes))
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.OHLCV{
			Open: c, High: c, Low: c, Close: c, Volume: 1000,
			Timestamp: base.AddDate(0, 0, i),
		}
	}
	return types.NewPanel(symbol, bars)
}

func advanceTo(t *testing.T, panel *types.Panel, index int) event.MarketData {
	t.Helper()
	var bar types.OHLCV
	var err error
	for panel.Cursor() < index {
		bar, err = panel.Advance()
		require.NoError(t, err)
	}
	return event.MarketData{Symbol: panel.Symbol(), Bar: bar, Index: index}
}

type staticDynamics map[string]float64

func (d staticDynamics) DynamicValue(name string) (float64, error) {
	return d[name], nil
}

func TestRuleStrategy_BuyFires(t *testing.T) {
	panel := makePanel("600000", 10, 11, 12, 13, 14, 15)
	s, err := NewRuleStrategy("golden", "600000", panel, indicators.NewService(), nil,
		"SMA(close,2) > SMA(close,4)", "")
	require.NoError(t, err)

	signals, err := s.OnMarketData(advanceTo(t, panel, 5))
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalBuy, signals[0].Type)
	assert.Equal(t, "600000", signals[0].Symbol)
	assert.Equal(t, "golden", signals[0].StrategyID)
	assert.Equal(t, int64(0), signals[0].Quantity)
}

func TestRuleStrategy_BuyWinsOverSell(t *testing.T) {
	panel := makePanel("600000", 10, 11, 12, 13, 14, 15)
	// Both rules true on a rising series; only the buy signal comes out.
	s, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil,
		"close > 0", "close > 1")
	require.NoError(t, err)

	signals, err := s.OnMarketData(advanceTo(t, panel, 3))
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalBuy, signals[0].Type)
}

func TestRuleStrategy_SellFires(t *testing.T) {
	panel := makePanel("600000", 15, 14, 13, 12, 11, 10)
	s, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil,
		"", "SMA(close,2) < SMA(close,4)")
	require.NoError(t, err)

	signals, err := s.OnMarketData(advanceTo(t, panel, 5))
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalSell, signals[0].Type)
}

func TestRuleStrategy_NoFireNoSignal(t *testing.T) {
	panel := makePanel("600000", 10, 10, 10, 10)
	s, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil,
		"close > 100", "close < 1")
	require.NoError(t, err)

	signals, err := s.OnMarketData(advanceTo(t, panel, 3))
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestRuleStrategy_IgnoresOtherSymbols(t *testing.T) {
	panel := makePanel("600000", 10, 11, 12)
	s, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil, "close > 0", "")
	require.NoError(t, err)

	signals, err := s.OnMarketData(event.MarketData{Symbol: "000001", Index: 0})
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestRuleStrategy_CompileErrorFailsConstruction(t *testing.T) {
	panel := makePanel("600000", 10, 11)
	_, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil, "UNKNOWN(close,3) > 1", "")
	assert.Error(t, err)

	_, err = NewRuleStrategy("s", "600000", panel, indicators.NewService(), nil, "", "close >")
	assert.Error(t, err)
}

func TestRuleStrategy_DynamicRule(t *testing.T) {
	panel := makePanel("600000", 10, 11, 12)
	dyn := staticDynamics{"position_size": 0}
	s, err := NewRuleStrategy("s", "600000", panel, indicators.NewService(), dyn,
		"position_size == 0 & close > 0", "")
	require.NoError(t, err)

	signals, err := s.OnMarketData(advanceTo(t, panel, 1))
	require.NoError(t, err)
	require.Len(t, signals, 1)

	// With a live position the entry rule goes quiet.
	dyn["position_size"] = 1000
	signals, err = s.OnMarketData(advanceTo(t, panel, 2))
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestScheduleStrategy_InvestsFixedAmount(t *testing.T) {
	panel := makePanel("600000", 25, 25, 25)
	advanceTo(t, panel, 1)

	s := NewScheduleStrategy("monthly", "600000", 10_000, 100, panel)
	signals, err := s.OnSchedule(event.Schedule{Name: "monthly", Time: time.Now()})
	require.NoError(t, err)
	require.Len(t, signals, 1)

	// 10,000 / 25 = 400 shares, already lot-aligned.
	assert.Equal(t, types.SignalBuy, signals[0].Type)
	assert.Equal(t, int64(400), signals[0].Quantity)
}

func TestScheduleStrategy_TooSmallAmountIsSilent(t *testing.T) {
	panel := makePanel("600000", 500)
	advanceTo(t, panel, 0)

	s := NewScheduleStrategy("monthly", "600000", 10_000, 100, panel)
	// One lot costs 50,000, the contribution is 10,000.
	signals, err := s.OnSchedule(event.Schedule{Name: "monthly", Time: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestScheduleStrategy_IgnoresBars(t *testing.T) {
	panel := makePanel("600000", 10)
	s := NewScheduleStrategy("monthly", "600000", 10_000, 100, panel)
	signals, err := s.OnMarketData(event.MarketData{Symbol: "600000"})
	require.NoError(t, err)
	assert.Empty(t, signals)
}
