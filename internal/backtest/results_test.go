package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

func sellTrade(pnl float64) types.Trade {
	return types.Trade{Side: types.SideSell, RealizedPnL: pnl}
}

func TestCountOutcomes(t *testing.T) {
	trades := []types.Trade{
		{Side: types.SideBuy},
		sellTrade(100),
		sellTrade(-50),
		sellTrade(0),
	}
	wins, losses := countOutcomes(trades)
	assert.Equal(t, 2, wins)
	assert.Equal(t, 1, losses)
}

func TestProfitFactor(t *testing.T) {
	assert.Zero(t, profitFactor(nil))

	trades := []types.Trade{sellTrade(300), sellTrade(-100), sellTrade(-50)}
	assert.InDelta(t, 2, profitFactor(trades), 1e-9)

	// All winners: no losses to divide by.
	assert.True(t, math.IsInf(profitFactor([]types.Trade{sellTrade(10)}), 1))

	// Entries alone contribute nothing.
	assert.Zero(t, profitFactor([]types.Trade{{Side: types.SideBuy}}))
}

func TestSharpeRatio(t *testing.T) {
	assert.Zero(t, sharpeRatio(nil))

	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	curve := func(values ...float64) []types.EquityRecord {
		recs := make([]types.EquityRecord, len(values))
		for i, v := range values {
			recs[i] = types.EquityRecord{Timestamp: base.AddDate(0, 0, i), TotalValue: v}
		}
		return recs
	}

	// Constant equity has zero volatility, ratio defined as zero.
	assert.Zero(t, sharpeRatio(curve(100, 100, 100)))

	// Steadily rising equity with varying steps is positive.
	assert.Positive(t, sharpeRatio(curve(100, 102, 103, 106, 108)))

	// Steadily falling equity is negative.
	assert.Negative(t, sharpeRatio(curve(100, 98, 97, 94)))
}
