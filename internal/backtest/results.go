package backtest

import (
	"math"
	"time"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Results is the snapshot a finished (or aborted) run hands to the
// reporting layer. Errors is always present, empty on a clean run, so
// callers can tell "ran clean" from "ran with recoverable errors".
type Results struct {
	RunID   string   `json:"run_id"`
	State   string   `json:"state"`
	Symbols []string `json:"symbols"`

	Bars     int           `json:"bars"`
	Duration time.Duration `json:"duration"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturn    float64 `json:"total_return"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`

	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	Trades      []types.Trade        `json:"trades"`
	EquityCurve []types.EquityRecord `json:"equity_curve"`
	Errors      []string             `json:"errors"`
}

// results assembles the snapshot from the engine's current state.
func (e *Engine) results(started time.Time, bars int) *Results {
	res := &Results{
		RunID:          e.runID,
		State:          e.state.String(),
		Bars:           bars,
		Duration:       time.Since(started),
		InitialCapital: e.book.InitialCapital(),
		FinalEquity:    e.book.Equity(),
		MaxDrawdown:    e.book.MaxDrawdown(),
		WinRate:        e.book.WinRate(),
		Trades:         e.book.Trades(),
		EquityCurve:    e.book.EquityCurve(),
		Errors:         append([]string{}, e.errors...),
	}
	for _, sc := range e.cfg.Symbols {
		res.Symbols = append(res.Symbols, sc.Symbol)
	}

	res.TotalReturn = (res.FinalEquity - res.InitialCapital) / res.InitialCapital
	res.TotalTrades = len(res.Trades)
	res.WinningTrades, res.LosingTrades = countOutcomes(res.Trades)
	res.ProfitFactor = profitFactor(res.Trades)
	res.SharpeRatio = sharpeRatio(res.EquityCurve)
	return res
}

// countOutcomes tallies closed trades by the sign of realized P&L.
// Entries (buys) carry no realized P&L and are not counted.
func countOutcomes(trades []types.Trade) (wins, losses int) {
	for _, t := range trades {
		if t.Side != types.SideSell {
			continue
		}
		if t.RealizedPnL >= 0 {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}

// profitFactor is gross realized profit over gross realized loss.
func profitFactor(trades []types.Trade) float64 {
	profit, loss := 0.0, 0.0
	for _, t := range trades {
		if t.Side != types.SideSell {
			continue
		}
		if t.RealizedPnL > 0 {
			profit += t.RealizedPnL
		} else {
			loss += -t.RealizedPnL
		}
	}
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// sharpeRatio is the mean over standard deviation of bar-to-bar equity
// returns, risk-free rate taken as zero.
func sharpeRatio(curve []types.EquityRecord) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if prev <= 0 {
			continue
		}
		returns = append(returns, (curve[i].TotalValue-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std < 1e-12 {
		return 0
	}
	return mean / std
}
