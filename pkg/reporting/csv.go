package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/leminhbao/stock-rule-bot/internal/backtest"
)

// WriteTradesCSV writes the run's trade log to path.
func WriteTradesCSV(results *backtest.Results, path string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"timestamp", "symbol", "side", "quantity", "price", "commission", "realized_pnl", "strategy_id",
	}); err != nil {
		return err
	}

	for _, t := range results.Trades {
		record := []string{
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.Symbol,
			t.Side.String(),
			strconv.FormatInt(t.Quantity, 10),
			strconv.FormatFloat(t.Price, 'f', 4, 64),
			strconv.FormatFloat(t.Commission, 'f', 4, 64),
			strconv.FormatFloat(t.RealizedPnL, 'f', 4, 64),
			t.StrategyID,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteEquityCSV writes the equity curve to path, one row per bar.
func WriteEquityCSV(results *backtest.Results, path string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create equity file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"timestamp", "total_value", "cash", "positions_value", "return_pct", "drawdown_pct", "peak_value",
	}); err != nil {
		return err
	}

	for _, rec := range results.EquityCurve {
		row := []string{
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(rec.TotalValue, 'f', 2, 64),
			strconv.FormatFloat(rec.Cash, 'f', 2, 64),
			strconv.FormatFloat(rec.PositionsValue, 'f', 2, 64),
			strconv.FormatFloat(rec.ReturnPct, 'f', 6, 64),
			strconv.FormatFloat(rec.DrawdownPct, 'f', 6, 64),
			strconv.FormatFloat(rec.PeakValue, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
