package reporting

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leminhbao/stock-rule-bot/internal/backtest"
)

// ConsoleReporter renders a run summary and recent trades to a writer,
// stdout by default.
type ConsoleReporter struct {
	out       io.Writer
	maxTrades int
}

// NewConsoleReporter writes to stdout and shows the last 20 trades.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, maxTrades: 20}
}

// WithWriter redirects output, mainly for tests.
func (r *ConsoleReporter) WithWriter(w io.Writer) *ConsoleReporter {
	r.out = w
	return r
}

// Print renders the summary table followed by the trade tail.
func (r *ConsoleReporter) Print(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("📊 BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"🆔 Run", results.RunID},
		{"📅 Bars", results.Bars},
		{"💰 Initial Capital", fmt.Sprintf("%.2f", results.InitialCapital)},
		{"💰 Final Equity", fmt.Sprintf("%.2f", results.FinalEquity)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", results.TotalReturn*100)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)},
		{"💹 Profit Factor", formatProfitFactor(results.ProfitFactor)},
		{"🔄 Total Trades", results.TotalTrades},
		{"✅ Winning Trades", results.WinningTrades},
		{"❌ Losing Trades", results.LosingTrades},
		{"🎯 Win Rate", fmt.Sprintf("%.1f%%", results.WinRate*100)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignLeft},
	})
	t.Render()

	if len(results.Errors) > 0 {
		fmt.Fprintf(r.out, "\n⚠️ %d recoverable error(s) during the run:\n", len(results.Errors))
		for _, msg := range results.Errors {
			fmt.Fprintf(r.out, "   - %s\n", msg)
		}
	}

	r.printTrades(results)
}

func (r *ConsoleReporter) printTrades(results *backtest.Results) {
	if len(results.Trades) == 0 {
		fmt.Fprintln(r.out, "\nNo trades executed.")
		return
	}

	trades := results.Trades
	if len(trades) > r.maxTrades {
		fmt.Fprintf(r.out, "\nShowing last %d of %d trades:\n", r.maxTrades, len(trades))
		trades = trades[len(trades)-r.maxTrades:]
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("🔄 TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Symbol", "Side", "Quantity", "Price", "Commission", "Realized PnL"})

	for _, tr := range trades {
		pnl := ""
		if tr.Side.String() == "SELL" {
			pnl = fmt.Sprintf("%.2f", tr.RealizedPnL)
		}
		t.AppendRow(table.Row{
			tr.Timestamp.Format("2006-01-02"),
			tr.Symbol,
			tr.Side.String(),
			tr.Quantity,
			fmt.Sprintf("%.3f", tr.Price),
			fmt.Sprintf("%.2f", tr.Commission),
			pnl,
		})
	}
	t.Render()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}
