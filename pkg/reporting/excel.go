package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leminhbao/stock-rule-bot/internal/backtest"
)

// WriteResultsXLSX writes the full run to one workbook: a summary
// sheet, the trade log and the equity curve.
func WriteResultsXLSX(results *backtest.Results, path string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(equitySheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(fx, summarySheet, results, headerStyle); err != nil {
		return err
	}
	if err := writeTradesSheet(fx, tradesSheet, results, headerStyle); err != nil {
		return err
	}
	if err := writeEquitySheet(fx, equitySheet, results, headerStyle); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, headerStyle int) error {
	rows := [][]interface{}{
		{"Run ID", results.RunID},
		{"State", results.State},
		{"Bars", results.Bars},
		{"Initial Capital", results.InitialCapital},
		{"Final Equity", results.FinalEquity},
		{"Total Return", results.TotalReturn},
		{"Max Drawdown", results.MaxDrawdown},
		{"Sharpe Ratio", results.SharpeRatio},
		{"Win Rate", results.WinRate},
		{"Total Trades", results.TotalTrades},
		{"Winning Trades", results.WinningTrades},
		{"Losing Trades", results.LosingTrades},
		{"Errors", len(results.Errors)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := fx.SetCellStyle(sheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", "B", 22)
}

func writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, headerStyle int) error {
	header := []interface{}{"Timestamp", "Symbol", "Side", "Quantity", "Price", "Commission", "Realized PnL", "Strategy"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return err
	}

	for i, t := range results.Trades {
		row := []interface{}{
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.Symbol,
			t.Side.String(),
			t.Quantity,
			t.Price,
			t.Commission,
			t.RealizedPnL,
			t.StrategyID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "H", 16)
}

func writeEquitySheet(fx *excelize.File, sheet string, results *backtest.Results, headerStyle int) error {
	header := []interface{}{"Timestamp", "Total Value", "Cash", "Positions Value", "Return %", "Drawdown %", "Peak"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	for i, rec := range results.EquityCurve {
		row := []interface{}{
			rec.Timestamp.Format("2006-01-02"),
			rec.TotalValue,
			rec.Cash,
			rec.PositionsValue,
			rec.ReturnPct * 100,
			rec.DrawdownPct * 100,
			rec.PeakValue,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "G", 16)
}
