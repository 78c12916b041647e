package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leminhbao/stock-rule-bot/internal/backtest"
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

func sampleResults() *backtest.Results {
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Results{
		RunID:          "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		State:          "FINISHED",
		Symbols:        []string{"600000"},
		Bars:           2,
		InitialCapital: 1_000_000,
		FinalEquity:    1_010_000,
		TotalReturn:    0.01,
		MaxDrawdown:    0.02,
		SharpeRatio:    1.1,
		WinRate:        1,
		TotalTrades:    2,
		WinningTrades:  1,
		Trades: []types.Trade{
			{Symbol: "600000", Side: types.SideBuy, Quantity: 1000, Price: 100, Commission: 50, StrategyID: "rule-600000", Timestamp: day},
			{Symbol: "600000", Side: types.SideSell, Quantity: 1000, Price: 110, Commission: 55, RealizedPnL: 9945, StrategyID: "rule-600000", Timestamp: day.AddDate(0, 0, 1)},
		},
		EquityCurve: []types.EquityRecord{
			{Timestamp: day, TotalValue: 999_950, Cash: 899_950, PositionsValue: 100_000, PeakValue: 1_000_000, DrawdownPct: 0.00005},
			{Timestamp: day.AddDate(0, 0, 1), TotalValue: 1_010_000, Cash: 1_010_000, PeakValue: 1_010_000},
		},
		Errors: []string{},
	}
}

func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	require.NoError(t, WriteTradesCSV(sampleResults(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, []string{"2023-03-01 00:00:00", "600000", "BUY", "1000", "100.0000", "50.0000", "0.0000", "rule-600000"}, rows[1])
	assert.Equal(t, "SELL", rows[2][2])
	assert.Equal(t, "9945.0000", rows[2][6])
}

func TestWriteEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")
	require.NoError(t, WriteEquityCSV(sampleResults(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "999950.00", rows[1][1])
	assert.Equal(t, "1010000.00", rows[2][1])
}

func TestWriteResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	cfg := config.Default()
	cfg.Symbols = []config.SymbolConfig{{Symbol: "600000", DataFile: "600000.csv"}}
	require.NoError(t, WriteResultsJSON(cfg, sampleResults(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Config  config.Config    `json:"config"`
		Results backtest.Results `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "600000", doc.Config.Symbols[0].Symbol)
	assert.Equal(t, "FINISHED", doc.Results.State)
	assert.Len(t, doc.Results.Trades, 2)
	assert.NotNil(t, doc.Results.Errors)
}

func TestWriteResultsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteResultsXLSX(sampleResults(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Summary", "Trades", "Equity Curve"}, fx.GetSheetList())

	got, err := fx.GetCellValue("Trades", "B2")
	require.NoError(t, err)
	assert.Equal(t, "600000", got)

	side, err := fx.GetCellValue("Trades", "C3")
	require.NoError(t, err)
	assert.Equal(t, "SELL", side)
}

func TestConsolePrint(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleReporter().WithWriter(&buf).Print(sampleResults())

	out := buf.String()
	assert.Contains(t, out, "BACKTEST RESULTS")
	assert.Contains(t, out, "1.00%")
	assert.Contains(t, out, "600000")
	assert.Contains(t, out, "SELL")
}

func TestDefaultOutputDir(t *testing.T) {
	dir := DefaultOutputDir("600000", "f47ac10b-58cc-4372-a567-0e02b2c3d479")
	assert.Equal(t, filepath.Join("results", "600000_f47ac10b"), dir)

	dir = DefaultOutputDir("", "ab")
	assert.Equal(t, filepath.Join("results", "UNKNOWN_ab"), dir)
}

func TestMakeOutputDir_CreatesDirItself(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "600000_abcd1234")
	require.NoError(t, MakeOutputDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// EnsureDir by contrast prepares a file's parent, not the path.
	file := filepath.Join(dir, "nested", "trades.csv")
	require.NoError(t, EnsureDir(file))
	_, err = os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}
