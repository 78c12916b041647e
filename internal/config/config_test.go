package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.StartDate = "2023-01-01"
	cfg.EndDate = "2023-12-31"
	cfg.Symbols = []SymbolConfig{{Symbol: "600000", DataFile: "600000.csv"}}
	cfg.BuyRule = "RSI(close,14) < 30"
	cfg.SellRule = "RSI(close,14) > 70"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative capital", func(c *Config) { c.InitialCapital = -1 }, "initial capital"},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "at least one symbol"},
		{"missing data file", func(c *Config) { c.Symbols[0].DataFile = "" }, "data_file"},
		{"bad buy rule", func(c *Config) { c.BuyRule = "close >" }, "buy_rule"},
		{"bad sell rule", func(c *Config) { c.SellRule = "((close)" }, "sell_rule"},
		{"nothing trades", func(c *Config) { c.BuyRule, c.SellRule = "", "" }, "nothing would ever trade"},
		{"dates reversed", func(c *Config) { c.StartDate, c.EndDate = "2024-01-01", "2023-01-01" }, "after"},
		{"zero lot", func(c *Config) { c.LotSize = 0 }, "lot size"},
		{"bad percent", func(c *Config) { c.Sizing.Percent = 1.5 }, "percent"},
		{"unknown sizing", func(c *Config) { c.Sizing.Type = "fibonacci" }, "position_strategy_type"},
		{"over-allocated", func(c *Config) {
			c.Symbols = []SymbolConfig{
				{Symbol: "a", DataFile: "a.csv", AllocationPct: 0.7},
				{Symbol: "b", DataFile: "b.csv", AllocationPct: 0.7},
			}
		}, "allocations"},
		{"position ceiling above aggregate", func(c *Config) {
			c.Risk.MaxPositionPct = 0.8
		}, "max_exposure_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_SizingVariants(t *testing.T) {
	kelly := validConfig()
	kelly.Sizing = SizingConfig{Type: SizingKelly, WinRate: 0.55, WinLossRatio: 2, MaxPercent: 0.25}
	assert.NoError(t, kelly.Validate())

	martingale := validConfig()
	martingale.Sizing = SizingConfig{Type: SizingMartingale, BasePercent: 0.05, Multiplier: 2, MaxDoubles: 3}
	assert.NoError(t, martingale.Validate())

	badKelly := validConfig()
	badKelly.Sizing = SizingConfig{Type: SizingKelly, WinRate: 0.55, WinLossRatio: 0, MaxPercent: 0.25}
	assert.Error(t, badKelly.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"initial_capital": 500000,
		"start_date": "2023-01-01",
		"end_date": "2023-06-30",
		"symbols": [{"symbol": "600519", "data_file": "600519.csv", "allocation_pct": 1.0}],
		"buy_rule": "SMA(close,5) > SMA(close,20)",
		"sell_rule": "SMA(close,5) < SMA(close,20)",
		"sizing": {"position_strategy_type": "fixed_percent", "percent": 0.2}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, cfg.InitialCapital)
	assert.Equal(t, 0.2, cfg.Sizing.Percent)
	// Defaults survive partial configs.
	assert.Equal(t, DefaultCommission, cfg.Commission)
	assert.Equal(t, int64(DefaultLotSize), cfg.LotSize)
	assert.Equal(t, DefaultMaxPositionPct, cfg.Risk.MaxPositionPct)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.json")
	assert.Error(t, err)
}

func TestAllocation(t *testing.T) {
	cfg := validConfig()
	cfg.Symbols = []SymbolConfig{
		{Symbol: "a", DataFile: "a.csv", AllocationPct: 0.6},
		{Symbol: "b", DataFile: "b.csv", AllocationPct: 0.4},
	}
	assert.InDelta(t, 600000, cfg.Allocation(0), 1e-9)
	assert.InDelta(t, 400000, cfg.Allocation(1), 1e-9)

	equal := validConfig()
	equal.Symbols = []SymbolConfig{
		{Symbol: "a", DataFile: "a.csv"},
		{Symbol: "b", DataFile: "b.csv"},
	}
	assert.InDelta(t, 500000, equal.Allocation(0), 1e-9)
}
