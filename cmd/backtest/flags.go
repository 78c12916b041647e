package main

import (
	"flag"
)

// Flags holds the command line flags for the backtest command. Flags
// override the config file, which overrides the built-in defaults.
type Flags struct {
	// Configuration
	ConfigFile *string
	EnvFile    *string

	// Single-symbol shortcut, instead of a config file
	Symbol   *string
	DataFile *string
	BuyRule  *string
	SellRule *string

	// Account settings
	InitialCapital *float64
	Commission     *float64
	Slippage       *float64
	LotSize        *int64

	// Date range
	StartDate *string
	EndDate   *string

	// Position sizing
	SizingType *string
	Percent    *float64

	// Output options
	OutputDir   *string
	ConsoleOnly *bool

	ShowVersion *bool
}

// NewFlags registers the backtest command line flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "Path to JSON run configuration"),
		EnvFile:    flag.String("env", ".env", "Path to environment file"),

		Symbol:   flag.String("symbol", "", "Symbol code (single-symbol mode)"),
		DataFile: flag.String("data", "", "Path to historical CSV data"),
		BuyRule:  flag.String("buy-rule", "", "Buy rule expression"),
		SellRule: flag.String("sell-rule", "", "Sell rule expression"),

		InitialCapital: flag.Float64("capital", 0, "Initial capital"),
		Commission:     flag.Float64("commission", -1, "Commission rate"),
		Slippage:       flag.Float64("slippage", -1, "Slippage rate"),
		LotSize:        flag.Int64("lot-size", 0, "Minimum tradable lot"),

		StartDate: flag.String("start", "", "Start date (YYYY-MM-DD)"),
		EndDate:   flag.String("end", "", "End date (YYYY-MM-DD)"),

		SizingType: flag.String("sizing", "", "Position sizing strategy (fixed_percent, kelly, martingale)"),
		Percent:    flag.Float64("percent", 0, "Fixed position fraction"),

		OutputDir:   flag.String("output", "", "Directory for result files"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip writing result files"),

		ShowVersion: flag.Bool("version", false, "Print version and exit"),
	}
}
