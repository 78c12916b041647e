package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/leminhbao/stock-rule-bot/internal/backtest"
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/internal/logger"
	"github.com/leminhbao/stock-rule-bot/pkg/data"
	"github.com/leminhbao/stock-rule-bot/pkg/reporting"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

const (
	AppName    = "Rule Backtest"
	AppVersion = "1.0.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	panels, err := loadPanels(cfg)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	runLog, err := logger.NewLogger(filepath.Base(os.Args[0]))
	if err != nil {
		log.Printf("⚠️  Could not open log file (%v), continuing without", err)
		runLog = logger.NewDiscardLogger()
	}
	defer runLog.Close()

	engine, err := backtest.NewEngine(cfg, panels, runLog)
	if err != nil {
		log.Fatalf("❌ Engine error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := engine.Run(ctx)
	if err != nil {
		log.Printf("❌ Backtest failed: %v", err)
		if results != nil {
			reporting.NewConsoleReporter().Print(results)
		}
		runLog.Close()
		os.Exit(1)
	}

	reporting.NewConsoleReporter().Print(results)

	if !*flags.ConsoleOnly {
		if err := writeReports(cfg, results, *flags.OutputDir); err != nil {
			log.Fatalf("❌ Report error: %v", err)
		}
	}
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
		log.Println("💡 Using environment variables or defaults")
	}
}

// loadConfiguration builds the run config from the config file, or from
// the single-symbol flags when no file is given, then layers flag and
// environment overrides on top.
func loadConfiguration(flags *Flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if *flags.ConfigFile != "" {
		cfg, err = config.Load(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		fmt.Printf("📁 Loaded configuration: %s\n", *flags.ConfigFile)
	} else {
		if *flags.Symbol == "" || *flags.DataFile == "" {
			return nil, fmt.Errorf("either -config or both -symbol and -data are required")
		}
		cfg = config.Default()
		cfg.Symbols = []config.SymbolConfig{{
			Symbol:   *flags.Symbol,
			DataFile: *flags.DataFile,
		}}
		fmt.Printf("📁 Single-symbol run: %s (%s)\n", *flags.Symbol, *flags.DataFile)
	}

	applyFlagOverrides(cfg, flags)
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config, flags *Flags) {
	if *flags.BuyRule != "" {
		cfg.BuyRule = *flags.BuyRule
	}
	if *flags.SellRule != "" {
		cfg.SellRule = *flags.SellRule
	}
	if *flags.InitialCapital > 0 {
		cfg.InitialCapital = *flags.InitialCapital
	}
	if *flags.Commission >= 0 {
		cfg.Commission = *flags.Commission
	}
	if *flags.Slippage >= 0 {
		cfg.Slippage = *flags.Slippage
	}
	if *flags.LotSize > 0 {
		cfg.LotSize = *flags.LotSize
	}
	if *flags.StartDate != "" {
		cfg.StartDate = *flags.StartDate
	}
	if *flags.EndDate != "" {
		cfg.EndDate = *flags.EndDate
	}
	if *flags.SizingType != "" {
		cfg.Sizing.Type = *flags.SizingType
	}
	if *flags.Percent > 0 {
		cfg.Sizing.Percent = *flags.Percent
	}
}

// loadPanels reads, filters and validates the historical bars for every
// configured symbol. Files are loaded through a cached provider so a
// config that reuses one data file only reads it once.
func loadPanels(cfg *config.Config) (map[string]*types.Panel, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())
	filter := data.NewDefaultFilter()

	panels := make(map[string]*types.Panel, len(cfg.Symbols))
	for _, sc := range cfg.Symbols {
		bars, err := provider.LoadBars(sc.DataFile)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", sc.Symbol, err)
		}
		if cfg.StartDate != "" && cfg.EndDate != "" {
			start, end, err := cfg.DateRange()
			if err != nil {
				return nil, err
			}
			bars = filter.FilterByDateRange(bars, start, end)
		}
		if err := filter.ValidateTimeSequence(bars); err != nil {
			return nil, fmt.Errorf("symbol %s: %w", sc.Symbol, err)
		}
		fmt.Printf("📊 %s: %d bars loaded from %s\n", sc.Symbol, len(bars), sc.DataFile)
		panels[sc.Symbol] = types.NewPanel(sc.Symbol, bars)
	}
	return panels, nil
}

// writeReports writes the CSV, JSON and Excel result files. An empty
// outputDir falls back to results/<SYMBOL>_<run-id>.
func writeReports(cfg *config.Config, results *backtest.Results, outputDir string) error {
	if outputDir == "" {
		symbol := "MULTI"
		if len(cfg.Symbols) == 1 {
			symbol = cfg.Symbols[0].Symbol
		}
		outputDir = reporting.DefaultOutputDir(symbol, results.RunID)
	}
	if err := reporting.MakeOutputDir(outputDir); err != nil {
		return err
	}

	if err := reporting.WriteTradesCSV(results, filepath.Join(outputDir, "trades.csv")); err != nil {
		return err
	}
	if err := reporting.WriteEquityCSV(results, filepath.Join(outputDir, "equity.csv")); err != nil {
		return err
	}
	if err := reporting.WriteResultsJSON(cfg, results, filepath.Join(outputDir, "results.json")); err != nil {
		return err
	}
	if err := reporting.WriteResultsXLSX(results, filepath.Join(outputDir, "results.xlsx")); err != nil {
		return err
	}

	fmt.Printf("\n💾 Results saved to: %s\n", outputDir)
	return nil
}
