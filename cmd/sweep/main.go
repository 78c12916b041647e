package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/leminhbao/stock-rule-bot/internal/backtest"
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/internal/monitoring"
	"github.com/leminhbao/stock-rule-bot/pkg/data"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

const (
	AppName    = "Rule Sweep"
	AppVersion = "1.0.0"

	stallTimeout = 5 * time.Minute
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	if err := ValidateFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := config.Load(*flags.ConfigFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	cfg.ApplyEnvOverrides()

	bars, err := loadBars(cfg)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker(stallTimeout)
	if *flags.ListenAddr != "" {
		go serveMonitoring(*flags.ListenAddr, metrics, health)
	}

	grid := buildGrid(cfg, *flags.PercentMin, *flags.PercentMax, *flags.PercentStep)
	fmt.Printf("🔄 Sweeping %d variants with %d workers\n\n", len(grid), *flags.Workers)

	pool := backtest.NewWorkerPool(*flags.Workers, len(grid))
	pool.SetMetrics(metrics)
	pool.Start()

	for _, job := range grid {
		job.Bars = bars
		if err := pool.Submit(job); err != nil {
			log.Fatalf("❌ Submit error: %v", err)
		}
	}
	go pool.Stop()

	var completed []backtest.JobResult
	for result := range pool.Results() {
		health.JobFinished(result.Err != nil)
		if result.Err != nil {
			log.Printf("⚠️  %s failed: %v", result.ID, result.Err)
			continue
		}
		completed = append(completed, result)
	}

	printRanking(completed)
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

// loadBars loads and filters the historical bars once; every sweep job
// shares the same read-only slices.
func loadBars(cfg *config.Config) (map[string][]types.OHLCV, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())
	filter := data.NewDefaultFilter()

	out := make(map[string][]types.OHLCV, len(cfg.Symbols))
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
		out[sc.Symbol] = bars
	}
	return out, nil
}

// buildGrid produces one job per position fraction. Each job gets a
// deep copy of the base config so workers never share mutable state.
func buildGrid(base *config.Config, min, max, step float64) []backtest.Job {
	var grid []backtest.Job
	for pct := min; pct <= max+1e-9; pct += step {
		variant := *base
		variant.Symbols = append([]config.SymbolConfig(nil), base.Symbols...)
		variant.Sizing.Type = config.SizingFixedPercent
		variant.Sizing.Percent = pct

		grid = append(grid, backtest.Job{
			ID:     fmt.Sprintf("percent_%.2f", pct),
			Config: &variant,
		})
	}
	return grid
}

func printRanking(completed []backtest.JobResult) {
	if len(completed) == 0 {
		fmt.Println("\nNo variant finished successfully.")
		return
	}

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Results.TotalReturn > completed[j].Results.TotalReturn
	})

	t := table.NewWriter()
	t.SetTitle("🏆 SWEEP RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Rank", "Variant", "Return", "Max DD", "Sharpe", "Trades", "Win Rate", "Duration"})

	for i, r := range completed {
		t.AppendRow(table.Row{
			i + 1,
			r.ID,
			fmt.Sprintf("%.2f%%", r.Results.TotalReturn*100),
			fmt.Sprintf("%.2f%%", r.Results.MaxDrawdown*100),
			fmt.Sprintf("%.2f", r.Results.SharpeRatio),
			r.Results.TotalTrades,
			fmt.Sprintf("%.1f%%", r.Results.WinRate*100),
			r.Duration.Round(time.Millisecond),
		})
	}
	t.Render()

	best := completed[0]
	fmt.Printf("\n✅ Best variant: %s (%.2f%% return, %.2f Sharpe)\n",
		best.ID, best.Results.TotalReturn*100, best.Results.SharpeRatio)
}

func serveMonitoring(addr string, metrics *monitoring.Metrics, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", health)

	fmt.Printf("📡 Monitoring on http://%s/metrics\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️  Monitoring server stopped: %v", err)
	}
}
