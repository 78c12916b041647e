package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/leminhbao/stock-rule-bot/internal/backtest"
	"github.com/leminhbao/stock-rule-bot/internal/config"
)

// runReport is the JSON document written for one finished run: the
// configuration that produced it next to the full results snapshot.
type runReport struct {
	Config  *config.Config    `json:"config"`
	Results *backtest.Results `json:"results"`
}

// WriteResultsJSON writes config and results as one indented document.
func WriteResultsJSON(cfg *config.Config, results *backtest.Results, path string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runReport{Config: cfg, Results: results}); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
