package main

import (
	"flag"
	"fmt"
)

// Flags holds the command line flags for the sweep command.
type Flags struct {
	ConfigFile *string
	EnvFile    *string

	// Percent grid for the fixed_percent sizing strategy
	PercentMin  *float64
	PercentMax  *float64
	PercentStep *float64

	Workers *int

	// Listen address for /metrics and /healthz, empty disables the server
	ListenAddr *string

	ShowVersion *bool
}

// NewFlags registers the sweep command line flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "Path to JSON run configuration"),
		EnvFile:    flag.String("env", ".env", "Path to environment file"),

		PercentMin:  flag.Float64("percent-min", 0.05, "Smallest position fraction to try"),
		PercentMax:  flag.Float64("percent-max", 0.50, "Largest position fraction to try"),
		PercentStep: flag.Float64("percent-step", 0.05, "Step between fractions"),

		Workers: flag.Int("workers", 0, "Parallel workers (0 = all CPUs)"),

		ListenAddr: flag.String("listen", "", "HTTP address for metrics and health (e.g. :9090)"),

		ShowVersion: flag.Bool("version", false, "Print version and exit"),
	}
}

// ValidateFlags rejects grids that would produce no jobs.
func ValidateFlags(flags *Flags) error {
	if *flags.ConfigFile == "" {
		return fmt.Errorf("-config is required")
	}
	if *flags.PercentMin <= 0 || *flags.PercentMin > 1 {
		return fmt.Errorf("percent-min must be in (0,1], got: %.4f", *flags.PercentMin)
	}
	if *flags.PercentMax < *flags.PercentMin || *flags.PercentMax > 1 {
		return fmt.Errorf("percent-max must be in [percent-min,1], got: %.4f", *flags.PercentMax)
	}
	if *flags.PercentStep <= 0 {
		return fmt.Errorf("percent-step must be positive, got: %.4f", *flags.PercentStep)
	}
	return nil
}
