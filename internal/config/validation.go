package config

import (
	"fmt"

	"github.com/leminhbao/stock-rule-bot/internal/rule"
)

// Validate checks configuration consistency. Rule expressions are
// syntax-checked here so a malformed rule fails before any data loads.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got: %.2f", c.InitialCapital)
	}
	if c.Commission < 0 || c.Commission > 0.1 {
		return fmt.Errorf("commission must be between 0 and 0.1, got: %.4f", c.Commission)
	}
	if c.Slippage < 0 || c.Slippage > 0.1 {
		return fmt.Errorf("slippage must be between 0 and 0.1, got: %.4f", c.Slippage)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot size must be positive, got: %d", c.LotSize)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	totalAlloc := 0.0
	for i, s := range c.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbol %d: empty symbol code", i)
		}
		if s.DataFile == "" {
			return fmt.Errorf("symbol %s: missing data_file", s.Symbol)
		}
		if s.AllocationPct < 0 || s.AllocationPct > 1 {
			return fmt.Errorf("symbol %s: allocation_pct must be between 0 and 1, got: %.4f", s.Symbol, s.AllocationPct)
		}
		totalAlloc += s.AllocationPct
	}
	if totalAlloc > 1+1e-9 {
		return fmt.Errorf("symbol allocations sum to %.4f, must not exceed 1", totalAlloc)
	}

	if c.BuyRule == "" && c.SellRule == "" && c.MonthlyInvestment <= 0 {
		return fmt.Errorf("no buy_rule, sell_rule or monthly_investment configured: nothing would ever trade")
	}
	if c.BuyRule != "" {
		if err := rule.ValidateSyntax(c.BuyRule); err != nil {
			return fmt.Errorf("invalid buy_rule: %w", err)
		}
	}
	if c.SellRule != "" {
		if err := rule.ValidateSyntax(c.SellRule); err != nil {
			return fmt.Errorf("invalid sell_rule: %w", err)
		}
	}
	if c.MonthlyInvestment < 0 {
		return fmt.Errorf("monthly_investment must not be negative, got: %.2f", c.MonthlyInvestment)
	}

	if c.StartDate != "" || c.EndDate != "" {
		if _, _, err := c.DateRange(); err != nil {
			return err
		}
	}

	if err := c.validateSizing(); err != nil {
		return err
	}
	return c.validateRisk()
}

func (c *Config) validateSizing() error {
	s := c.Sizing
	switch s.Type {
	case SizingFixedPercent:
		if s.Percent <= 0 || s.Percent > 1 {
			return fmt.Errorf("fixed_percent: percent must be in (0,1], got: %.4f", s.Percent)
		}
	case SizingKelly:
		if s.WinRate <= 0 || s.WinRate > 1 {
			return fmt.Errorf("kelly: win_rate must be in (0,1], got: %.4f", s.WinRate)
		}
		if s.WinLossRatio <= 0 {
			return fmt.Errorf("kelly: win_loss_ratio must be positive, got: %.4f", s.WinLossRatio)
		}
		if s.MaxPercent <= 0 || s.MaxPercent > 1 {
			return fmt.Errorf("kelly: max_percent must be in (0,1], got: %.4f", s.MaxPercent)
		}
	case SizingMartingale:
		if s.BasePercent <= 0 || s.BasePercent > 1 {
			return fmt.Errorf("martingale: base_percent must be in (0,1], got: %.4f", s.BasePercent)
		}
		if s.Multiplier <= 1 {
			return fmt.Errorf("martingale: multiplier must be greater than 1, got: %.4f", s.Multiplier)
		}
		if s.MaxDoubles <= 0 {
			return fmt.Errorf("martingale: max_doubles must be positive, got: %d", s.MaxDoubles)
		}
	default:
		return fmt.Errorf("unknown position_strategy_type: %q", s.Type)
	}
	return nil
}

func (c *Config) validateRisk() error {
	r := c.Risk
	if r.MaxPositionPct <= 0 || r.MaxPositionPct > 1 {
		return fmt.Errorf("risk: max_position_pct must be in (0,1], got: %.4f", r.MaxPositionPct)
	}
	if r.MaxExposurePct <= 0 || r.MaxExposurePct > 1 {
		return fmt.Errorf("risk: max_exposure_pct must be in (0,1], got: %.4f", r.MaxExposurePct)
	}
	if r.MaxPositionPct > r.MaxExposurePct {
		return fmt.Errorf("risk: max_position_pct %.4f exceeds max_exposure_pct %.4f", r.MaxPositionPct, r.MaxExposurePct)
	}
	return nil
}
