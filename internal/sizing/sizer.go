package sizing

import (
	"fmt"

	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Sizer maps a signal and a portfolio snapshot to a signed share delta.
// Positive means buy, negative means sell, zero means no action.
//
// Sizers decide the theoretical trade size only. Exposure ceilings and
// affordability checks beyond the sizer's own cash shrink are the risk
// manager's job.
type Sizer interface {
	// Size returns the signed quantity for the signal at the given price.
	// The result is always a multiple of the configured lot size.
	Size(sig types.Signal, snap types.Snapshot, price float64) int64

	// Name returns the configured strategy type name.
	Name() string
}

// New builds a sizer from configuration. The config is assumed to have
// passed Validate already; unknown types still return an error so a
// caller bypassing validation fails loudly.
func New(cfg config.SizingConfig, lotSize int64) (Sizer, error) {
	if lotSize <= 0 {
		return nil, fmt.Errorf("invalid lot size: %d", lotSize)
	}
	switch cfg.Type {
	case config.SizingFixedPercent:
		return NewFixedPercent(cfg.Percent, lotSize), nil
	case config.SizingKelly:
		return NewKelly(cfg.WinRate, cfg.WinLossRatio, cfg.MaxPercent, lotSize), nil
	case config.SizingMartingale:
		return NewMartingale(cfg.BasePercent, cfg.Multiplier, cfg.MaxDoubles, lotSize), nil
	default:
		return nil, fmt.Errorf("unknown position strategy type: %q", cfg.Type)
	}
}

// lots rounds a share count down to a whole number of lots.
func lots(quantity float64, lotSize int64) int64 {
	if quantity <= 0 {
		return 0
	}
	return int64(quantity/float64(lotSize)) * lotSize
}

// affordable shrinks a buy quantity so its notional fits in cash.
// Insufficient funds never error, the request just gets smaller.
func affordable(quantity int64, price, cash float64, lotSize int64) int64 {
	if quantity <= 0 || price <= 0 {
		return 0
	}
	if float64(quantity)*price <= cash {
		return quantity
	}
	return lots(cash/price, lotSize)
}

// buyQuantity computes a lot-aligned buy for a fraction of available cash.
func buyQuantity(cash, fraction, price float64, lotSize int64) int64 {
	if price <= 0 || fraction <= 0 {
		return 0
	}
	qty := lots(cash*fraction/price, lotSize)
	return affordable(qty, price, cash, lotSize)
}
