package sizing

import (
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Kelly sizes entries by the Kelly criterion and otherwise behaves like
// FixedPercent with the derived fraction.
//
//	fraction = win_rate - (1 - win_rate) / win_loss_ratio
//
// The fraction is clamped to [0, maxPercent]. A negative edge sizes to
// zero rather than shorting.
type Kelly struct {
	winRate      float64
	winLossRatio float64
	maxPercent   float64

	inner *FixedPercent
}

// NewKelly returns a Kelly-criterion sizer.
func NewKelly(winRate, winLossRatio, maxPercent float64, lotSize int64) *Kelly {
	k := &Kelly{
		winRate:      winRate,
		winLossRatio: winLossRatio,
		maxPercent:   maxPercent,
	}
	k.inner = NewFixedPercent(k.Fraction(), lotSize)
	return k
}

// Name implements Sizer.
func (k *Kelly) Name() string { return config.SizingKelly }

// Fraction returns the clamped Kelly fraction.
func (k *Kelly) Fraction() float64 {
	if k.winLossRatio <= 0 {
		return 0
	}
	f := k.winRate - (1-k.winRate)/k.winLossRatio
	if f < 0 {
		return 0
	}
	if f > k.maxPercent {
		return k.maxPercent
	}
	return f
}

// Size implements Sizer.
func (k *Kelly) Size(sig types.Signal, snap types.Snapshot, price float64) int64 {
	return k.inner.Size(sig, snap, price)
}
