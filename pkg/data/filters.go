package data

import (
	"fmt"
	"time"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// DefaultFilter implements Filter for pre-run data preparation.
type DefaultFilter struct{}

// NewDefaultFilter creates a new filter.
func NewDefaultFilter() *DefaultFilter {
	return &DefaultFilter{}
}

// FilterByDateRange keeps bars with timestamps in [start, end].
func (f *DefaultFilter) FilterByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV {
	if len(bars) == 0 {
		return bars
	}

	var filtered []types.OHLCV
	for _, bar := range bars {
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}

// ValidateTimeSequence ensures bars are strictly chronological with no
// duplicate timestamps. Simulation determinism depends on a total order.
func (f *DefaultFilter) ValidateTimeSequence(bars []types.OHLCV) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return fmt.Errorf("bars not in chronological order at index %d: %s comes after %s",
				i, bars[i].Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
		if bars[i].Timestamp.Equal(bars[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, bars[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
