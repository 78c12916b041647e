package data

import (
	"time"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Provider loads materialized historical bars from a source. The
// simulation core never performs I/O mid-run: providers are invoked
// before the engine starts and the result is handed over as a panel.
type Provider interface {
	// LoadBars loads all bars from the given source path.
	LoadBars(source string) ([]types.OHLCV, error)

	// ValidateBars checks the integrity of loaded bars.
	ValidateBars(bars []types.OHLCV) error

	// GetName returns the provider name for logging.
	GetName() string
}

// Cache stores loaded bar series keyed by source.
type Cache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, bars []types.OHLCV)
	Clear()
	Size() int
}

// Filter narrows and validates a bar series before a run.
type Filter interface {
	// FilterByDateRange keeps bars within [start, end] inclusive.
	FilterByDateRange(bars []types.OHLCV, start, end time.Time) []types.OHLCV

	// ValidateTimeSequence ensures bars are strictly chronological.
	ValidateTimeSequence(bars []types.OHLCV) error
}

// CSVColumnMapping defines column positions and the date format of a
// CSV bar file.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches "timestamp,open,high,low,close,volume" with
// second-resolution timestamps.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// DailyCSVFormat matches the same layout with date-only timestamps, the
// common export shape for daily equity bars.
var DailyCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02",
}
