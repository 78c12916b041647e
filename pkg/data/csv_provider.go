package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// CSVProvider implements Provider for CSV bar files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the provider name.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadBars loads all bars from a CSV file.
func (p *CSVProvider) LoadBars(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", source, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}

	var bars []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNum, p.format.MinColumns, len(record))
		}

		timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp %q: %w", lineNum, record[p.format.TimestampCol], err)
		}

		open, err := parsePrice(record[p.format.OpenCol], "open", lineNum)
		if err != nil {
			return nil, err
		}
		high, err := parsePrice(record[p.format.HighCol], "high", lineNum)
		if err != nil {
			return nil, err
		}
		low, err := parsePrice(record[p.format.LowCol], "low", lineNum)
		if err != nil {
			return nil, err
		}
		closePrice, err := parsePrice(record[p.format.CloseCol], "close", lineNum)
		if err != nil {
			return nil, err
		}
		volume, err := strconv.ParseFloat(record[p.format.VolumeCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid volume %q: %w", lineNum, record[p.format.VolumeCol], err)
		}

		bars = append(bars, types.OHLCV{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Timestamp: timestamp,
		})
	}

	if err := p.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// ValidateBars checks price sanity across the loaded series.
func (p *CSVProvider) ValidateBars(bars []types.OHLCV) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bars loaded")
	}
	for i, bar := range bars {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return fmt.Errorf("bar %d: non-positive price", i)
		}
		if bar.High < bar.Low || bar.High < bar.Open || bar.High < bar.Close {
			return fmt.Errorf("bar %d: high %.4f below open/low/close", i, bar.High)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			return fmt.Errorf("bar %d: low %.4f above open/close", i, bar.Low)
		}
	}
	return NewDefaultFilter().ValidateTimeSequence(bars)
}

func parsePrice(raw, field string, line int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s price %q: %w", line, field, raw, err)
	}
	return v, nil
}
