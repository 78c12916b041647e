package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrLookAhead is returned when a read requests a bar beyond the
// simulation cursor. Strategies must never see future data.
var ErrLookAhead = errors.New("index beyond current simulation bar")

// ErrExhausted is returned when the panel cursor cannot advance further.
var ErrExhausted = errors.New("price panel exhausted")

// Panel holds the full chronological bar history for one symbol.
// The bars themselves are immutable for the life of a run; the cursor
// marks the latest bar visible to strategies and indicators.
type Panel struct {
	symbol string
	bars   []OHLCV
	cursor int
}

// NewPanel wraps a chronologically ordered bar slice. The cursor starts
// before the first bar; Advance must be called before any read.
func NewPanel(symbol string, bars []OHLCV) *Panel {
	return &Panel{symbol: symbol, bars: bars, cursor: -1}
}

// Symbol returns the instrument this panel belongs to.
func (p *Panel) Symbol() string { return p.symbol }

// Len returns the total number of bars loaded.
func (p *Panel) Len() int { return len(p.bars) }

// Cursor returns the index of the current simulation bar, -1 before the
// first Advance.
func (p *Panel) Cursor() int { return p.cursor }

// Advance moves the cursor to the next bar and returns it.
func (p *Panel) Advance() (OHLCV, error) {
	if p.cursor+1 >= len(p.bars) {
		return OHLCV{}, ErrExhausted
	}
	p.cursor++
	return p.bars[p.cursor], nil
}

// Current returns the bar under the cursor.
func (p *Panel) Current() (OHLCV, error) {
	if p.cursor < 0 || p.cursor >= len(p.bars) {
		return OHLCV{}, fmt.Errorf("no current bar: cursor %d of %d", p.cursor, len(p.bars))
	}
	return p.bars[p.cursor], nil
}

// At returns the bar at index i. Reads past the cursor fail with
// ErrLookAhead so rule evaluation cannot peek into the future.
func (p *Panel) At(i int) (OHLCV, error) {
	if i < 0 || i >= len(p.bars) {
		return OHLCV{}, fmt.Errorf("bar index %d out of range [0,%d)", i, len(p.bars))
	}
	if i > p.cursor {
		return OHLCV{}, fmt.Errorf("bar %d requested at cursor %d: %w", i, p.cursor, ErrLookAhead)
	}
	return p.bars[i], nil
}

// Field returns the named raw field at index i, subject to the same
// no-look-ahead check as At.
func (p *Panel) Field(name string, i int) (float64, error) {
	bar, err := p.At(i)
	if err != nil {
		return 0, err
	}
	v, ok := bar.FieldValue(name)
	if !ok {
		return 0, fmt.Errorf("unknown price field %q", name)
	}
	return v, nil
}

// FieldHistory returns the named field for bars [0, upto]. The slice is
// freshly allocated per call so callers cannot mutate panel data.
func (p *Panel) FieldHistory(name string, upto int) ([]float64, error) {
	if upto > p.cursor {
		return nil, fmt.Errorf("history to bar %d at cursor %d: %w", upto, p.cursor, ErrLookAhead)
	}
	if upto < 0 || upto >= len(p.bars) {
		return nil, fmt.Errorf("bar index %d out of range [0,%d)", upto, len(p.bars))
	}
	out := make([]float64, upto+1)
	for i := 0; i <= upto; i++ {
		v, ok := p.bars[i].FieldValue(name)
		if !ok {
			return nil, fmt.Errorf("unknown price field %q", name)
		}
		out[i] = v
	}
	return out, nil
}

// TimestampAt returns the timestamp of bar i without a look-ahead check;
// the engine uses it to schedule events before the cursor reaches i.
func (p *Panel) TimestampAt(i int) (time.Time, error) {
	if i < 0 || i >= len(p.bars) {
		return time.Time{}, fmt.Errorf("bar index %d out of range [0,%d)", i, len(p.bars))
	}
	return p.bars[i].Timestamp, nil
}

// Reset rewinds the cursor for a fresh run over the same data.
func (p *Panel) Reset() { p.cursor = -1 }
