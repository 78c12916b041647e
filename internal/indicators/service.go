package indicators

import (
	"fmt"
	"strconv"
	"strings"
)

// Calculator computes one indicator value at a single bar index.
// Implementations are pure: the same series, index and args always
// produce the same value, which is what makes memoization safe.
type Calculator func(series []float64, index int, args []float64) (float64, error)

// Descriptor describes a registered indicator function.
type Descriptor struct {
	Name     string
	Calc     Calculator
	MinArgs  int
	MaxArgs  int
	Defaults []float64 // applied for omitted trailing args
}

// Service routes indicator calls by name and memoizes results. One
// service instance is bound to one price panel for the life of a run;
// Reset must be called when the underlying data changes.
type Service struct {
	registry map[string]Descriptor
	cache    map[string]float64
	hits     int
	misses   int
}

// NewService creates a service with the built-in indicator set.
func NewService() *Service {
	s := &Service{
		registry: make(map[string]Descriptor),
		cache:    make(map[string]float64),
	}
	for _, d := range builtins() {
		s.registry[d.Name] = d
	}
	return s
}

// Supported reports whether an indicator name is registered. Lookup is
// case-insensitive, matching the rule grammar.
func (s *Service) Supported(name string) bool {
	_, ok := s.registry[strings.ToUpper(name)]
	return ok
}

// Calculate computes the named indicator over series at index. Results
// are cached per (seriesID, name, args, index) tuple, so callers sharing
// one service must identify which series they hand in (for panel data,
// "symbol.field"). An empty seriesID bypasses the cache: without an
// identity the key could not tell two series apart.
func (s *Service) Calculate(name, seriesID string, series []float64, index int, args ...float64) (float64, error) {
	desc, ok := s.registry[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unsupported indicator: %s", name)
	}
	if len(args) < desc.MinArgs || len(args) > desc.MaxArgs {
		return 0, fmt.Errorf("indicator %s expects %d to %d args, got %d",
			desc.Name, desc.MinArgs, desc.MaxArgs, len(args))
	}
	if index < 0 || index >= len(series) {
		return 0, fmt.Errorf("indicator %s: index %d out of range for series length %d",
			desc.Name, index, len(series))
	}
	for _, a := range args {
		if a <= 0 {
			return 0, fmt.Errorf("indicator %s: arguments must be positive, got %v", desc.Name, a)
		}
	}

	// Fill omitted trailing args from defaults.
	full := make([]float64, desc.MaxArgs)
	copy(full, desc.Defaults)
	copy(full, args)

	if seriesID == "" {
		v, err := desc.Calc(series, index, full)
		if err != nil {
			return 0, fmt.Errorf("indicator %s failed at bar %d: %w", desc.Name, index, err)
		}
		return v, nil
	}

	key := cacheKey(seriesID, desc.Name, full, index)
	if v, ok := s.cache[key]; ok {
		s.hits++
		return v, nil
	}
	s.misses++

	v, err := desc.Calc(series, index, full)
	if err != nil {
		return 0, fmt.Errorf("indicator %s failed at bar %d: %w", desc.Name, index, err)
	}
	s.cache[key] = v
	return v, nil
}

// Reset clears the memoization cache. Call between runs or when the
// panel the service is bound to changes.
func (s *Service) Reset() {
	s.cache = make(map[string]float64)
	s.hits = 0
	s.misses = 0
}

// CacheStats returns cache hit/miss counters.
func (s *Service) CacheStats() (hits, misses int) {
	return s.hits, s.misses
}

func cacheKey(seriesID, name string, args []float64, index int) string {
	var b strings.Builder
	b.WriteString(seriesID)
	b.WriteByte(':')
	b.WriteString(name)
	for _, a := range args {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(a, 'g', -1, 64))
	}
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(index))
	return b.String()
}

func builtins() []Descriptor {
	return []Descriptor{
		{Name: "SMA", Calc: smaAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{5}},
		{Name: "EMA", Calc: emaAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{12}},
		{Name: "WMA", Calc: wmaAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{5}},
		{Name: "RSI", Calc: rsiAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{14}},
		{Name: "MACD", Calc: macdAt, MinArgs: 0, MaxArgs: 3, Defaults: []float64{12, 26, 9}},
		{Name: "MOM", Calc: momAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{10}},
		{Name: "ROC", Calc: rocAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{10}},
		{Name: "STD", Calc: stdAt, MinArgs: 0, MaxArgs: 1, Defaults: []float64{20}},
		{Name: "BOLL_UP", Calc: bollUpperAt, MinArgs: 0, MaxArgs: 2, Defaults: []float64{20, 2}},
		{Name: "BOLL_LOW", Calc: bollLowerAt, MinArgs: 0, MaxArgs: 2, Defaults: []float64{20, 2}},
	}
}
