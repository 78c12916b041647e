package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 100 + float64(i)
	}
	return s
}

func fallingSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 100 - float64(i)
	}
	return s
}

func flatSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 100
	}
	return s
}

func TestService_UnknownIndicator(t *testing.T) {
	svc := NewService()
	_, err := svc.Calculate("VWAP", "close", risingSeries(30), 29)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported indicator")
}

func TestService_ArityMismatch(t *testing.T) {
	svc := NewService()
	_, err := svc.Calculate("SMA", "close", risingSeries(30), 29, 5, 6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "args")
}

func TestService_NonPositiveArg(t *testing.T) {
	svc := NewService()
	_, err := svc.Calculate("SMA", "close", risingSeries(30), 29, -5)
	require.Error(t, err)
}

func TestService_IndexOutOfRange(t *testing.T) {
	svc := NewService()
	_, err := svc.Calculate("SMA", "close", risingSeries(10), 10, 5)
	require.Error(t, err)
}

func TestService_CaseInsensitiveLookup(t *testing.T) {
	svc := NewService()
	upper, err := svc.Calculate("SMA", "close", risingSeries(30), 29, 5)
	require.NoError(t, err)
	lower, err := svc.Calculate("sma", "close", risingSeries(30), 29, 5)
	require.NoError(t, err)
	assert.Equal(t, upper, lower)
}

func TestService_CachesResults(t *testing.T) {
	svc := NewService()
	series := risingSeries(50)

	v1, err := svc.Calculate("RSI", "close", series, 40, 14)
	require.NoError(t, err)
	v2, err := svc.Calculate("RSI", "close", series, 40, 14)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	hits, misses := svc.CacheStats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	svc.Reset()
	hits, misses = svc.CacheStats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestService_CacheIsolatesSeries(t *testing.T) {
	svc := NewService()
	opens := flatSeries(10)
	closes := risingSeries(10)

	// Same indicator, args and index on two different series must not
	// share a cache slot.
	fromOpen, err := svc.Calculate("SMA", "600000.open", opens, 9, 3)
	require.NoError(t, err)
	fromClose, err := svc.Calculate("SMA", "600000.close", closes, 9, 3)
	require.NoError(t, err)

	assert.InDelta(t, 100, fromOpen, 1e-9)
	assert.InDelta(t, 108, fromClose, 1e-9) // mean(107,108,109)

	// Same field on another symbol gets its own slot too.
	other, err := svc.Calculate("SMA", "000001.close", fallingSeries(10), 9, 3)
	require.NoError(t, err)
	assert.InDelta(t, 92, other, 1e-9) // mean(93,92,91)

	hits, misses := svc.CacheStats()
	assert.Zero(t, hits)
	assert.Equal(t, 3, misses)
}

func TestService_EmptySeriesIDBypassesCache(t *testing.T) {
	svc := NewService()

	up, err := svc.Calculate("SMA", "", risingSeries(10), 9, 3)
	require.NoError(t, err)
	down, err := svc.Calculate("SMA", "", fallingSeries(10), 9, 3)
	require.NoError(t, err)

	assert.NotEqual(t, up, down)
	hits, misses := svc.CacheStats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestSMA_Value(t *testing.T) {
	svc := NewService()
	series := []float64{1, 2, 3, 4, 5, 6}

	v, err := svc.Calculate("SMA", "close", series, 5, 3)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9) // mean(4,5,6)

	// Warm-up returns the neutral 0.
	v, err = svc.Calculate("SMA", "close", series, 1, 3)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestWMA_WeightsRecent(t *testing.T) {
	svc := NewService()
	series := []float64{1, 2, 3}
	v, err := svc.Calculate("WMA", "close", series, 2, 3)
	require.NoError(t, err)
	// (1*1 + 2*2 + 3*3) / 6
	assert.InDelta(t, 14.0/6.0, v, 1e-9)
}

func TestRSI_Extremes(t *testing.T) {
	svc := NewService()

	up, err := svc.Calculate("RSI", "up.close", risingSeries(40), 39, 14)
	require.NoError(t, err)
	assert.InDelta(t, 100, up, 1e-9)

	down, err := svc.Calculate("RSI", "down.close", fallingSeries(40), 39, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0, down, 1e-9)

	flat, err := svc.Calculate("RSI", "flat.close", flatSeries(40), 39, 14)
	require.NoError(t, err)
	assert.InDelta(t, 50, flat, 1e-9)

	// Warm-up returns the neutral 50.
	warm, err := svc.Calculate("RSI", "up.close", risingSeries(40), 5, 14)
	require.NoError(t, err)
	assert.InDelta(t, 50, warm, 1e-9)
}

func TestMACD_TrendSign(t *testing.T) {
	svc := NewService()

	// On an accelerating uptrend the fast EMA leads the slow EMA, so
	// the MACD line is positive well past warm-up.
	series := make([]float64, 120)
	for i := range series {
		series[i] = 100 + float64(i)*float64(i)*0.01
	}
	v, err := svc.Calculate("MACD", "up.close", series, 119, 12, 26, 9)
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)

	flat, err := svc.Calculate("MACD", "flat.close", flatSeries(120), 119)
	require.NoError(t, err)
	assert.InDelta(t, 0, flat, 1e-9)
}

func TestBollingerBands_BracketMean(t *testing.T) {
	svc := NewService()
	series := risingSeries(60)

	upper, err := svc.Calculate("BOLL_UP", "close", series, 59, 20, 2)
	require.NoError(t, err)
	lower, err := svc.Calculate("BOLL_LOW", "close", series, 59, 20, 2)
	require.NoError(t, err)
	mean, err := svc.Calculate("SMA", "close", series, 59, 20)
	require.NoError(t, err)

	assert.Greater(t, upper, mean)
	assert.Less(t, lower, mean)
	assert.InDelta(t, mean, (upper+lower)/2, 1e-9)
}

func TestMomentumAndROC(t *testing.T) {
	svc := NewService()
	series := risingSeries(30)

	mom, err := svc.Calculate("MOM", "close", series, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 10, mom, 1e-9)

	roc, err := svc.Calculate("ROC", "close", series, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0/110.0*100.0, roc, 1e-9)
}
