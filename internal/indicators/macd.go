package indicators

// macdAt computes the MACD histogram (MACD line minus signal line) at a
// single bar index with fast/slow/signal spans. While there is enough
// history for the line but not yet for the signal, the raw line value
// is returned; before that, 0.
func macdAt(series []float64, index int, args []float64) (float64, error) {
	fast, slow, signal := int(args[0]), int(args[1]), int(args[2])

	lineWarmup := max(fast, slow)
	if index < max(lineWarmup, signal) {
		return 0, nil
	}

	macdLine := func(i int) float64 {
		fastEMA := emaPrefix(series, i, fast)
		slowEMA := emaPrefix(series, i, slow)
		return fastEMA - slowEMA
	}

	line := macdLine(index)
	if index < lineWarmup+signal-1 {
		return line, nil
	}

	// Signal line: EMA of the MACD line over the signal span.
	alpha := 2.0 / (float64(signal) + 1.0)
	signalLine := macdLine(index - signal + 1)
	for i := index - signal + 2; i <= index; i++ {
		signalLine = alpha*macdLine(i) + (1-alpha)*signalLine
	}

	return line - signalLine, nil
}

// emaPrefix computes a recursive EMA over series[0..index].
func emaPrefix(series []float64, index, span int) float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	ema := series[0]
	for i := 1; i <= index; i++ {
		ema = alpha*series[i] + (1-alpha)*ema
	}
	return ema
}
