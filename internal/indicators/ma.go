package indicators

// Moving averages evaluated at a single bar index. When history is too
// short the calculators return 0, the neutral value rules treat as
// "not yet formed" rather than an error, so warm-up bars never fire.

// smaAt computes the simple moving average of the window ending at index.
func smaAt(series []float64, index int, args []float64) (float64, error) {
	window := int(args[0])
	if index < window-1 {
		return 0, nil
	}
	sum := 0.0
	for i := index - window + 1; i <= index; i++ {
		sum += series[i]
	}
	return sum / float64(window), nil
}

// emaAt computes the exponential moving average over [0, index] with
// smoothing 2/(span+1), seeded with the first value.
func emaAt(series []float64, index int, args []float64) (float64, error) {
	span := int(args[0])
	if index < span-1 {
		return 0, nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ema := series[0]
	for i := 1; i <= index; i++ {
		ema = alpha*series[i] + (1-alpha)*ema
	}
	return ema, nil
}

// wmaAt computes the linearly weighted moving average of the window
// ending at index, with the most recent bar weighted highest.
func wmaAt(series []float64, index int, args []float64) (float64, error) {
	window := int(args[0])
	if index < window-1 {
		return 0, nil
	}
	var sum, weightSum float64
	for i := 0; i < window; i++ {
		weight := float64(i + 1)
		sum += series[index-window+1+i] * weight
		weightSum += weight
	}
	return sum / weightSum, nil
}

// momAt returns the absolute price change over the lookback period.
func momAt(series []float64, index int, args []float64) (float64, error) {
	period := int(args[0])
	if index < period {
		return 0, nil
	}
	return series[index] - series[index-period], nil
}

// rocAt returns the percentage rate of change over the lookback period.
func rocAt(series []float64, index int, args []float64) (float64, error) {
	period := int(args[0])
	if index < period {
		return 0, nil
	}
	base := series[index-period]
	if base == 0 {
		return 0, nil
	}
	return (series[index] - base) / base * 100, nil
}
