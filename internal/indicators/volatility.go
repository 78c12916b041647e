package indicators

import "math"

// stdAt computes the population standard deviation of the window ending
// at index.
func stdAt(series []float64, index int, args []float64) (float64, error) {
	window := int(args[0])
	if index < window-1 {
		return 0, nil
	}
	mean, err := smaAt(series, index, args[:1])
	if err != nil {
		return 0, err
	}
	variance := 0.0
	for i := index - window + 1; i <= index; i++ {
		diff := series[i] - mean
		variance += diff * diff
	}
	variance /= float64(window)
	return math.Sqrt(variance), nil
}

// bollUpperAt computes the upper Bollinger band: SMA + k*stddev.
func bollUpperAt(series []float64, index int, args []float64) (float64, error) {
	return bollBandAt(series, index, args, +1)
}

// bollLowerAt computes the lower Bollinger band: SMA - k*stddev.
func bollLowerAt(series []float64, index int, args []float64) (float64, error) {
	return bollBandAt(series, index, args, -1)
}

func bollBandAt(series []float64, index int, args []float64, sign float64) (float64, error) {
	window, k := args[0], args[1]
	if index < int(window)-1 {
		return 0, nil
	}
	mean, err := smaAt(series, index, []float64{window})
	if err != nil {
		return 0, err
	}
	sd, err := stdAt(series, index, []float64{window})
	if err != nil {
		return 0, err
	}
	return mean + sign*k*sd, nil
}
