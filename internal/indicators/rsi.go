package indicators

import "math"

// rsiAt computes the Relative Strength Index at a single bar index
// using the simple average of gains and losses over the last period
// deltas. Before enough history exists the neutral 50 is returned so
// warm-up bars neither look oversold nor overbought.
func rsiAt(series []float64, index int, args []float64) (float64, error) {
	period := int(args[0])
	if index < period {
		return 50, nil
	}

	var avgGain, avgLoss float64
	for i := index - period + 1; i <= index; i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += math.Abs(change)
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}
