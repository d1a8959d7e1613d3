package anomaly

import "math"

// Stats returns the population mean and standard deviation of values.
// Both are 0 for an empty slice.
func Stats(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	stdDev = math.Sqrt(sumSquares / float64(len(values)))
	return mean, stdDev
}

// ZScore standardises value against a baseline. A zero deviation is treated
// as 1 so a flat baseline still yields a finite score.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		stdDev = 1
	}
	return (value - mean) / stdDev
}

// Severity labels a z-score. Under-performers are Mild, Moderate or Severe;
// over-performers are Notable, Strong or Exceptional.
func Severity(z float64, dir Direction) string {
	abs := math.Abs(z)
	switch {
	case abs > 2.5:
		if dir == Over {
			return "Exceptional"
		}
		return "Severe"
	case abs > 2:
		if dir == Over {
			return "Strong"
		}
		return "Moderate"
	default:
		if dir == Over {
			return "Notable"
		}
		return "Mild"
	}
}
