package series

import "math"

// MinValidSamples returns the minimum count of valid observations a
// rolling window must hold before a z-score is defined: max(4, W/4).
func MinValidSamples(window int) int {
	if m := window / 4; m > 4 {
		return m
	}
	return 4
}

// RollingZScore computes, for each position, the z-score of the value
// against the mean and sample standard deviation of the trailing
// `window` samples (current value included). A position is NaN when the
// value itself is missing, when the window holds fewer than
// MinValidSamples(window) valid observations, or when the windowed
// standard deviation is zero — a zero-variance window is undefined, not
// coerced to zero. A nil or empty input is returned unchanged.
func RollingZScore(values []float64, window int) []float64 {
	if len(values) == 0 || window <= 0 {
		return values
	}
	minValid := MinValidSamples(window)

	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		var sum float64
		n := 0
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				n++
			}
		}
		if n < minValid || math.IsNaN(values[i]) {
			out[i] = math.NaN()
			continue
		}

		mean := sum / float64(n)
		var sq float64
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				d := values[j] - mean
				sq += d * d
			}
		}
		// Sample standard deviation (n-1 denominator).
		sd := math.Sqrt(sq / float64(n-1))
		if sd == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - mean) / sd
	}
	return out
}
