package mfles

import "github.com/aouyang1-labs/forecastcore/pkg/numeric"

// medianComponent computes MFLES's median step (spec.md §4.8): a single
// global median broadcast across every index when no seasonal period is
// configured, or a centered windowed median (window = the primary seasonal
// period) otherwise. Grounded on the teacher's
// pkg/prediction/decomposition.go MedianSmooth, generalized from a fixed
// window to the global-vs-windowed choice MFLES needs.
func medianComponent(residual []float64, period int) []float64 {
	n := len(residual)
	out := make([]float64, n)
	if period <= 1 {
		v := numeric.Median(residual)
		for i := range out {
			out[i] = v
		}
		return out
	}
	half := period / 2
	for i := 0; i < n; i++ {
		start := i - half
		end := i + half + 1
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		out[i] = numeric.Median(residual[start:end])
	}
	return out
}

// windowedMean is the teacher's centered moving-average window
// (decomposition.go's Smooth), reused here as MFLES's moving-average
// residual smoother.
func windowedMean(data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		start := i - half
		end := i + half + 1
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		var sum float64
		for j := start; j < end; j++ {
			sum += data[j]
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// trailingMean averages the last window observations, the causal estimate
// MFLES's moving-average smoother continues forward into the forecast.
func trailingMean(data []float64, window int) float64 {
	n := len(data)
	if window > n {
		window = n
	}
	return numeric.Mean(data[n-window:])
}

// esOneStepFitted runs the plain level-only SES recurrence, returning the
// one-step-ahead prediction at each index (fitted[t] is the level before
// seeing data[t]) and the terminal level after the final update — the
// constant MFLES continues forward as its ES-ensemble forecast contribution.
func esOneStepFitted(data []float64, alpha float64) (fitted []float64, terminalLevel float64) {
	n := len(data)
	fitted = make([]float64, n)
	level := data[0]
	fitted[0] = level
	for t := 1; t < n; t++ {
		fitted[t] = level
		level += alpha * (data[t] - level)
	}
	return fitted, level
}

// linspace returns count values evenly spaced in [lo, hi], count >= 1.
func linspace(lo, hi float64, count int) []float64 {
	if count <= 1 {
		return []float64{lo}
	}
	out := make([]float64, count)
	step := (hi - lo) / float64(count-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}
