package mstl

import "github.com/aouyang1-labs/forecastcore/pkg/outlier"

// backfit runs the STL-style backfitting outer loop: for each configured
// period, in turn, subtract the trend and every other period's current
// seasonal estimate from y, extract that period's seasonal component from
// what's left, then re-estimate the overall trend from y minus the sum of
// all seasonal components. Repeated for iterations rounds.
//
// Grounded on decomposition.go's single-period Decompose (trend via
// centered moving average, seasonal via phase averaging of the detrended
// series) generalized to: (1) more than one period, each fit in its own
// inner pass against the others' current residual contribution, and (2) a
// per-phase subseries smoothing step (extractSeasonalComponent below) so
// the seasonal component is not a single frozen cycle.
func backfit(y []float64, periods []int, iterations int, robust bool) (seasonal map[int][]float64, trend []float64) {
	n := len(y)
	seasonal = make(map[int][]float64, len(periods))
	for _, p := range periods {
		seasonal[p] = make([]float64, n)
	}
	trend = make([]float64, n)

	for iter := 0; iter < iterations; iter++ {
		for _, p := range periods {
			working := make([]float64, n)
			for i := range y {
				s := 0.0
				for _, q := range periods {
					if q == p {
						continue
					}
					s += seasonal[q][i]
				}
				working[i] = y[i] - trend[i] - s
			}
			if robust {
				working = outlier.IQRCap(working, 1.5)
			}
			seasonal[p] = extractSeasonalComponent(working, p)
		}

		deseasonalized := make([]float64, n)
		for i := range y {
			s := 0.0
			for _, p := range periods {
				s += seasonal[p][i]
			}
			deseasonalized[i] = y[i] - s
		}
		trend = centeredMovingAverage(deseasonalized, trendWindow(periods))
	}
	return seasonal, trend
}

// trendWindow picks the centered moving-average window decomposition.go
// uses for the trend pass: the largest configured period, forced odd for
// a symmetric window; 7 when no period is configured.
func trendWindow(periods []int) int {
	w := 7
	if len(periods) > 0 {
		w = periods[len(periods)-1]
	}
	if w%2 == 0 {
		w++
	}
	return w
}

// extractSeasonalComponent estimates a time-varying seasonal component at
// the given period from a deseasonalized-of-others working series: each
// phase's subseries (the values period apart) is smoothed across cycles,
// then a low-pass filter (three centered moving averages, the standard
// STL low-pass chain) removes any trend-like leakage that smoothing left
// in the result.
func extractSeasonalComponent(working []float64, period int) []float64 {
	n := len(working)
	raw := subseriesSmooth(working, period)
	lowPass := centeredMovingAverage(centeredMovingAverage(centeredMovingAverage(raw, period), period), 3)
	out := make([]float64, n)
	for i := range out {
		out[i] = raw[i] - lowPass[i]
	}
	return out
}

// subseriesSmooth groups working by phase (index mod period) and applies
// a short centered moving average across cycles within each phase, so the
// seasonal estimate can drift slowly instead of being a single fixed
// cycle.
func subseriesSmooth(working []float64, period int) []float64 {
	n := len(working)
	out := make([]float64, n)
	for phase := 0; phase < period; phase++ {
		var cycle []float64
		var idx []int
		for i := phase; i < n; i += period {
			cycle = append(cycle, working[i])
			idx = append(idx, i)
		}
		smoothed := centeredMovingAverage(cycle, subseriesWindow(len(cycle)))
		for k, i := range idx {
			out[i] = smoothed[k]
		}
	}
	return out
}

// subseriesWindow keeps the cross-cycle smoothing window odd and no
// larger than 5 cycles, falling back to 1 (no smoothing) when too few
// cycles are available.
func subseriesWindow(cycles int) int {
	switch {
	case cycles >= 5:
		return 5
	case cycles >= 3:
		return 3
	default:
		return 1
	}
}

// centeredMovingAverage is decomposition.go's calculateTrend: a symmetric
// window average, truncated at the series edges.
func centeredMovingAverage(data []float64, window int) []float64 {
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
