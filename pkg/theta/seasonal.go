package theta

import "github.com/aouyang1-labs/forecastcore/pkg/numeric"

// seasonalityThreshold is the autocorrelation-at-lag-s significance cutoff
// that gates deseasonalization (spec.md §4.7). Grounded on the teacher's
// pkg/prediction/decomposition.go's DetectSeasonalPeriod, which treats
// acf[lag] > 0.3 as a significant seasonal peak.
const seasonalityThreshold = 0.3

// autocorrelationAtLag returns the sample autocorrelation of y at the given
// lag, 0 when there isn't enough data to evaluate it.
func autocorrelationAtLag(y []float64, lag int) float64 {
	n := len(y)
	if lag <= 0 || lag >= n {
		return 0
	}
	mean := numeric.Mean(y)
	var num, den float64
	for i := 0; i < n; i++ {
		d := y[i] - mean
		den += d * d
	}
	for i := 0; i < n-lag; i++ {
		num += (y[i] - mean) * (y[i+lag] - mean)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// seasonalityFires reports whether season-length s autocorrelation clears
// seasonalityThreshold, the test spec.md §4.7 gates deseasonalization on.
func seasonalityFires(y []float64, season int) bool {
	if season <= 1 || len(y) < 2*season {
		return false
	}
	return autocorrelationAtLag(y, season) > seasonalityThreshold
}

// allPositive is the positivity test spec.md §4.7 uses to pick additive vs.
// multiplicative decomposition.
func allPositive(y []float64) bool {
	for _, v := range y {
		if v <= 0 {
			return false
		}
	}
	return true
}

// seasonalComponent holds the seasonal indices extracted from y and whether
// they combine additively or multiplicatively.
type seasonalComponent struct {
	indices        []float64
	multiplicative bool
	period         int
}

// extractSeasonalComponent detrends y with a centered moving average and
// averages the detrended residual by seasonal phase, normalizing the result
// to center-at-zero (additive) or average-to-one (multiplicative). Grounded
// on the teacher's pkg/prediction/decomposition.go calculateTrend (centered
// moving average) and calculateSeasonalPattern (phase averaging plus
// normalization by decomposition type).
func extractSeasonalComponent(y []float64, period int) seasonalComponent {
	multiplicative := allPositive(y)
	n := len(y)
	trend := centeredMovingAverage(y, period)

	detrended := make([]float64, n)
	for i := range y {
		if multiplicative && trend[i] != 0 {
			detrended[i] = y[i] / trend[i]
		} else if multiplicative {
			detrended[i] = 1
		} else {
			detrended[i] = y[i] - trend[i]
		}
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		pos := i % period
		pattern[pos] += detrended[i]
		counts[pos]++
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	var sum float64
	for _, v := range pattern {
		sum += v
	}
	avg := sum / float64(period)
	if multiplicative {
		if avg != 0 {
			for i := range pattern {
				pattern[i] /= avg
			}
		}
	} else {
		for i := range pattern {
			pattern[i] -= avg
		}
	}

	return seasonalComponent{indices: pattern, multiplicative: multiplicative, period: period}
}

// centeredMovingAverage is the teacher's windowed trend extraction
// (decomposition.go's calculateTrend), window = period, truncated at the
// series edges.
func centeredMovingAverage(y []float64, period int) []float64 {
	n := len(y)
	out := make([]float64, n)
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
		var sum float64
		count := 0
		for j := start; j < end; j++ {
			sum += y[j]
			count++
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// deseasonalize removes sc from y at each index's phase.
func (sc seasonalComponent) deseasonalize(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		idx := sc.indices[i%sc.period]
		if sc.multiplicative {
			if idx == 0 {
				out[i] = v
				continue
			}
			out[i] = v / idx
		} else {
			out[i] = v - idx
		}
	}
	return out
}

// reseasonalizeFitted reapplies sc to a deseasonalized fitted trace aligned
// to the original series.
func (sc seasonalComponent) reseasonalizeFitted(fitted []float64) []float64 {
	out := make([]float64, len(fitted))
	for i, v := range fitted {
		idx := sc.indices[i%sc.period]
		if sc.multiplicative {
			out[i] = v * idx
		} else {
			out[i] = v + idx
		}
	}
	return out
}

// reseasonalizeForecast reapplies sc to an h-step-ahead forecast, continuing
// the phase cycle from the end of the training series (length n).
func (sc seasonalComponent) reseasonalizeForecast(point []float64, n int) []float64 {
	out := make([]float64, len(point))
	for i, v := range point {
		idx := sc.indices[(n+i)%sc.period]
		if sc.multiplicative {
			out[i] = v * idx
		} else {
			out[i] = v + idx
		}
	}
	return out
}
