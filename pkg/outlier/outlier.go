// Package outlier provides the robust-statistics bound helpers used by
// MFLES's outlier-capping boosting step and by MSTL's robust mode.
// Adapted from the teacher's pkg/anomaly Z-score and IQR detectors, stripped
// of their Kubernetes-specific Anomaly/Severity vocabulary down to the pure
// bound math.
package outlier

import (
	"math"
	"sort"
)

// ZScoreBounds returns [mean - sigma*std, mean + sigma*std] for data, the
// same bound computation as the teacher's ZScoreDetector.DetectWithTimestamps,
// using the sample standard deviation (n-1 denominator).
func ZScoreBounds(data []float64, sigma float64) (lower, upper float64) {
	mean := Mean(data)
	std := StdDev(data, mean)
	return mean - sigma*std, mean + sigma*std
}

// ZScoreCap clips every value in data to [mean - sigma*std, mean + sigma*std],
// returning a new slice (the input is left untouched, matching the
// value-copy discipline the rest of the core uses on caller-supplied data).
func ZScoreCap(data []float64, sigma float64) []float64 {
	lower, upper := ZScoreBounds(data, sigma)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = clip(v, lower, upper)
	}
	return out
}

// IQRBounds returns [Q1 - mult*IQR, Q3 + mult*IQR], the same bound
// computation as the teacher's IQRDetector, using linear-interpolation
// quartiles over a sorted copy of data.
func IQRBounds(data []float64, mult float64) (lower, upper float64) {
	if len(data) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - mult*iqr, q3 + mult*iqr
}

// IQRCap clips every value in data to its IQR bounds.
func IQRCap(data []float64, mult float64) []float64 {
	lower, upper := IQRBounds(data, mult)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = clip(v, lower, upper)
	}
	return out
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

// percentile computes the p-quantile (0<=p<=1) of an already-sorted slice
// using linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Mean calculates the arithmetic mean of data.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StdDev calculates the sample standard deviation of data given its mean.
func StdDev(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}
