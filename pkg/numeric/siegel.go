package numeric

import "sort"

// SiegelRegression fits y = slope*x + intercept using Siegel's repeated
// medians estimator: a robust linear regression with a 50% breakdown point,
// immune to the single-point trend blowouts that ordinary least squares
// suffers from. Used as the robust alternative to OLS trend estimation in
// MFLES's trend boosting step (spec.md §4.7's "ols" vs "siegel" trend
// methods).
//
// Generalizes the teacher's decomposition.go linearRegression (an OLS-only
// two-variable solve) by adding the robust estimator the teacher never
// needed for cluster-metric decomposition but the spec requires.
func SiegelRegression(x, y []float64) (slope, intercept float64) {
	n := len(x)
	if n < 2 {
		if n == 1 {
			return 0, y[0]
		}
		return 0, 0
	}

	slopes := make([]float64, n)
	pairSlopes := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		pairSlopes = pairSlopes[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dx := x[j] - x[i]
			if dx == 0 {
				continue
			}
			pairSlopes = append(pairSlopes, (y[j]-y[i])/dx)
		}
		if len(pairSlopes) == 0 {
			slopes[i] = 0
			continue
		}
		slopes[i] = median(pairSlopes)
	}
	slope = median(slopes)

	intercepts := make([]float64, n)
	for i := range x {
		intercepts[i] = y[i] - slope*x[i]
	}
	intercept = median(intercepts)
	return slope, intercept
}

// median returns the median of data, leaving the input slice's order
// undisturbed by sorting a copy.
func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Median is the exported form of median, used by MFLES's median boosting
// step and windowed-median component (spec.md §4.7).
func Median(data []float64) float64 {
	return median(data)
}
