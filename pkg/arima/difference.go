// Package arima implements SARIMA(p,d,q)(P,D,Q)_s with conditional-MLE
// fitting (spec.md §4.4). The AutoARIMA order search lives in
// pkg/autoarima.
//
// Grounded on the teacher's holt_winters.go grid-search-then-refine
// optimize shape (generalized to a bounded grid + Nelder-Mead search over
// AR/MA coefficients via pkg/numeric.GridThenNelderMead).
package arima

import "github.com/aouyang1-labs/forecastcore/pkg/errkit"

// Difference applies d iterated first differences, returning the
// differenced series of length n-d.
func Difference(y []float64, d int) []float64 {
	out := append([]float64(nil), y...)
	for i := 0; i < d; i++ {
		out = firstDifference(out)
	}
	return out
}

func firstDifference(y []float64) []float64 {
	if len(y) == 0 {
		return nil
	}
	out := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		out[i-1] = y[i] - y[i-1]
	}
	return out
}

// Integrate inverts Difference(y, d): given the differenced series and the
// first d values of the original series, it reconstructs the original.
func Integrate(diffed []float64, seed []float64, d int) ([]float64, error) {
	if len(seed) != d {
		return nil, errkit.New(errkit.InvalidInput, "arima: integrate needs exactly d=%d seed values, got %d", d, len(seed))
	}
	if d == 0 {
		return append([]float64(nil), diffed...), nil
	}

	// Recursively peel one order of differencing at a time, innermost
	// first: to invert Difference(y,d) we need the d-1 th difference's
	// first value, which is itself produced by differencing the original
	// seed chain d-1 times.
	seedChain := make([][]float64, d+1)
	seedChain[0] = seed
	for i := 1; i <= d; i++ {
		seedChain[i] = firstDifference(seedChain[i-1])
	}

	cur := diffed
	for i := d - 1; i >= 0; i-- {
		first := seedChain[i][0]
		cur = integrateOnce(cur, first)
	}
	return cur, nil
}

func integrateOnce(diffed []float64, first float64) []float64 {
	out := make([]float64, len(diffed)+1)
	out[0] = first
	for i, d := range diffed {
		out[i+1] = out[i] + d
	}
	return out
}

// SeasonalDifference applies D-fold lag-s differences.
func SeasonalDifference(y []float64, D, s int) []float64 {
	out := append([]float64(nil), y...)
	for i := 0; i < D; i++ {
		out = seasonalDifferenceOnce(out, s)
	}
	return out
}

func seasonalDifferenceOnce(y []float64, s int) []float64 {
	if len(y) <= s {
		return nil
	}
	out := make([]float64, len(y)-s)
	for i := s; i < len(y); i++ {
		out[i-s] = y[i] - y[i-s]
	}
	return out
}

// SeasonalIntegrate inverts SeasonalDifference(y, D, s): seed must hold the
// first D*s values of the original series (the D seasonal-differencing
// passes' seed chain).
func SeasonalIntegrate(diffed []float64, seed []float64, D, s int) ([]float64, error) {
	if len(seed) != D*s {
		return nil, errkit.New(errkit.InvalidInput, "arima: seasonal integrate needs D*s=%d seed values, got %d", D*s, len(seed))
	}
	if D == 0 {
		return append([]float64(nil), diffed...), nil
	}

	seedChain := make([][]float64, D+1)
	seedChain[0] = seed
	for i := 1; i <= D; i++ {
		seedChain[i] = seasonalDifferenceOnce(seedChain[i-1], s)
	}

	cur := diffed
	for i := D - 1; i >= 0; i-- {
		firstS := seedChain[i][:s]
		cur = seasonalIntegrateOnce(cur, firstS, s)
	}
	return cur, nil
}

func seasonalIntegrateOnce(diffed []float64, firstS []float64, s int) []float64 {
	out := make([]float64, len(diffed)+s)
	copy(out, firstS)
	for i, d := range diffed {
		out[i+s] = out[i] + d
	}
	return out
}

// CombinedDifference applies non-seasonal differencing of order d followed
// by seasonal differencing of order D at period s.
func CombinedDifference(y []float64, d, D, s int) []float64 {
	return SeasonalDifference(Difference(y, d), D, s)
}
