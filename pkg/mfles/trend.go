package mfles

import "github.com/aouyang1-labs/forecastcore/pkg/numeric"

// fitTrend fits one of MFLES's three trend methods (spec.md §4.8) to
// residual, returning the in-sample fit plus the (intercept, slope) pair a
// linear projector continues forward with. All three methods resolve to a
// linear projector: OLS/Siegel fit one directly; Piecewise "projects from
// the last active segment" (spec.md §4.8), i.e. that segment's own
// (intercept, slope).
func fitTrend(method TrendMethod, residual []float64) (fitted []float64, slope, intercept float64, err error) {
	switch method {
	case TrendSiegel:
		return fitSiegelTrend(residual)
	case TrendPiecewise:
		return fitPiecewiseTrend(residual)
	default:
		return fitOLSTrend(residual)
	}
}

func timeIndex(n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i + 1) // 1-indexed, matching the Fourier projection's (n+tau) convention
	}
	return t
}

func fitOLSTrend(residual []float64) (fitted []float64, slope, intercept float64, err error) {
	n := len(residual)
	t := timeIndex(n)
	design := numeric.DesignMatrix(n, t)
	beta, err := numeric.OLS(design, residual)
	if err != nil {
		return nil, 0, 0, err
	}
	intercept, slope = beta[0], beta[1]
	return numeric.Predict(design, beta), slope, intercept, nil
}

func fitSiegelTrend(residual []float64) (fitted []float64, slope, intercept float64, err error) {
	n := len(residual)
	t := timeIndex(n)
	slope, intercept = numeric.SiegelRegression(t, residual)
	fitted = make([]float64, n)
	for i, x := range t {
		fitted[i] = intercept + slope*x
	}
	return fitted, slope, intercept, nil
}

// fitPiecewiseTrend approximates "Piecewise with LASSO-selected
// changepoints" (spec.md §4.8). No example repo in the retrieved pack
// carries a LASSO solver, so segment count is instead chosen by fitting
// every count from 1 to min(n/8, 6) as equal-length segments and keeping the
// lowest-BIC fit, fitting each segment with pkg/numeric.OLS (documented in
// DESIGN.md). The
// forecast projector uses the last segment's own slope/intercept, per
// spec.md §4.8's "projects from the last active segment".
func fitPiecewiseTrend(residual []float64) (fitted []float64, slope, intercept float64, err error) {
	n := len(residual)
	maxSegments := n / 8
	if maxSegments < 1 {
		maxSegments = 1
	}
	if maxSegments > 6 {
		maxSegments = 6
	}

	bestBIC := 0.0
	var bestFitted []float64
	var bestSlope, bestIntercept float64
	haveBest := false

	for segments := 1; segments <= maxSegments; segments++ {
		candidateFitted, lastSlope, lastIntercept, ok := fitSegments(residual, segments)
		if !ok {
			continue
		}
		var sse float64
		for i, f := range candidateFitted {
			d := residual[i] - f
			sse += d * d
		}
		sigma2 := sse / float64(n)
		if sigma2 <= 0 {
			sigma2 = 1e-12
		}
		ll := numeric.LogLikelihoodGaussian(subtract(residual, candidateFitted), sigma2)
		bic := numeric.BIC(ll, 2*segments, n)
		if !haveBest || bic < bestBIC {
			haveBest = true
			bestBIC = bic
			bestFitted = candidateFitted
			bestSlope, bestIntercept = lastSlope, lastIntercept
		}
	}
	if !haveBest {
		return fitOLSTrend(residual)
	}
	return bestFitted, bestSlope, bestIntercept, nil
}

// fitSegments splits residual into `segments` contiguous, equally sized
// blocks and fits an independent OLS line to each, returning the stitched
// fit plus the final segment's own (slope, intercept).
func fitSegments(residual []float64, segments int) (fitted []float64, slope, intercept float64, ok bool) {
	n := len(residual)
	blockLen := n / segments
	if blockLen < 3 {
		return nil, 0, 0, false
	}
	fitted = make([]float64, n)
	for s := 0; s < segments; s++ {
		start := s * blockLen
		end := start + blockLen
		if s == segments-1 {
			end = n
		}
		seg := residual[start:end]
		t := make([]float64, len(seg))
		for i := range t {
			t[i] = float64(start + i + 1) // global 1-indexed time, matching timeIndex's convention
		}
		design := numeric.DesignMatrix(len(seg), t)
		beta, err := numeric.OLS(design, seg)
		if err != nil {
			return nil, 0, 0, false
		}
		segFitted := numeric.Predict(design, beta)
		copy(fitted[start:end], segFitted)
		intercept, slope = beta[0], beta[1]
	}
	return fitted, slope, intercept, true
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// rSquared is 1 - SSE/SST of fitted against actual, the definition spec.md
// §9's Open Question resolves the trend penalty to: "R² on the fitted-vs-
// raw-residual for whichever trend fit is selected."
func rSquared(actual, fitted []float64) float64 {
	mean := numeric.Mean(actual)
	var sse, sst float64
	for i, a := range actual {
		d := a - fitted[i]
		sse += d * d
		m := a - mean
		sst += m * m
	}
	if sst == 0 {
		return 0
	}
	return 1 - sse/sst
}
