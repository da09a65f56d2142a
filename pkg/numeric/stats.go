// Package numeric provides the shared numerical backend for the forecasting
// core: accuracy metrics, a normal quantile function, log-likelihood and
// information criteria, least-squares/Cholesky linear algebra, a bounded
// nonlinear optimizer, and Siegel repeated-medians regression.
//
// The linear-algebra and optimization pieces are backed by
// gonum.org/v1/gonum (the numeric backend called for in spec.md §6), the
// library the retrieval pack pulls in (HerbHall-subnetree's go.mod). The
// teacher itself hand-rolls this math (pkg/prediction, pkg/anomaly); where
// the teacher's own style is the better fit (plain mean/variance helpers,
// grid search) that style is kept instead of reaching for gonum.
package numeric

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean of data, 0 for an empty slice.
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

// Variance returns the population variance of data (n denominator), as used
// by the teacher's decomposition-strength calculations.
func Variance(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	mean := Mean(data)
	var sumSq float64
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(n)
}

// SampleStdDev returns the sample standard deviation (n-1 denominator).
func SampleStdDev(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	mean := Mean(data)
	var sumSq float64
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// NormalQuantile returns the p-quantile of the standard normal distribution,
// used for Gaussian prediction-interval z-values (spec.md §4.1's default
// confidence level and §4.4's band formula).
func NormalQuantile(p float64) float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1}
	return n.Quantile(p)
}

// ZForConfidence converts a two-sided confidence level in (0,1) (e.g. 0.90)
// to the corresponding z critical value.
func ZForConfidence(level float64) float64 {
	return NormalQuantile(0.5 + level/2)
}

// LogLikelihoodGaussian returns the Gaussian log-likelihood of residuals
// given their own maximum-likelihood variance estimate sigma2 = SSE/n, used
// by ETS (spec.md §4.3) and ARIMA (spec.md §4.4) fitting.
func LogLikelihoodGaussian(residuals []float64, sigma2 float64) float64 {
	n := float64(len(residuals))
	if n == 0 || sigma2 <= 0 {
		return math.Inf(-1)
	}
	var sse float64
	for _, r := range residuals {
		sse += r * r
	}
	return -0.5 * (n*math.Log(2*math.Pi*sigma2) + sse/sigma2)
}

// AIC returns the Akaike information criterion: -2*LL + 2*k.
func AIC(logLikelihood float64, k int) float64 {
	return -2*logLikelihood + 2*float64(k)
}

// AICc returns the corrected AIC: AIC + 2k(k+1)/(n-k-1). It returns +Inf
// when the correction term is undefined (n <= k+1), signalling the
// candidate should not be selected on small samples.
func AICc(logLikelihood float64, k, n int) float64 {
	denom := float64(n - k - 1)
	if denom <= 0 {
		return math.Inf(1)
	}
	aic := AIC(logLikelihood, k)
	return aic + 2*float64(k)*float64(k+1)/denom
}

// BIC returns the Bayesian information criterion: -2*LL + k*ln(n).
func BIC(logLikelihood float64, k, n int) float64 {
	return -2*logLikelihood + float64(k)*math.Log(float64(n))
}
