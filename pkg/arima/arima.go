package arima

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// Order is a SARIMA(p,d,q)(P,D,Q)_s order specification (spec.md §4.4).
type Order struct {
	P, D, Q                         int
	SeasonalP, SeasonalD, SeasonalQ int
	Season                          int
	Intercept                       bool
}

func (o Order) totalAR() int { return o.P + o.SeasonalP*o.Season }
func (o Order) totalMA() int { return o.Q + o.SeasonalQ*o.Season }

func (o Order) offset() int { return o.D + o.SeasonalD*o.Season }

// FitDiagnostics mirrors pkg/ets's diagnostics shape for ARIMA's
// conditional-MLE fit.
type FitDiagnostics struct {
	SSE            float64
	Sigma2         float64
	LogLikelihood  float64
	SampleSize     int
	FreeParameters int
}

// Model is a fitted SARIMA(p,d,q)(P,D,Q)_s model (spec.md §4.4).
type Model struct {
	name  string
	order Order

	history []float64 // original y, training scale
	diffed  []float64 // combined-differenced w, training scale

	arCoef []float64 // combined AR coefficients, length totalAR()
	maCoef []float64 // combined MA coefficients, length totalMA()
	mu     float64

	residual []float64 // residuals on the w scale, aligned to diffed
	fitted   []float64 // fitted values on the y scale, NaN-padded for presample
	diag     FitDiagnostics

	isFitted bool
}

// New constructs an unfitted model with an explicit order (used directly,
// or as AutoARIMA's per-candidate builder).
func New(order Order) *Model {
	return &Model{name: "ARIMA", order: order}
}

// NewWithName is New but with an overridable model name, used by AutoARIMA
// to refit the winning order under the "AutoARIMA" label.
func NewWithName(order Order, name string) *Model {
	return &Model{name: name, order: order}
}

func (m *Model) Name() string { return m.name }

func (m *Model) Order() Order { return m.order }

func (m *Model) Diagnostics() FitDiagnostics { return m.diag }

// Fit runs conditional-MLE estimation of the AR/MA coefficients (and,
// if Order.Intercept, a mean/drift term) via a bounded grid-then-Nelder-Mead
// search over the combined AR/MA polynomial, rejecting any candidate whose
// characteristic polynomial has a root inside the unit disk (spec.md §4.4).
func (m *Model) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "arima: model requires a univariate series")
	}
	y := ts.Values()
	o := m.order
	minLen := o.D + o.SeasonalD*o.Season + o.totalAR() + o.totalMA() + 1
	if len(y) < minLen {
		return errkit.New(errkit.InsufficientData,
			"arima: need at least %d observations for order %+v, got %d", minLen, o, len(y))
	}

	w := CombinedDifference(y, o.D, o.SeasonalD, o.Season)
	if len(w) < o.totalAR()+o.totalMA()+1 {
		return errkit.New(errkit.InsufficientData, "arima: too few observations remain after differencing")
	}

	nAR, nMA := o.totalAR(), o.totalMA()
	nFree := nAR + nMA
	if o.Intercept {
		nFree++
	}

	var arCoef, maCoef []float64
	var mu float64
	var sse float64

	if nFree == 0 {
		arCoef, maCoef = nil, nil
		mu = 0
		_, sse = conditionalResiduals(w, nil, nil, 0)
	} else {
		bounds := make([]numeric.Bounds, 0, nFree)
		for i := 0; i < nAR+nMA; i++ {
			bounds = append(bounds, numeric.Bounds{Lo: -0.98, Hi: 0.98})
		}
		if o.Intercept {
			lo, hi := interceptBounds(w)
			bounds = append(bounds, numeric.Bounds{Lo: lo, Hi: hi})
		}

		objective := func(x []float64) float64 {
			ar := append([]float64(nil), x[:nAR]...)
			ma := append([]float64(nil), x[nAR:nAR+nMA]...)
			cmu := 0.0
			if o.Intercept {
				cmu = x[nAR+nMA]
			}
			if !stationaryAndInvertible(ar, ma) {
				return 1e18
			}
			_, s := conditionalResiduals(w, ar, ma, cmu)
			return s / float64(len(w))
		}

		result := numeric.GridThenNelderMead(objective, bounds, 4, 300)
		arCoef = append([]float64(nil), result.X[:nAR]...)
		maCoef = append([]float64(nil), result.X[nAR:nAR+nMA]...)
		if o.Intercept {
			mu = result.X[nAR+nMA]
		}
		_, sse = conditionalResiduals(w, arCoef, maCoef, mu)
	}

	resid, _ := conditionalResiduals(w, arCoef, maCoef, mu)
	n := len(w)
	sigma2 := sse / float64(n)
	if sigma2 <= 0 {
		sigma2 = 1e-12
	}
	ll := numeric.LogLikelihoodGaussian(resid, sigma2)

	m.history = append([]float64(nil), y...)
	m.diffed = w
	m.arCoef = arCoef
	m.maCoef = maCoef
	m.mu = mu
	m.residual = resid
	m.diag = FitDiagnostics{
		SSE:            sse,
		Sigma2:         sigma2,
		LogLikelihood:  ll,
		SampleSize:     n,
		FreeParameters: nFree + 1, // + sigma2
	}

	offset := o.offset()
	fitted := make([]float64, len(y))
	for i := 0; i < offset && i < len(fitted); i++ {
		fitted[i] = math.NaN()
	}
	for t, e := range resid {
		fitted[t+offset] = y[t+offset] - e
	}
	m.fitted = fitted
	m.isFitted = true
	return nil
}

// conditionalResiduals computes the innovations-form residuals of w under
// arCoef/maCoef/mu with zero presample residuals: e_t = w_t - mu -
// sum(arCoef_i * w_{t-i}) - sum(maCoef_j * e_{t-j}), treating any
// out-of-range lag as zero (spec.md §4.4's "innovations-form residual
// computation with zero presample residuals").
func conditionalResiduals(w, arCoef, maCoef []float64, mu float64) ([]float64, float64) {
	n := len(w)
	e := make([]float64, n)
	var sse float64
	for t := 0; t < n; t++ {
		yhat := mu
		for i, phi := range arCoef {
			lag := t - i - 1
			if lag >= 0 {
				yhat += phi * w[lag]
			}
		}
		for j, theta := range maCoef {
			lag := t - j - 1
			if lag >= 0 {
				yhat += theta * e[lag]
			}
		}
		e[t] = w[t] - yhat
		sse += e[t] * e[t]
	}
	return e, sse
}

func stationaryAndInvertible(ar, ma []float64) bool {
	if len(ar) > 0 {
		coeffs := make([]float64, len(ar)+1)
		coeffs[0] = 1
		for i, phi := range ar {
			coeffs[i+1] = -phi
		}
		if !numeric.PolynomialRootsOutsideUnitDisk(coeffs) {
			return false
		}
	}
	if len(ma) > 0 {
		coeffs := make([]float64, len(ma)+1)
		coeffs[0] = 1
		for i, theta := range ma {
			coeffs[i+1] = theta
		}
		if !numeric.PolynomialRootsOutsideUnitDisk(coeffs) {
			return false
		}
	}
	return true
}

func interceptBounds(w []float64) (float64, float64) {
	mean := numeric.Mean(w)
	sd := numeric.SampleStdDev(w)
	if sd == 0 {
		sd = 1
	}
	return mean - 4*sd, mean + 4*sd
}

// Predict rolls the fitted recurrence forward h steps on the differenced
// scale (assuming zero future innovations) and re-integrates back through
// the seasonal and non-seasonal differencing operators using the stored
// training tail as the reconstruction seed (spec.md §4.4).
func (m *Model) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "arima: model has not been fit")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "arima: horizon must be >= 1")
	}

	wFull := append([]float64(nil), m.diffed...)
	for step := 0; step < h; step++ {
		t := len(wFull)
		yhat := m.mu
		for i, phi := range m.arCoef {
			lag := t - i - 1
			if lag >= 0 {
				yhat += phi * wFull[lag]
			}
		}
		// Future innovations are assumed zero (conditional forecast), so
		// the MA terms beyond the training sample contribute nothing.
		wFull = append(wFull, yhat)
	}

	o := m.order
	y := m.history

	var uFull []float64
	var err error
	if o.SeasonalD > 0 {
		seedS := Difference(y, o.D)[:o.SeasonalD*o.Season]
		uFull, err = SeasonalIntegrate(wFull, seedS, o.SeasonalD, o.Season)
		if err != nil {
			return forecast.Forecast{}, errkit.New(errkit.NumericalFailure, "arima: seasonal re-integration failed: %v", err)
		}
	} else {
		uFull = wFull
	}

	var yFull []float64
	if o.D > 0 {
		ySeed := y[:o.D]
		yFull, err = Integrate(uFull, ySeed, o.D)
		if err != nil {
			return forecast.Forecast{}, errkit.New(errkit.NumericalFailure, "arima: re-integration failed: %v", err)
		}
	} else {
		yFull = uFull
	}

	point := append([]float64(nil), yFull[len(yFull)-h:]...)
	return forecast.Forecast{
		Point:          point,
		ModelName:      m.name,
		InsampleFitted: m.fitted,
	}, nil
}

// PredictWithConfidence adds symmetric Gaussian bands using the ARMA(inf)
// psi-weight expansion of the fitted polynomial truncated to h terms
// (spec.md §4.4): Var(forecast error at step i) = sigma2 * sum_{k=0}^{i-1}
// psi_k^2, with psi_0 = 1.
func (m *Model) PredictWithConfidence(h int, level float64) (forecast.Forecast, error) {
	fc, err := m.Predict(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	psi := psiWeights(m.arCoef, m.maCoef, h)
	z := numeric.ZForConfidence(level)
	lower := make([]float64, h)
	upper := make([]float64, h)
	var cumSq float64
	for i := 0; i < h; i++ {
		cumSq += psi[i] * psi[i]
		se := z * math.Sqrt(m.diag.Sigma2*cumSq)
		lower[i] = fc.Point[i] - se
		upper[i] = fc.Point[i] + se
	}
	fc.Lower = lower
	fc.Upper = upper
	fc.ConfidenceLevel = level
	return fc, nil
}

// psiWeights computes the MA(inf) representation's first h coefficients
// (psi_0=1) of the combined ARMA polynomial theta(z)/phi(z), via the
// standard recursion psi_k = sum_{i=1..p} arCoef_i*psi_{k-i} + maCoef_k
// (the MA term only if k<=q; psi with a negative index is zero).
func psiWeights(ar, ma []float64, h int) []float64 {
	psi := make([]float64, h)
	if h == 0 {
		return psi
	}
	psi[0] = 1
	for k := 1; k < h; k++ {
		v := 0.0
		if k-1 < len(ma) {
			v += ma[k-1]
		}
		for i, phi := range ar {
			lag := k - i - 1
			if lag >= 0 {
				v += phi * psi[lag]
			}
		}
		psi[k] = v
	}
	return psi
}
