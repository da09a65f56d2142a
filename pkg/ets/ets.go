// Package ets implements the exponential-smoothing family of spec.md
// §4.3: SES, Holt, HoltWinters, SeasonalES, and the general additive-error
// ETS state-space model with trend/season/damping combinations, plus their
// optimized (grid + Nelder-Mead tuned) variants.
//
// Grounded on the teacher's pkg/prediction/holt_winters.go: the same
// level/trend/seasonal state-update shape, the same
// initialize-then-optimize-then-refit Fit flow, and the same damped-trend
// summation in Predict, generalized from a single fixed HoltWinters
// configuration to a TrendKind x SeasonKind matrix: trend {none, additive,
// damped additive} x season {none, additive, multiplicative}. There is no
// multiplicative trend.
package ets

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// TrendKind selects the trend component of an ETS model.
type TrendKind int

const (
	TrendNone TrendKind = iota
	TrendAdditive
	TrendDamped
)

// SeasonKind selects the seasonal component of an ETS model.
type SeasonKind int

const (
	SeasonNone SeasonKind = iota
	SeasonAdditive
	SeasonMultiplicative
)

// Config fully parameterizes one ETS candidate. Error is always additive
// (spec.md §4.3 notes multiplicative error "may be restricted initially");
// the core only implements additive-error ETS.
type Config struct {
	Trend  TrendKind
	Season SeasonKind
	M      int // season length, >= 1; only meaningful when Season != SeasonNone

	Alpha float64
	Beta  float64 // ignored when Trend == TrendNone
	Gamma float64 // ignored when Season == SeasonNone
	Phi   float64 // ignored unless Trend == TrendDamped; defaults to 1 otherwise

	// PinAlpha/PinBeta/PinGamma/PinPhi are carried on the config, but no
	// code in this module reads them: Fit uses Alpha/Beta/Gamma/Phi as
	// given, and AutoETS searches alpha/beta/gamma (phi fixed at 0.9 for
	// damped candidates) whatever these flags say.
	PinAlpha, PinBeta, PinGamma, PinPhi bool

	// InitialLevel/InitialTrend/InitialSeasonal override the data-derived
	// initialization (spec.md §4.3: "Explicit overrides may be
	// supplied"). A nil pointer/slice falls back to the standard
	// data-derived initialization.
	InitialLevel    *float64
	InitialTrend    *float64
	InitialSeasonal []float64
}

// SmoothingBounds and DampingBounds are the box constraints on ETS's free parameters (spec.md
// §4.3): smoothing parameters in [0,1], damping in [0.8,1].
var (
	SmoothingBounds = numeric.Bounds{Lo: 0, Hi: 1}
	DampingBounds   = numeric.Bounds{Lo: 0.8, Hi: 1}
)

// FitDiagnostics records the sample statistics needed for AIC/AICc/BIC
// selection in AutoETS (spec.md §4.3, §4.5).
type FitDiagnostics struct {
	SSE            float64
	InnovationSSE  float64
	MSE            float64
	LogLikelihood  float64
	SampleSize     int
	FreeParameters int // smoothing params + initial states
}

// Model is a fitted (or fittable) ETS state-space model. Its state is
// owned exclusively by the Model once Fit succeeds (spec.md §3's
// ownership rule).
type Model struct {
	cfg       Config
	modelName string

	history []float64

	level0, trend0 float64
	seasonal0      []float64

	level, trend float64
	seasonal     []float64

	fitted     []float64
	residual   []float64
	diag       FitDiagnostics
	isFitted   bool
}

// newModel constructs a general ETS model under the given config and name.
// Unexported so that only this package's constructors (SES, Holt, ...) and
// the autoets package (via NewGeneral) can mint one, keeping the model
// naming surface closed (spec.md §6).
func newModel(cfg Config, name string) *Model {
	if cfg.Phi == 0 {
		cfg.Phi = 1
	}
	return &Model{cfg: cfg, modelName: name}
}

// NewGeneral exposes model construction to the autoets package, which
// enumerates the full Pegels-notation candidate grid and needs every
// TrendKind x SeasonKind combination under the single name "ETS" (spec.md
// §6) or "AutoETS" for the selected winner.
func NewGeneral(cfg Config, name string) *Model { return newModel(cfg, name) }

func (m *Model) Name() string { return m.modelName }

// Config returns a copy of the model's configuration, used by AutoETS to
// report the chosen components/parameters (spec.md §4.5).
func (m *Model) Config() Config { return m.cfg }

// Diagnostics returns the fit diagnostics recorded during Fit.
func (m *Model) Diagnostics() FitDiagnostics { return m.diag }

func (m *Model) hasTrend() bool  { return m.cfg.Trend != TrendNone }
func (m *Model) hasSeason() bool { return m.cfg.Season != SeasonNone }
func (m *Model) phi() float64 {
	if m.cfg.Trend == TrendDamped {
		return m.cfg.Phi
	}
	return 1
}

// Fit validates ts, initializes level/trend/seasonal state, and runs the
// recurrence once through the full history to produce fitted values,
// residuals, and diagnostics.
func (m *Model) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "%s: model requires a univariate series", m.modelName)
	}
	return m.fitValues(ts.Values())
}

// fitValues runs the recurrence over a raw value slice, letting
// parameter-search loops (SESOptimized, SeasonalESOptimized, AutoETS)
// evaluate a candidate configuration without round-tripping through a
// TimeSeries on every objective evaluation.
func (m *Model) fitValues(y []float64) error {
	n := len(y)
	minN := 2
	if m.hasSeason() {
		if m.cfg.M < 1 {
			return errkit.New(errkit.InvalidInput, "%s: season length must be >= 1", m.modelName).WithField("m")
		}
		minN = m.cfg.M + 1
	}
	if n < minN {
		return errkit.New(errkit.InsufficientData, "%s: need n >= %d, got %d", m.modelName, minN, n)
	}

	m.history = append([]float64(nil), y...)
	m.initializeState(y)

	level, trend := m.level0, m.trend0
	seasonal := append([]float64(nil), m.seasonal0...)
	phi := m.phi()

	fitted := make([]float64, n)
	residual := make([]float64, n)
	var sse float64

	for t := 0; t < n; t++ {
		var yhat float64
		var seasonIdx int
		if m.hasSeason() {
			seasonIdx = t % m.cfg.M
		}

		switch {
		case m.hasTrend() && m.hasSeason() && m.cfg.Season == SeasonMultiplicative:
			yhat = (level + phi*trend) * seasonal[seasonIdx]
		case m.hasTrend() && m.hasSeason():
			yhat = level + phi*trend + seasonal[seasonIdx]
		case m.hasSeason() && m.cfg.Season == SeasonMultiplicative:
			yhat = level * seasonal[seasonIdx]
		case m.hasSeason():
			yhat = level + seasonal[seasonIdx]
		case m.hasTrend():
			yhat = level + phi*trend
		default:
			yhat = level
		}

		e := y[t] - yhat
		fitted[t] = yhat
		residual[t] = e
		sse += e * e

		newLevel := level + phi*trend + m.cfg.Alpha*e
		var newTrend float64
		if m.hasTrend() {
			newTrend = phi*trend + m.cfg.Beta*e
		}
		if m.hasSeason() {
			if m.cfg.Season == SeasonMultiplicative {
				if newLevel != 0 {
					seasonal[seasonIdx] = seasonal[seasonIdx] * (1 + m.cfg.Gamma*e/newLevel)
				}
			} else {
				seasonal[seasonIdx] = seasonal[seasonIdx] + m.cfg.Gamma*e
			}
		}
		level, trend = newLevel, newTrend
	}

	if !allFinite(fitted) || !allFinite(residual) || math.IsNaN(level) || math.IsInf(level, 0) {
		return errkit.New(errkit.NumericalFailure, "%s: fit diverged to a non-finite state", m.modelName)
	}

	m.level, m.trend, m.seasonal = level, trend, seasonal
	m.fitted, m.residual = fitted, residual

	freeParams := 1 // alpha
	if m.hasTrend() {
		freeParams++ // beta
		freeParams++ // initial trend
		if m.cfg.Trend == TrendDamped {
			freeParams++ // phi
		}
	}
	if m.hasSeason() {
		freeParams++          // gamma
		freeParams += m.cfg.M // initial seasonal indices
	}
	freeParams++ // initial level

	sigma2 := sse / float64(n)
	ll := numeric.LogLikelihoodGaussian(residual, sigma2)
	m.diag = FitDiagnostics{
		SSE:            sse,
		InnovationSSE:  sse,
		MSE:            sse / float64(n),
		LogLikelihood:  ll,
		SampleSize:     n,
		FreeParameters: freeParams,
	}
	m.isFitted = true
	return nil
}

func (m *Model) initializeState(y []float64) {
	n := len(y)
	if m.cfg.InitialLevel != nil {
		m.level0 = *m.cfg.InitialLevel
		m.trend0 = 0
		if m.cfg.InitialTrend != nil {
			m.trend0 = *m.cfg.InitialTrend
		}
		if m.cfg.InitialSeasonal != nil {
			m.seasonal0 = append([]float64(nil), m.cfg.InitialSeasonal...)
		} else if m.hasSeason() {
			m.seasonal0 = make([]float64, m.cfg.M)
		}
		return
	}
	if m.hasSeason() {
		season := m.cfg.M
		var sum float64
		for i := 0; i < season; i++ {
			sum += y[i]
		}
		m.level0 = sum / float64(season)

		m.seasonal0 = make([]float64, season)
		for i := 0; i < season; i++ {
			if m.cfg.Season == SeasonMultiplicative {
				if m.level0 != 0 {
					m.seasonal0[i] = y[i] / m.level0
				} else {
					m.seasonal0[i] = 1
				}
			} else {
				m.seasonal0[i] = y[i] - m.level0
			}
		}
		normalizeSeasonal(m.seasonal0, m.cfg.Season)

		if m.hasTrend() && n > season {
			m.trend0 = (y[season] - y[0]) / float64(season)
		}
	} else {
		m.level0 = y[0]
		if m.hasTrend() {
			m.trend0 = y[1] - y[0]
		}
	}
}

func normalizeSeasonal(s []float64, kind SeasonKind) {
	if len(s) == 0 {
		return
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	avg := sum / float64(len(s))
	if kind == SeasonMultiplicative {
		if avg == 0 {
			return
		}
		for i := range s {
			s[i] /= avg
		}
		return
	}
	for i := range s {
		s[i] -= avg
	}
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Predict rolls the terminal state forward h steps. With damping, the
// trend contribution at lead time i is phi+phi^2+...+phi^i times the
// terminal trend (spec.md §4.3).
func (m *Model) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.modelName)
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "%s: h must be >= 1", m.modelName)
	}

	point := make([]float64, h)
	phi := m.phi()
	n := len(m.history)
	for i := 1; i <= h; i++ {
		trendSum := dampedTrendSum(phi, m.trend, i)
		var seasonIdx int
		if m.hasSeason() {
			seasonIdx = (n + i - 1) % m.cfg.M
		}
		switch {
		case m.hasTrend() && m.hasSeason() && m.cfg.Season == SeasonMultiplicative:
			point[i-1] = (m.level + trendSum) * m.seasonal[seasonIdx]
		case m.hasTrend() && m.hasSeason():
			point[i-1] = m.level + trendSum + m.seasonal[seasonIdx]
		case m.hasSeason() && m.cfg.Season == SeasonMultiplicative:
			point[i-1] = m.level * m.seasonal[seasonIdx]
		case m.hasSeason():
			point[i-1] = m.level + m.seasonal[seasonIdx]
		case m.hasTrend():
			point[i-1] = m.level + trendSum
		default:
			point[i-1] = m.level
		}
	}
	return forecast.Forecast{Point: point, ModelName: m.modelName, InsampleFitted: m.fitted}, nil
}

// dampedTrendSum returns phi^1 + phi^2 + ... + phi^i times trend, which
// collapses to i*trend when phi == 1 (an undamped trend).
func dampedTrendSum(phi, trend float64, i int) float64 {
	if phi == 1 {
		return float64(i) * trend
	}
	var sum float64
	p := phi
	for k := 0; k < i; k++ {
		sum += p
		p *= phi
	}
	return sum * trend
}

// PredictWithConfidence populates symmetric Gaussian bands from the
// in-sample residual standard deviation (spec.md §4.1's default Gaussian
// band policy).
func (m *Model) PredictWithConfidence(h int, level float64) (forecast.Forecast, error) {
	fc, err := m.Predict(h)
	if err != nil {
		return fc, err
	}
	sigma := numeric.SampleStdDev(m.residual)
	if sigma == 0 {
		return fc, nil
	}
	z := numeric.ZForConfidence(level)
	lower := make([]float64, h)
	upper := make([]float64, h)
	for i := 0; i < h; i++ {
		spread := z * sigma * math.Sqrt(float64(i+1))
		lower[i] = fc.Point[i] - spread
		upper[i] = fc.Point[i] + spread
	}
	fc.Lower, fc.Upper, fc.ConfidenceLevel = lower, upper, level
	return fc, nil
}
