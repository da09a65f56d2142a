// Package mfles implements MFLES, the gradient-boosted decomposition
// forecaster of spec.md §4.8: a boosting loop that alternates median, trend,
// per-period Fourier-seasonal, and residual-smoothing fits against a
// shrinking residual, each step scaled by its own learning rate.
//
// Grounded on the teacher's pkg/prediction/decomposition.go: calculateTrend
// and MedianSmooth/Smooth's centered-window shape (generalized here into
// windowed median/mean helpers reused across boosting rounds), and
// linearRegression (reused via pkg/numeric.OLS for the OLS trend method).
// Outlier capping is delegated to pkg/outlier (adapted from the teacher's
// pkg/anomaly Z-score detector).
package mfles

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/outlier"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// TrendMethod selects how MFLES fits the trend component each round
// (spec.md §4.8).
type TrendMethod int

const (
	TrendOLS TrendMethod = iota
	TrendSiegel
	TrendPiecewise
)

// ResidualSmoother selects the residual-smoothing step each round (spec.md
// §4.8).
type ResidualSmoother int

const (
	SmootherESEnsemble ResidualSmoother = iota
	SmootherMovingAverage
)

// Config parameterizes one MFLES fit. A zero Config is completed by
// withDefaults.
type Config struct {
	MaxRounds       int
	SeasonalPeriods []int

	// FourierOrder overrides the adaptive Fourier order (spec.md §4.8: K=5
	// for small periods, 10 for mid, 15 for large) per period. A period
	// absent from the map uses the adaptive default.
	FourierOrder map[int]int

	LRTrend, LRSeason, LRRS float64
	TrendMethod             TrendMethod

	TimeIncreasingSeasonalWeights bool

	ResidualSmoother   ResidualSmoother
	ESEnsembleSize     int
	MinAlpha, MaxAlpha float64
	MAWindow           int

	OutlierCapStartRound int
	OutlierSigma         float64

	ConvergenceThreshold float64

	// Multiplicative overrides auto-detection (coefficient-of-variation
	// test against MultiplicativeCVThreshold) when non-nil.
	Multiplicative            *bool
	MultiplicativeCVThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MaxRounds <= 0 {
		c.MaxRounds = 10
	}
	if c.LRTrend <= 0 {
		c.LRTrend = 0.9
	}
	if c.LRSeason <= 0 {
		c.LRSeason = 0.9
	}
	if c.LRRS <= 0 {
		c.LRRS = 0.9
	}
	if c.ESEnsembleSize <= 0 {
		c.ESEnsembleSize = 8
	}
	if c.MinAlpha <= 0 {
		c.MinAlpha = 0.05
	}
	if c.MaxAlpha <= 0 {
		c.MaxAlpha = 0.95
	}
	if c.MAWindow <= 0 {
		c.MAWindow = 3
		if len(c.SeasonalPeriods) > 0 {
			c.MAWindow = c.SeasonalPeriods[0]
		}
	}
	if c.OutlierCapStartRound <= 0 {
		c.OutlierCapStartRound = c.MaxRounds + 1 // disabled by default
	}
	if c.OutlierSigma <= 0 {
		c.OutlierSigma = 3.0
	}
	if c.ConvergenceThreshold <= 0 {
		c.ConvergenceThreshold = 0.001
	}
	if c.MultiplicativeCVThreshold <= 0 {
		c.MultiplicativeCVThreshold = 0.5
	}
	return c
}

func fourierOrderFor(cfg Config, period int) int {
	if o, ok := cfg.FourierOrder[period]; ok && o > 0 {
		return o
	}
	switch {
	case period <= 12:
		return 5
	case period <= 24:
		return 10
	default:
		return 15
	}
}

// Decomposition is the aligned component accessor spec.md §4.8 requires.
type Decomposition struct {
	Median         []float64
	Trend          []float64
	Seasonal       map[int][]float64
	Residual       []float64
	Multiplicative bool
}

// FitDiagnostics records the boosting loop's convergence behavior.
type FitDiagnostics struct {
	Rounds         int
	FinalSSE       float64
	FreeParameters int
}

// Model is a fitted MFLES forecaster.
type Model struct {
	cfg       Config
	modelName string

	n int

	decomp Decomposition

	trendIntercept, trendSlope, trendR2 float64

	fourierCoeffs map[int][][2]float64

	esTerminalLevel float64
	maTerminalAvg   float64

	fitted   []float64
	diag     FitDiagnostics
	isFitted bool
}

// New constructs an unfit MFLES model under cfg.
func New(cfg Config) *Model { return &Model{cfg: cfg.withDefaults(), modelName: "MFLES"} }

// NewWithName constructs an MFLES model reporting name instead of "MFLES",
// used by AutoMFLES to refit the winning configuration as "AutoMFLES".
func NewWithName(cfg Config, name string) *Model {
	m := New(cfg)
	m.modelName = name
	return m
}

func (m *Model) Name() string                { return m.modelName }
func (m *Model) Diagnostics() FitDiagnostics  { return m.diag }
func (m *Model) Decomposition() Decomposition { return m.decomp }

func (m *Model) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "%s: model requires a univariate series", m.modelName)
	}
	y := ts.Values()
	if len(y) < 4 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 4, got %d", m.modelName, len(y))
	}

	multiplicative, err := m.resolveMultiplicative(y)
	if err != nil {
		return err
	}

	n := len(y)
	work := make([]float64, n)
	if multiplicative {
		for i, v := range y {
			work[i] = math.Log(v)
		}
	} else {
		copy(work, y)
	}

	primaryPeriod := 1
	if len(m.cfg.SeasonalPeriods) > 0 {
		primaryPeriod = m.cfg.SeasonalPeriods[0]
	}

	residual := append([]float64(nil), work...)
	medianAccum := make([]float64, n)
	trendAccum := make([]float64, n)
	seasonalAccum := make(map[int][]float64, len(m.cfg.SeasonalPeriods))
	fourierCoeffAccum := make(map[int][][2]float64, len(m.cfg.SeasonalPeriods))
	for _, p := range m.cfg.SeasonalPeriods {
		seasonalAccum[p] = make([]float64, n)
		fourierCoeffAccum[p] = make([][2]float64, fourierOrderFor(m.cfg, p))
	}

	var trendInterceptAccum, trendSlopeAccum, lastTrendR2 float64
	var esTerminalLevel, maTerminalAvg float64

	prevSSE := math.Inf(1)
	rounds := 0
	var finalSSE float64

	for round := 0; round < m.cfg.MaxRounds; round++ {
		rounds = round + 1

		medianRound := medianComponent(residual, primaryPeriod)
		for i := range residual {
			residual[i] -= medianRound[i]
			medianAccum[i] += medianRound[i]
		}

		preTrend := append([]float64(nil), residual...)
		trendFitted, slope, intercept, err := fitTrend(m.cfg.TrendMethod, residual)
		if err != nil {
			return errkit.New(errkit.NumericalFailure, "%s: trend fit failed at round %d: %v", m.modelName, round, err)
		}
		lastTrendR2 = rSquared(preTrend, trendFitted)
		trendInterceptAccum += m.cfg.LRTrend * intercept
		trendSlopeAccum += m.cfg.LRTrend * slope
		for i := range residual {
			step := m.cfg.LRTrend * trendFitted[i]
			residual[i] -= step
			trendAccum[i] += step
		}

		for _, period := range m.cfg.SeasonalPeriods {
			order := fourierOrderFor(m.cfg, period)
			var weights []float64
			if m.cfg.TimeIncreasingSeasonalWeights {
				weights = make([]float64, n)
				for i := range weights {
					weights[i] = 1 + float64(i)/float64(n-1)
				}
			}
			coeffs, seasonFitted, err := fourierFit(residual, period, order, weights)
			if err != nil {
				return errkit.New(errkit.NumericalFailure, "%s: seasonal fit failed for period %d at round %d: %v", m.modelName, period, round, err)
			}
			accumCoeffs := fourierCoeffAccum[period]
			for i := range coeffs {
				accumCoeffs[i][0] += m.cfg.LRSeason * coeffs[i][0]
				accumCoeffs[i][1] += m.cfg.LRSeason * coeffs[i][1]
			}
			accum := seasonalAccum[period]
			for i := range residual {
				step := m.cfg.LRSeason * seasonFitted[i]
				residual[i] -= step
				accum[i] += step
			}
		}

		var rsFitted []float64
		switch m.cfg.ResidualSmoother {
		case SmootherMovingAverage:
			rsFitted = windowedMean(residual, m.cfg.MAWindow)
			maTerminalAvg = trailingMean(residual, m.cfg.MAWindow)
		default:
			alphas := linspace(m.cfg.MinAlpha, m.cfg.MaxAlpha, m.cfg.ESEnsembleSize)
			var sumLevel float64
			rsFitted = make([]float64, n)
			for _, alpha := range alphas {
				fitted, terminal := esOneStepFitted(residual, alpha)
				for i := range rsFitted {
					rsFitted[i] += fitted[i] / float64(len(alphas))
				}
				sumLevel += terminal
			}
			esTerminalLevel = sumLevel / float64(len(alphas))
		}
		for i := range residual {
			residual[i] -= m.cfg.LRRS * rsFitted[i]
		}

		if round+1 >= m.cfg.OutlierCapStartRound {
			residual = outlier.ZScoreCap(residual, m.cfg.OutlierSigma)
		}

		var sse float64
		for _, r := range residual {
			sse += r * r
		}
		finalSSE = sse
		if !math.IsInf(prevSSE, 1) {
			improvement := (prevSSE - sse) / prevSSE
			if improvement < m.cfg.ConvergenceThreshold {
				prevSSE = sse
				break
			}
		}
		prevSSE = sse
	}

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = work[i] - residual[i]
		if multiplicative {
			fitted[i] = math.Exp(fitted[i])
		}
	}

	freeParams := 1 // median level
	freeParams += 2 // accumulated trend intercept + slope
	for _, period := range m.cfg.SeasonalPeriods {
		freeParams += 2 * fourierOrderFor(m.cfg, period)
	}

	m.n = n
	m.decomp = Decomposition{
		Median:         medianAccum,
		Trend:          trendAccum,
		Seasonal:       seasonalAccum,
		Residual:       residual,
		Multiplicative: multiplicative,
	}
	m.trendIntercept, m.trendSlope, m.trendR2 = trendInterceptAccum, trendSlopeAccum, lastTrendR2
	m.fourierCoeffs = fourierCoeffAccum
	m.esTerminalLevel = esTerminalLevel
	m.maTerminalAvg = maTerminalAvg
	m.fitted = fitted
	m.diag = FitDiagnostics{Rounds: rounds, FinalSSE: finalSSE, FreeParameters: freeParams}
	m.isFitted = true
	return nil
}

func (m *Model) resolveMultiplicative(y []float64) (bool, error) {
	if m.cfg.Multiplicative != nil {
		if *m.cfg.Multiplicative {
			for _, v := range y {
				if v <= 0 {
					return false, errkit.New(errkit.InvalidInput, "%s: multiplicative mode requires strictly positive values", m.modelName)
				}
			}
		}
		return *m.cfg.Multiplicative, nil
	}
	allPositive := true
	for _, v := range y {
		if v <= 0 {
			allPositive = false
			break
		}
	}
	if !allPositive {
		return false, nil
	}
	mean := numeric.Mean(y)
	if mean == 0 {
		return false, nil
	}
	cv := numeric.SampleStdDev(y) / mean
	return cv >= m.cfg.MultiplicativeCVThreshold, nil
}

func (m *Model) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.modelName)
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "%s: h must be >= 1", m.modelName)
	}

	var medianProjection float64
	if len(m.decomp.Median) > 0 {
		medianProjection = m.decomp.Median[m.n-1]
	}

	penalty := m.trendR2
	if penalty > 1 {
		penalty = 1
	}
	if penalty < 0 {
		penalty = 0
	}

	point := make([]float64, h)
	for tau := 1; tau <= h; tau++ {
		tIdx := float64(m.n + tau)
		value := medianProjection + penalty*(m.trendIntercept+m.trendSlope*tIdx)
		for period, coeffs := range m.fourierCoeffs {
			value += projectFourier(coeffs, period, m.n, tau)
		}
		switch m.cfg.ResidualSmoother {
		case SmootherMovingAverage:
			value += m.maTerminalAvg
		default:
			value += m.esTerminalLevel
		}
		if m.decomp.Multiplicative {
			value = math.Exp(value)
		}
		point[tau-1] = value
	}

	return forecast.Forecast{Point: point, ModelName: m.modelName, InsampleFitted: m.fitted}, nil
}
