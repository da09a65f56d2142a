// Package mstl implements MSTL, the iterative multi-seasonal decomposition
// collaborator of spec.md §4.10: trend + a sum of per-period seasonal
// components + remainder, with trend/remainder and seasonal forecast
// separately and recombined.
//
// Grounded on the teacher's pkg/prediction/decomposition.go Decomposer,
// whose own doc comment calls it "classical decomposition (similar to STL
// but simpler)" — a single-period centered-moving-average trend plus
// phase-averaged seasonal pattern. MSTL generalizes that shape two ways:
// (1) a backfitting outer loop over a list of periods instead of one, and
// (2) a per-phase subseries smoothing + low-pass correction step (mstl's
// seasonal.go) so the seasonal component can drift slowly across cycles
// instead of being a single frozen pattern.
package mstl

import (
	"math"
	"sort"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/ets"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// SeasonalProjection selects how a period's seasonal component is
// continued into the forecast horizon (spec.md §4.10: "add cyclic or
// model-based seasonal projections").
type SeasonalProjection int

const (
	// SeasonalCyclic repeats the final estimated cycle of each seasonal
	// component forward.
	SeasonalCyclic SeasonalProjection = iota
	// SeasonalModel fits a seasonal ETS model (additive unless
	// SeasonalModelKind selects multiplicative) to each component's own
	// estimated trajectory and extrapolates it.
	SeasonalModel
)

// Config parameterizes one MSTL decomposition and forecast.
type Config struct {
	// Periods lists the seasonal periods to decompose (spec.md §4.10:
	// "parameterized by a vector of seasonal periods"). Periods <= 1 or
	// requiring more history than is available are dropped with a
	// diagnostic rather than failing the whole fit.
	Periods []int
	// Iterations is the backfitting outer-loop count. Default 2.
	Iterations int
	// Robust, when true, IQR-caps each period's working series before
	// extracting its seasonal component, resisting outlier leakage into
	// the seasonal and trend estimates (spec.md §4.10's "robustness
	// flag").
	Robust bool
	// TrendForecaster builds the sub-forecaster MSTL fits to the
	// deseasonalized trend+remainder series (spec.md §4.10: "forecast
	// trend+remainder by a selected univariate method"). Defaults to
	// SES(0.3) if nil.
	TrendForecaster func() forecast.Forecaster
	// SeasonalProjectionMethod selects cyclic vs model-based seasonal
	// continuation. Default SeasonalCyclic.
	SeasonalProjectionMethod SeasonalProjection
	// SeasonalModelKind selects additive vs multiplicative ETS seasonality
	// when SeasonalProjectionMethod == SeasonalModel (AutoMSTL's ETS(A,N,A)
	// vs ETS(A,N,M) candidates). Default SeasonAdditive.
	SeasonalModelKind ets.SeasonKind
}

func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = 2
	}
	if c.TrendForecaster == nil {
		c.TrendForecaster = func() forecast.Forecaster { return ets.NewSES(0.3) }
	}
	return c
}

// Decomposition is the final additive split: Trend, one Seasonal series
// per configured (and retained) period, and Remainder, each aligned to
// the original series.
type Decomposition struct {
	Trend     []float64
	Seasonal  map[int][]float64
	Remainder []float64
}

// FitDiagnostics records what the decomposition actually used.
type FitDiagnostics struct {
	Iterations     int
	PeriodsUsed    []int
	PeriodsDropped []int
}

// Model is a fitted (or fittable) MSTL decomposition/forecaster.
type Model struct {
	cfg       Config
	modelName string

	n       int
	periods []int
	decomp  Decomposition
	diag    FitDiagnostics

	trendForecaster forecast.Forecaster
	seasonalModels  map[int]*ets.Model // only populated under SeasonalModel

	fitted   []float64
	isFitted bool
}

// New constructs an MSTL model named "MSTL" (spec.md §6).
func New(cfg Config) *Model { return NewWithName(cfg, "MSTL") }

// NewWithName constructs an MSTL model under an explicit name, used by
// AutoMSTL to report the selected candidate under its own "AutoMSTL"
// identity while reusing this package's fit/decompose/forecast logic.
func NewWithName(cfg Config, name string) *Model {
	return &Model{cfg: cfg.withDefaults(), modelName: name}
}

func (m *Model) Name() string                { return m.modelName }
func (m *Model) Diagnostics() FitDiagnostics  { return m.diag }
func (m *Model) Decomposition() Decomposition { return m.decomp }

func checkUnivariate(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "mstl: model requires a univariate series")
	}
	return nil
}

// Fit decomposes ts via backfitting over cfg.Periods, then fits
// cfg.TrendForecaster to the deseasonalized trend+remainder series (and,
// under SeasonalModel, an ETS seasonal model per retained period).
func (m *Model) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	y := ts.Values()
	n := len(y)
	if n < 4 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 4, got %d", m.modelName, n)
	}

	periods, dropped := resolvePeriods(m.cfg.Periods, n)

	seasonal, trend := backfit(y, periods, m.cfg.Iterations, m.cfg.Robust)
	remainder := make([]float64, n)
	for i := range y {
		s := 0.0
		for _, p := range periods {
			s += seasonal[p][i]
		}
		remainder[i] = y[i] - trend[i] - s
	}

	m.n = n
	m.periods = periods
	m.decomp = Decomposition{Trend: trend, Seasonal: seasonal, Remainder: remainder}
	m.diag = FitDiagnostics{Iterations: m.cfg.Iterations, PeriodsUsed: periods, PeriodsDropped: dropped}

	trendRemainder := make([]float64, n)
	for i := range y {
		trendRemainder[i] = trend[i] + remainder[i]
	}
	stamps := ts.Timestamps()
	trTS, err := timeseries.New(stamps, trendRemainder)
	if err != nil {
		return err
	}
	m.trendForecaster = m.cfg.TrendForecaster()
	if err := m.trendForecaster.Fit(trTS); err != nil {
		return errkit.New(errkit.NumericalFailure, "%s: trend+remainder sub-forecaster failed: %v", m.modelName, err)
	}

	if m.cfg.SeasonalProjectionMethod == SeasonalModel {
		m.seasonalModels = make(map[int]*ets.Model, len(periods))
		for _, p := range periods {
			seasonTS, err := timeseries.New(stamps, seasonal[p])
			if err != nil {
				return err
			}
			seasonKind := m.cfg.SeasonalModelKind
			if seasonKind == ets.SeasonNone {
				seasonKind = ets.SeasonAdditive
			}
			sm := ets.NewGeneral(ets.Config{Trend: ets.TrendNone, Season: seasonKind, M: p, Alpha: 0.3, Gamma: 0.1}, "ETS")
			if err := sm.Fit(seasonTS); err != nil {
				return errkit.New(errkit.NumericalFailure, "%s: seasonal model for period %d failed: %v", m.modelName, p, err)
			}
			m.seasonalModels[p] = sm
		}
	}

	fitted := make([]float64, n)
	for i := range y {
		fitted[i] = y[i] - remainder[i]
	}
	m.fitted = fitted
	m.isFitted = true
	return nil
}

// Predict forecasts trend+remainder via the configured sub-forecaster and
// adds each period's seasonal projection (spec.md §4.10).
func (m *Model) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.modelName)
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "%s: h must be >= 1", m.modelName)
	}

	trFC, err := m.trendForecaster.Predict(h)
	if err != nil {
		return forecast.Forecast{}, err
	}

	point := append([]float64(nil), trFC.Point...)
	for _, p := range m.periods {
		seasonal := m.decomp.Seasonal[p]
		switch m.cfg.SeasonalProjectionMethod {
		case SeasonalModel:
			sFC, err := m.seasonalModels[p].Predict(h)
			if err != nil {
				return forecast.Forecast{}, err
			}
			for i := range point {
				point[i] += sFC.Point[i]
			}
		default:
			tail := seasonal[m.n-p:]
			for i := 0; i < h; i++ {
				point[i] += tail[i%p]
			}
		}
	}

	if !allFinite(point) {
		return forecast.Forecast{}, errkit.New(errkit.NumericalFailure, "%s: forecast produced non-finite values", m.modelName)
	}
	return forecast.Forecast{Point: point, ModelName: m.modelName, InsampleFitted: m.fitted}, nil
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// resolvePeriods dedupes and sorts the configured periods, dropping any
// <= 1 or requiring more than n/2 observations to estimate a single cycle
// reliably.
func resolvePeriods(periods []int, n int) (used, dropped []int) {
	seen := make(map[int]bool)
	var clean []int
	for _, p := range periods {
		if seen[p] {
			continue
		}
		seen[p] = true
		if p <= 1 || n < 2*p {
			dropped = append(dropped, p)
			continue
		}
		clean = append(clean, p)
	}
	sort.Ints(clean)
	return clean, dropped
}
