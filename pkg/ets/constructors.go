package ets

import (
	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// NewSES constructs a simple exponential smoothing model with a fixed
// alpha (spec.md §6: name "SimpleExponentialSmoothing").
func NewSES(alpha float64) *Model {
	return newModel(Config{Alpha: alpha}, "SimpleExponentialSmoothing")
}

// NewHolt constructs a Holt linear-trend model with fixed alpha/beta
// (spec.md §6: name "HoltLinearTrend").
func NewHolt(alpha, beta float64) *Model {
	return newModel(Config{Trend: TrendAdditive, Alpha: alpha, Beta: beta}, "HoltLinearTrend")
}

// NewHoltDamped constructs a damped-trend Holt model.
func NewHoltDamped(alpha, beta, phi float64) *Model {
	return newModel(Config{Trend: TrendDamped, Alpha: alpha, Beta: beta, Phi: phi}, "HoltLinearTrend")
}

// NewHoltWinters constructs a seasonal trend model with additive or
// multiplicative season (spec.md §6: name "HoltWinters").
func NewHoltWinters(alpha, beta, gamma float64, season int, seasonKind SeasonKind) *Model {
	return newModel(Config{
		Trend: TrendAdditive, Season: seasonKind, M: season,
		Alpha: alpha, Beta: beta, Gamma: gamma,
	}, "HoltWinters")
}

// NewSeasonalES constructs a seasonal-only (no trend) exponential
// smoothing model (spec.md §6: name "SeasonalExponentialSmoothing").
func NewSeasonalES(alpha, gamma float64, season int, seasonKind SeasonKind) *Model {
	return newModel(Config{
		Season: seasonKind, M: season,
		Alpha: alpha, Gamma: gamma,
	}, "SeasonalExponentialSmoothing")
}

// OptimizerResult records how a grid+Nelder-Mead alpha/gamma search ended,
// surfaced so AutoETS and callers can inspect convergence (spec.md §4.5's
// optimizer_converged/optimizer_iterations diagnostics).
type OptimizerResult struct {
	Converged  bool
	Iterations int
	Objective  float64
}

// SESOptimized searches alpha on a fine grid (refined by Nelder-Mead)
// minimizing one-step-ahead MSE (spec.md §4.3, name "SESOptimized").
type SESOptimized struct {
	*Model
	Opt OptimizerResult
}

// NewSESOptimized constructs an unfit SESOptimized model; call Fit to run
// the search.
func NewSESOptimized() *SESOptimized {
	return &SESOptimized{Model: newModel(Config{}, "SESOptimized")}
}

func (s *SESOptimized) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "SESOptimized: model requires a univariate series")
	}
	y := ts.Values()

	objective := func(x []float64) float64 {
		candidate := newModel(Config{Alpha: x[0]}, "SimpleExponentialSmoothing")
		if err := candidate.fitValues(y); err != nil {
			return 1e18
		}
		return candidate.diag.MSE
	}
	result := numeric.GridThenNelderMead(objective, []numeric.Bounds{SmoothingBounds}, 11, 200)

	s.Model = newModel(Config{Alpha: result.X[0]}, "SESOptimized")
	if err := s.Model.Fit(ts); err != nil {
		return err
	}
	s.Opt = OptimizerResult{Converged: result.Converged, Iterations: result.Iterations, Objective: result.F}
	return nil
}

// SeasonalESOptimized searches alpha and gamma jointly, minimizing
// one-step-ahead MSE (spec.md §4.3, name "SeasonalESOptimized").
type SeasonalESOptimized struct {
	*Model
	Season     int
	SeasonKind SeasonKind
	Opt        OptimizerResult
}

// NewSeasonalESOptimized constructs an unfit SeasonalESOptimized model for
// the given season length and kind.
func NewSeasonalESOptimized(season int, seasonKind SeasonKind) *SeasonalESOptimized {
	return &SeasonalESOptimized{
		Model:      newModel(Config{Season: seasonKind, M: season}, "SeasonalESOptimized"),
		Season:     season,
		SeasonKind: seasonKind,
	}
}

func (s *SeasonalESOptimized) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "SeasonalESOptimized: model requires a univariate series")
	}
	y := ts.Values()

	objective := func(x []float64) float64 {
		candidate := newModel(Config{
			Season: s.SeasonKind, M: s.Season, Alpha: x[0], Gamma: x[1],
		}, "SeasonalExponentialSmoothing")
		if err := candidate.fitValues(y); err != nil {
			return 1e18
		}
		return candidate.diag.MSE
	}
	result := numeric.GridThenNelderMead(objective, []numeric.Bounds{SmoothingBounds, SmoothingBounds}, 7, 300)

	s.Model = newModel(Config{Season: s.SeasonKind, M: s.Season, Alpha: result.X[0], Gamma: result.X[1]}, "SeasonalESOptimized")
	if err := s.Model.Fit(ts); err != nil {
		return err
	}
	s.Opt = OptimizerResult{Converged: result.Converged, Iterations: result.Iterations, Objective: result.F}
	return nil
}
