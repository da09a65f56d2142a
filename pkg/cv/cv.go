// Package cv implements rolling and expanding-window cross-validation
// (spec.md §4.11): fold generation, per-fold fitting through a factory
// callback, and aggregated accuracy metrics over the concatenated fold
// predictions.
//
// Grounded on the teacher's pkg/tuner (nee pkg/pareto) candidate-evaluation
// shape generalized from "evaluate one scaling configuration" to "evaluate
// one forecaster over one time window", and on pkg/forecast.Score for the
// metric definitions every fold and the aggregate share.
package cv

import (
	"fmt"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/telemetry"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// Strategy selects how the training window behaves across folds.
type Strategy int

const (
	// Rolling keeps the training window a fixed size, sliding forward
	// with the fold.
	Rolling Strategy = iota
	// Expanding grows the training window cumulatively from index 0.
	Expanding
)

// Config parameterizes fold generation (spec.md §4.11).
type Config struct {
	Horizon       int
	InitialWindow int
	Step          int
	Strategy      Strategy
	// NWindows caps the number of folds produced. Zero means unbounded
	// (folds run until the window would overrun the series).
	NWindows int

	// ModelName labels Telemetry observations; defaults to "unknown" if left
	// empty while Telemetry is set.
	ModelName string
	// Telemetry, if non-nil, records each fold's duration and MAE. A nil
	// Telemetry is always a safe no-op (see pkg/telemetry.Exporter).
	Telemetry *telemetry.Exporter
}

func (c Config) validate(n int) error {
	if c.Horizon < 1 {
		return errkit.New(errkit.InvalidInput, "cv: horizon must be >= 1, got %d", c.Horizon).WithField("horizon")
	}
	if c.InitialWindow < 1 {
		return errkit.New(errkit.InvalidInput, "cv: initial_window must be >= 1, got %d", c.InitialWindow).WithField("initial_window")
	}
	if c.Step < 1 {
		return errkit.New(errkit.InvalidInput, "cv: step must be >= 1, got %d", c.Step).WithField("step")
	}
	if n < c.InitialWindow+c.Horizon {
		return errkit.New(errkit.InsufficientData,
			"cv: series length %d is below initial_window+horizon (%d+%d)", n, c.InitialWindow, c.Horizon)
	}
	return nil
}

// Fold is one train/test split: the window boundaries (half-open,
// [TrainStart,TrainEnd) and [TestStart,TestEnd)), the forecast produced from
// training on that window, the actual held-out values, and this fold's own
// accuracy metrics.
type Fold struct {
	Index      int
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
	Predicted  []float64
	Actual     []float64
	Metrics    forecast.AccuracyMetrics
}

// Result is the full cross-validation outcome: every fold plus the
// aggregate metrics computed over the concatenation of all folds'
// predictions and actuals (spec.md §4.11).
type Result struct {
	Folds     []Fold
	Aggregate forecast.AccuracyMetrics
}

// Factory constructs a fresh, unfit forecaster for one fold. Cross-
// validation never reuses a forecaster instance across folds: each fold
// fits a fresh one (spec.md §4.11, "fits a fresh forecaster via a factory
// callback").
type Factory func() forecast.Forecaster

// Run executes rolling or expanding cross-validation over ts against the
// forecaster produced by factory, per the exact fold-generation rule of
// spec.md §4.11:
//
//	Rolling:   train [s_i - initial_window, s_i), test [s_i, s_i + horizon)
//	Expanding: train [0, s_i),                    test [s_i, s_i + horizon)
//
// s_0 = initial_window; s_{i+1} = s_i + step. Generation stops once
// s_i + horizon > n, or after cfg.NWindows folds if NWindows > 0.
func Run(ts *timeseries.TimeSeries, cfg Config, factory Factory) (Result, error) {
	if !ts.Univariate() {
		return Result{}, errkit.New(errkit.InvalidInput, "cv: multivariate series not supported")
	}
	y := ts.Values()
	n := len(y)
	if err := cfg.validate(n); err != nil {
		return Result{}, err
	}

	var folds []Fold
	var allPred, allActual []float64

	for s := cfg.InitialWindow; s+cfg.Horizon <= n; s += cfg.Step {
		if cfg.NWindows > 0 && len(folds) >= cfg.NWindows {
			break
		}

		trainStart := 0
		if cfg.Strategy == Rolling {
			trainStart = s - cfg.InitialWindow
		}
		trainTS, err := ts.Slice(trainStart, s)
		if err != nil {
			return Result{}, err
		}

		foldStart := time.Now()
		f := factory()
		if err := f.Fit(trainTS); err != nil {
			return Result{}, errkit.New(errkit.NumericalFailure,
				"cv: fold at s=%d failed to fit: %v", s, err)
		}
		fc, err := f.Predict(cfg.Horizon)
		if err != nil {
			return Result{}, errkit.New(errkit.NumericalFailure,
				"cv: fold at s=%d failed to predict: %v", s, err)
		}

		actual := append([]float64(nil), y[s:s+cfg.Horizon]...)
		metrics, err := forecast.Score(actual, fc.Point, nil)
		if err != nil {
			return Result{}, err
		}
		if cfg.Telemetry != nil {
			name := cfg.ModelName
			if name == "" {
				name = "unknown"
			}
			cfg.Telemetry.ObserveCVFold(name, fmt.Sprint(len(folds)), time.Since(foldStart), metrics.MAE)
		}

		folds = append(folds, Fold{
			Index:      len(folds),
			TrainStart: trainStart,
			TrainEnd:   s,
			TestStart:  s,
			TestEnd:    s + cfg.Horizon,
			Predicted:  fc.Point,
			Actual:     actual,
			Metrics:    metrics,
		})
		allPred = append(allPred, fc.Point...)
		allActual = append(allActual, actual...)
	}

	if len(folds) == 0 {
		return Result{}, errkit.New(errkit.InsufficientData, "cv: no folds could be generated")
	}

	aggregate, err := forecast.Score(allActual, allPred, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Folds: folds, Aggregate: aggregate}, nil
}
