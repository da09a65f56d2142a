// Package forecast defines the contract every model in the core
// implements: fit/predict/name/score over a Forecast value, plus the
// accuracy-metric definitions shared by cross-validation and auto-tuning.
//
// Grounded on the teacher's pkg/prediction/predictor.go Predictor
// interface, ForecastResult, and ErrorMetrics, generalized from a
// CPU/memory-workload-specific shape to the general univariate contract.
package forecast

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// DefaultConfidenceLevel is used by predictWithConfidence callers that don't
// specify one explicitly (spec.md §4.1).
const DefaultConfidenceLevel = 0.90

// Forecast is the value returned by predict: a point forecast of length h,
// optional symmetric lower/upper quantile bands, the producing model's
// name, the confidence level the bands were computed at (if any), and the
// in-sample fitted values from training (if retained).
type Forecast struct {
	Point           []float64
	Lower           []float64
	Upper           []float64
	ModelName       string
	ConfidenceLevel float64
	InsampleFitted  []float64
}

// AccuracyMetrics is the fixed set of accuracy measures defined in
// spec.md §3. Metrics that cannot be computed for the data
// (MAPE/SMAPE/MASE/R2) keep their zero value and have their companion Has*
// boolean set to false; callers check the boolean for presence.
type AccuracyMetrics struct {
	N int

	MAE  float64
	MSE  float64
	RMSE float64

	MAPE        float64
	HasMAPE     bool
	SMAPE       float64
	HasSMAPE    bool
	MASE        float64
	HasMASE     bool
	RSquared    float64
	HasRSquared bool
}

// Forecaster is the polymorphic contract every model in the core
// implements (spec.md §4.1).
type Forecaster interface {
	// Fit validates ts (rejecting multivariate series for scalar models
	// with InvalidInput), stores the fitted state, and computes in-sample
	// fitted values and residuals.
	Fit(ts *timeseries.TimeSeries) error
	// Predict requires a prior successful Fit and h >= 1; it returns a
	// point forecast of length h.
	Predict(h int) (Forecast, error)
	// Name returns the stable model identifier used by auto-tuners and
	// loggers (the exact strings enumerated in spec.md §6).
	Name() string
}

// ConfidencePredictor is implemented by forecasters that can additionally
// populate symmetric Gaussian quantile bands (spec.md §4.1).
type ConfidencePredictor interface {
	Forecaster
	PredictWithConfidence(h int, level float64) (Forecast, error)
}

// Score computes AccuracyMetrics comparing actual against predicted, with
// an optional baseline prediction used for MASE's denominator (spec.md
// §3's definitions). actual and predicted must have equal, non-zero
// length; baseline, if non-nil, must match as well.
func Score(actual, predicted, baseline []float64) (AccuracyMetrics, error) {
	if len(actual) != len(predicted) {
		return AccuracyMetrics{}, errkit.New(errkit.InvalidInput,
			"score: actual length %d does not match predicted length %d", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return AccuracyMetrics{}, errkit.New(errkit.InvalidInput, "score: actual/predicted must be non-empty")
	}
	if baseline != nil && len(baseline) != len(actual) {
		return AccuracyMetrics{}, errkit.New(errkit.InvalidInput,
			"score: baseline length %d does not match actual length %d", len(baseline), len(actual))
	}

	n := len(actual)
	var sumAbs, sumSq float64
	var sumMape, sumSmape float64
	var nMape, nSmape int

	for i := 0; i < n; i++ {
		a, p := actual[i], predicted[i]
		diff := a - p
		sumAbs += math.Abs(diff)
		sumSq += diff * diff

		if a != 0 {
			sumMape += math.Abs(diff) / math.Abs(a)
			nMape++
		}
		denom := math.Abs(a) + math.Abs(p)
		if denom != 0 {
			sumSmape += 2 * math.Abs(diff) / denom
			nSmape++
		}
	}

	mae := sumAbs / float64(n)
	mse := sumSq / float64(n)
	metrics := AccuracyMetrics{
		N:    n,
		MAE:  mae,
		MSE:  mse,
		RMSE: math.Sqrt(mse),
	}

	if nMape > 0 {
		metrics.MAPE = sumMape / float64(nMape)
		metrics.HasMAPE = true
	}
	if nSmape > 0 {
		metrics.SMAPE = sumSmape / float64(nSmape)
		metrics.HasSMAPE = true
	}

	if baseline != nil {
		var baseAbs float64
		for i := 0; i < n; i++ {
			baseAbs += math.Abs(actual[i] - baseline[i])
		}
		baseMae := baseAbs / float64(n)
		if baseMae != 0 {
			metrics.MASE = mae / baseMae
			metrics.HasMASE = true
		}
	}

	mean := 0.0
	for _, a := range actual {
		mean += a
	}
	mean /= float64(n)
	var ssTot float64
	for _, a := range actual {
		d := a - mean
		ssTot += d * d
	}
	if ssTot != 0 {
		metrics.RSquared = 1 - sumSq/ssTot
		metrics.HasRSquared = true
	}

	return metrics, nil
}
