// Package telemetry exposes optional Prometheus instrumentation for
// forecasting operations. It is constructed once by the caller and passed
// into auto-tuners; the core never registers it against the global
// prometheus registry and a nil *Exporter is always a safe no-op.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter exposes forecasting metrics to Prometheus, mirroring the shape of
// the teacher's PrometheusExporter (CounterVec/HistogramVec/GaugeVec built
// via promauto) but scoped to forecasting concerns instead of cluster
// reconciliation.
type Exporter struct {
	FitsTotal         *prometheus.CounterVec
	FitDuration       *prometheus.HistogramVec
	FitFailuresTotal  *prometheus.CounterVec
	PredictsTotal     *prometheus.CounterVec
	CandidatesEval    *prometheus.CounterVec
	CandidatesFailed  *prometheus.CounterVec
	TunerSelectedIC   *prometheus.GaugeVec
	CVFoldDuration    *prometheus.HistogramVec
	CVFoldMAE         *prometheus.GaugeVec
}

// NewExporter registers a forecasting Exporter under the given namespace
// against reg. If reg is nil, the metrics are created but registered with
// no registry (promauto.With(nil) behavior).
func NewExporter(namespace string, reg prometheus.Registerer) *Exporter {
	factory := promauto.With(reg)

	return &Exporter{
		FitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fits_total",
				Help:      "Total number of Fit calls by model name and result",
			},
			[]string{"model", "result"},
		),
		FitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_duration_seconds",
				Help:      "Duration of Fit calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		FitFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fit_failures_total",
				Help:      "Total number of Fit failures by error kind",
			},
			[]string{"model", "kind"},
		),
		PredictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predicts_total",
				Help:      "Total number of Predict calls by model name",
			},
			[]string{"model"},
		),
		CandidatesEval: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuner_candidates_evaluated_total",
				Help:      "Total number of auto-tuner candidates evaluated",
			},
			[]string{"tuner"},
		),
		CandidatesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuner_candidates_failed_total",
				Help:      "Total number of auto-tuner candidates that failed to fit",
			},
			[]string{"tuner"},
		),
		TunerSelectedIC: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tuner_selected_information_criterion",
				Help:      "Information criterion value of the auto-tuner's selected candidate",
			},
			[]string{"tuner", "criterion"},
		),
		CVFoldDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cv_fold_duration_seconds",
				Help:      "Duration of a single cross-validation fold in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		CVFoldMAE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cv_fold_mae",
				Help:      "Mean absolute error of the most recent cross-validation fold",
			},
			[]string{"model", "fold"},
		),
	}
}

// ObserveFit records a Fit call's outcome and duration. A nil Exporter is a
// no-op, so callers may pass telemetry freely without nil-checking.
func (e *Exporter) ObserveFit(model string, d time.Duration, err error) {
	if e == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	e.FitsTotal.WithLabelValues(model, result).Inc()
	e.FitDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveFitFailure records a Fit failure by error kind.
func (e *Exporter) ObserveFitFailure(model, kind string) {
	if e == nil {
		return
	}
	e.FitFailuresTotal.WithLabelValues(model, kind).Inc()
}

// ObservePredict records a Predict call.
func (e *Exporter) ObservePredict(model string) {
	if e == nil {
		return
	}
	e.PredictsTotal.WithLabelValues(model).Inc()
}

// ObserveCandidate records one auto-tuner candidate evaluation outcome.
func (e *Exporter) ObserveCandidate(tuner string, failed bool) {
	if e == nil {
		return
	}
	e.CandidatesEval.WithLabelValues(tuner).Inc()
	if failed {
		e.CandidatesFailed.WithLabelValues(tuner).Inc()
	}
}

// ObserveSelected records the information criterion of the tuner's winner.
func (e *Exporter) ObserveSelected(tuner, criterion string, value float64) {
	if e == nil {
		return
	}
	e.TunerSelectedIC.WithLabelValues(tuner, criterion).Set(value)
}

// ObserveCVFold records a single cross-validation fold's duration and MAE.
func (e *Exporter) ObserveCVFold(model, fold string, d time.Duration, mae float64) {
	if e == nil {
		return
	}
	e.CVFoldDuration.WithLabelValues(model).Observe(d.Seconds())
	e.CVFoldMAE.WithLabelValues(model, fold).Set(mae)
}
