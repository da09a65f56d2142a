// Package automfles implements both AutoMFLES tuner families of spec.md
// §4.9 (IC-based grid search and CV-based canonical search) plus the
// AutoMSTL trend x seasonal-method enumerator. Spec.md §9 is explicit that
// "both are valid and tuned to different use cases; implementations must
// expose both and let the caller pick" — Fit (IC-based) and FitCV
// (CV-based) are both exported for that reason rather than one subsuming
// the other.
//
// Grounded on the teacher's pkg/anomaly/consensus.go enumerate-then-select
// shape, the same pattern pkg/autoets and pkg/autoarima use, replacing
// consensus voting with pkg/tuner's single-score candidate ranking.
package automfles

import (
	"fmt"
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/logging"
	"github.com/aouyang1-labs/forecastcore/pkg/mfles"
	"github.com/aouyang1-labs/forecastcore/pkg/telemetry"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
	"github.com/aouyang1-labs/forecastcore/pkg/tuner"
)

// ICConfig parameterizes the IC-based AutoMFLES search (spec.md §4.9):
// "grid search over iterations in {1..7}, and learning rates (trend,
// season, level); select by AIC = n*ln(SSE/n) + 2*k".
type ICConfig struct {
	SeasonalPeriods  []int
	TrendMethod      mfles.TrendMethod
	ResidualSmoother mfles.ResidualSmoother

	// Rounds is the candidate grid of MaxRounds ("iterations") values.
	// Defaults to {1,2,3,4,5,6,7} per spec.md §4.9.
	Rounds []int
	// LearningRates is the shared candidate grid searched independently
	// for the trend, season, and residual-smoothing ("level") learning
	// rates. Defaults to {0.3, 0.6, 0.9}.
	LearningRates []float64

	MaxConsecutiveFailures int

	// Sink receives structured progress events from the candidate search
	// (candidate failures, the trip decision). Defaults to logging.Nop().
	Sink logging.Sink
	// Telemetry, if non-nil, records the winning candidate's AIC. A nil
	// Telemetry is always a safe no-op.
	Telemetry *telemetry.Exporter
}

func (c ICConfig) withDefaults() ICConfig {
	if len(c.Rounds) == 0 {
		c.Rounds = []int{1, 2, 3, 4, 5, 6, 7}
	}
	if len(c.LearningRates) == 0 {
		c.LearningRates = []float64{0.3, 0.6, 0.9}
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 20
	}
	return c
}

// CandidateSummary records one evaluated candidate's grid point and score.
type CandidateSummary struct {
	Rounds                  int
	LRTrend, LRSeason, LRRS float64
	Score                   float64
	Valid                   bool
}

// Result is the outcome of an IC-based AutoMFLES search.
type Result struct {
	Best            *mfles.Model
	BestScore       float64
	ModelsEvaluated int
	ModelsFailed    int
	Candidates      []CandidateSummary
}

// Fit runs the IC-based AutoMFLES grid search over ts and refits the
// winning configuration under the name "AutoMFLES" (spec.md §6).
func Fit(ts *timeseries.TimeSeries, cfg ICConfig) (*Result, error) {
	if !ts.Univariate() {
		return nil, errkit.New(errkit.InvalidInput, "automfles: model requires a univariate series")
	}
	cfg = cfg.withDefaults()
	n := ts.Len()

	guard := tuner.NewGuard(cfg.MaxConsecutiveFailures)
	guard.SetSink(cfg.Sink)
	var candidates []tuner.Candidate
	var summaries []CandidateSummary
	modelsByID := make(map[string]mfles.Config)

roundLoop:
	for _, rounds := range cfg.Rounds {
		for _, lrTrend := range cfg.LearningRates {
			for _, lrSeason := range cfg.LearningRates {
				for _, lrRS := range cfg.LearningRates {
					if guard.ShouldStop() {
						break roundLoop
					}
					mcfg := mfles.Config{
						MaxRounds:        rounds,
						SeasonalPeriods:  cfg.SeasonalPeriods,
						TrendMethod:      cfg.TrendMethod,
						ResidualSmoother: cfg.ResidualSmoother,
						LRTrend:          lrTrend,
						LRSeason:         lrSeason,
						LRRS:             lrRS,
					}
					id := fmt.Sprintf("%d-%.3f-%.3f-%.3f", rounds, lrTrend, lrSeason, lrRS)

					score, ok := evaluateIC(ts, mcfg, n)
					if !ok {
						guard.RecordFailure()
						summaries = append(summaries, CandidateSummary{Rounds: rounds, LRTrend: lrTrend, LRSeason: lrSeason, LRRS: lrRS, Valid: false})
						continue
					}
					guard.RecordSuccess()
					modelsByID[id] = mcfg
					candidates = append(candidates, tuner.Candidate{ID: id, Score: score, Valid: true})
					summaries = append(summaries, CandidateSummary{Rounds: rounds, LRTrend: lrTrend, LRSeason: lrSeason, LRRS: lrRS, Score: score, Valid: true})
				}
			}
		}
	}

	best, ok := tuner.Best(candidates)
	if !ok {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: all %d candidates failed to fit", guard.Failed())
	}

	winning := modelsByID[best.ID]
	final := mfles.NewWithName(winning, "AutoMFLES")
	if err := final.Fit(ts); err != nil {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: winning candidate failed to refit: %v", err)
	}
	if cfg.Telemetry != nil {
		cfg.Telemetry.ObserveSelected("AutoMFLES", "aic", best.Score)
	}

	return &Result{
		Best:            final,
		BestScore:       best.Score,
		ModelsEvaluated: guard.Evaluated(),
		ModelsFailed:    guard.Failed(),
		Candidates:      summaries,
	}, nil
}

// evaluateIC fits one MFLES candidate and scores it by spec.md §4.9's
// literal AIC formula: n*ln(SSE/n) + 2*k. SSE is clamped away from zero
// before the log so a (near-)perfect in-sample fit doesn't produce -Inf.
func evaluateIC(ts *timeseries.TimeSeries, mcfg mfles.Config, n int) (float64, bool) {
	m := mfles.New(mcfg)
	if err := m.Fit(ts); err != nil {
		return 0, false
	}
	diag := m.Diagnostics()
	sse := diag.FinalSSE
	if sse <= 0 {
		sse = 1e-12
	}
	aic := float64(n)*math.Log(sse/float64(n)) + 2*float64(diag.FreeParameters)
	if math.IsNaN(aic) || math.IsInf(aic, 0) {
		return 0, false
	}
	return aic, true
}
