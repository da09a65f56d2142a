package automfles

import (
	"fmt"

	"github.com/aouyang1-labs/forecastcore/pkg/cv"
	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/logging"
	"github.com/aouyang1-labs/forecastcore/pkg/mfles"
	"github.com/aouyang1-labs/forecastcore/pkg/telemetry"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
	"github.com/aouyang1-labs/forecastcore/pkg/tuner"
)

// CVConfig parameterizes the CV-based canonical AutoMFLES search (spec.md
// §4.9): "grid includes {seasonality weights on/off, MA vs ES smoother, MA
// window in {period, period/2, none}, seasonal period on/off}. Default CV
// horizon equals the primary seasonal period; initial window = 10*horizon;
// step = horizon; folds default 2. Select by mean fold MAE."
type CVConfig struct {
	// PrimarySeasonalPeriod anchors both the default CV horizon and the
	// "seasonal period on/off" and "MA window" grid dimensions. Required
	// (> 1).
	PrimarySeasonalPeriod int
	TrendMethod           mfles.TrendMethod

	// Horizon/InitialWindow/Step/Strategy/Folds override the CV harness
	// defaults derived from PrimarySeasonalPeriod. Zero fields fall back
	// to spec.md §4.9's defaults.
	Horizon       int
	InitialWindow int
	Step          int
	Strategy      cv.Strategy
	Folds         int

	// Sink receives structured progress events from the candidate search.
	// Defaults to logging.Nop().
	Sink logging.Sink
	// Telemetry, if non-nil, records each candidate's per-fold duration/MAE
	// and the winner's mean-fold-MAE. A nil Telemetry is always a safe
	// no-op.
	Telemetry *telemetry.Exporter
}

func (c CVConfig) withDefaults() CVConfig {
	if c.Horizon <= 0 {
		c.Horizon = c.PrimarySeasonalPeriod
	}
	if c.InitialWindow <= 0 {
		c.InitialWindow = 10 * c.Horizon
	}
	if c.Step <= 0 {
		c.Step = c.Horizon
	}
	if c.Folds <= 0 {
		c.Folds = 2
	}
	return c
}

// CVCandidateSummary records one evaluated grid point and its mean-fold-MAE
// score.
type CVCandidateSummary struct {
	SeasonalPeriodOn bool
	WeightsOn        bool
	Smoother         mfles.ResidualSmoother
	MAWindow         int // only meaningful when Smoother == SmootherMovingAverage
	Score            float64
	Valid            bool
}

// CVResult is the outcome of a CV-based AutoMFLES search.
type CVResult struct {
	Best            *mfles.Model
	BestScore       float64
	ModelsEvaluated int
	ModelsFailed    int
	Candidates      []CVCandidateSummary
}

// candidateMAWindows is the "MA window in {period, period/2, none}" grid
// dimension: the primary period, half that period (floor, minimum 1), and
// a fixed small window standing in for "none" (no period tie).
func candidateMAWindows(period int) []int {
	half := period / 2
	if half < 1 {
		half = 1
	}
	return []int{period, half, 3}
}

// FitCV runs the CV-based canonical AutoMFLES search over ts and refits
// the winning configuration under the name "AutoMFLES" on the full
// history (spec.md §6, §4.9).
func FitCV(ts *timeseries.TimeSeries, cfg CVConfig) (*CVResult, error) {
	if !ts.Univariate() {
		return nil, errkit.New(errkit.InvalidInput, "automfles: model requires a univariate series")
	}
	if cfg.PrimarySeasonalPeriod < 2 {
		return nil, errkit.New(errkit.InvalidInput, "automfles: PrimarySeasonalPeriod must be >= 2").WithField("primary_seasonal_period")
	}
	cfg = cfg.withDefaults()

	guard := tuner.NewGuard(len(candidateMAWindows(cfg.PrimarySeasonalPeriod)) + 4)
	guard.SetSink(cfg.Sink)
	var candidates []tuner.Candidate
	var summaries []CVCandidateSummary
	configsByID := make(map[string]mfles.Config)

	cvCfg := cv.Config{
		Horizon: cfg.Horizon, InitialWindow: cfg.InitialWindow, Step: cfg.Step, Strategy: cfg.Strategy, NWindows: cfg.Folds,
		ModelName: "AutoMFLES-candidate", Telemetry: cfg.Telemetry,
	}

	for _, periodOn := range []bool{true, false} {
		var periods []int
		if periodOn {
			periods = []int{cfg.PrimarySeasonalPeriod}
		}
		for _, weightsOn := range []bool{true, false} {
			evaluate := func(mcfg mfles.Config, summary CVCandidateSummary) {
				if guard.ShouldStop() {
					return
				}
				id := fmt.Sprintf("p%v-w%v-s%d-ma%d", periodOn, weightsOn, mcfg.ResidualSmoother, mcfg.MAWindow)
				score, ok := evaluateCV(ts, mcfg, cvCfg)
				summary.Score = score
				summary.Valid = ok
				if !ok {
					guard.RecordFailure()
					summaries = append(summaries, summary)
					return
				}
				guard.RecordSuccess()
				configsByID[id] = mcfg
				candidates = append(candidates, tuner.Candidate{ID: id, Score: score, Valid: true})
				summaries = append(summaries, summary)
			}

			esCfg := mfles.Config{
				SeasonalPeriods:               periods,
				TrendMethod:                   cfg.TrendMethod,
				ResidualSmoother:              mfles.SmootherESEnsemble,
				TimeIncreasingSeasonalWeights: weightsOn,
			}
			evaluate(esCfg, CVCandidateSummary{SeasonalPeriodOn: periodOn, WeightsOn: weightsOn, Smoother: mfles.SmootherESEnsemble})

			for _, window := range candidateMAWindows(cfg.PrimarySeasonalPeriod) {
				maCfg := mfles.Config{
					SeasonalPeriods:               periods,
					TrendMethod:                   cfg.TrendMethod,
					ResidualSmoother:              mfles.SmootherMovingAverage,
					MAWindow:                      window,
					TimeIncreasingSeasonalWeights: weightsOn,
				}
				evaluate(maCfg, CVCandidateSummary{SeasonalPeriodOn: periodOn, WeightsOn: weightsOn, Smoother: mfles.SmootherMovingAverage, MAWindow: window})
			}
		}
	}

	best, ok := tuner.Best(candidates)
	if !ok {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: all %d CV candidates failed", guard.Failed())
	}

	winning := configsByID[best.ID]
	final := mfles.NewWithName(winning, "AutoMFLES")
	if err := final.Fit(ts); err != nil {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: winning CV candidate failed to refit: %v", err)
	}
	if cfg.Telemetry != nil {
		cfg.Telemetry.ObserveSelected("AutoMFLES", "mean_fold_mae", best.Score)
	}

	return &CVResult{
		Best:            final,
		BestScore:       best.Score,
		ModelsEvaluated: guard.Evaluated(),
		ModelsFailed:    guard.Failed(),
		Candidates:      summaries,
	}, nil
}

// evaluateCV scores one MFLES candidate by the mean of its per-fold MAE
// under cross-validation (spec.md §4.9: "select by mean fold MAE" — the
// average of each fold's own metric, not the metric of the concatenated
// predictions cv.Result.Aggregate reports).
func evaluateCV(ts *timeseries.TimeSeries, mcfg mfles.Config, cvCfg cv.Config) (float64, bool) {
	factory := func() forecast.Forecaster { return mfles.New(mcfg) }
	result, err := cv.Run(ts, cvCfg, factory)
	if err != nil {
		return 0, false
	}
	var sum float64
	for _, f := range result.Folds {
		sum += f.Metrics.MAE
	}
	if len(result.Folds) == 0 {
		return 0, false
	}
	return sum / float64(len(result.Folds)), true
}
