package automfles

import (
	"fmt"
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/baseline"
	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/ets"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/logging"
	"github.com/aouyang1-labs/forecastcore/pkg/mstl"
	"github.com/aouyang1-labs/forecastcore/pkg/telemetry"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
	"github.com/aouyang1-labs/forecastcore/pkg/tuner"
)

// MSTLTrendMethod is one of AutoMSTL's six trend-method candidates
// (spec.md §4.9).
type MSTLTrendMethod int

const (
	MSTLTrendLinear MSTLTrendMethod = iota
	MSTLTrendSES
	MSTLTrendHolt
	MSTLTrendNone
	MSTLTrendETSAdditiveError
	MSTLTrendETSMultiplicativeError
)

// MSTLSeasonalMethod is one of AutoMSTL's three seasonal-method candidates
// (spec.md §4.9).
type MSTLSeasonalMethod int

const (
	MSTLSeasonalCyclic MSTLSeasonalMethod = iota
	MSTLSeasonalETSAdditive
	MSTLSeasonalETSMultiplicative
)

// MSTLConfig parameterizes an AutoMSTL search: the fixed decomposition
// periods/iterations shared by every one of the 18 trend x seasonal
// candidates.
type MSTLConfig struct {
	Periods                []int
	Iterations             int
	MaxConsecutiveFailures int

	// Sink receives structured progress events from the candidate search.
	// Defaults to logging.Nop().
	Sink logging.Sink
	// Telemetry, if non-nil, records the winning candidate's AIC. A nil
	// Telemetry is always a safe no-op.
	Telemetry *telemetry.Exporter
}

func (c MSTLConfig) withDefaults() MSTLConfig {
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 8
	}
	return c
}

// MSTLCandidateSummary records one of the 18 evaluated trend x seasonal
// combinations and its AIC score.
type MSTLCandidateSummary struct {
	Trend    MSTLTrendMethod
	Seasonal MSTLSeasonalMethod
	Score    float64
	Valid    bool
}

// MSTLResult is the outcome of an AutoMSTL search.
type MSTLResult struct {
	Best            *mstl.Model
	BestScore       float64
	ModelsEvaluated int
	ModelsFailed    int
	Candidates      []MSTLCandidateSummary
}

var mstlTrendMethods = []MSTLTrendMethod{
	MSTLTrendLinear, MSTLTrendSES, MSTLTrendHolt, MSTLTrendNone, MSTLTrendETSAdditiveError, MSTLTrendETSMultiplicativeError,
}

var mstlSeasonalMethods = []MSTLSeasonalMethod{
	MSTLSeasonalCyclic, MSTLSeasonalETSAdditive, MSTLSeasonalETSMultiplicative,
}

// FitMSTL runs AutoMSTL: enumerates all 6x3 trend/seasonal-method
// combinations, fits each MSTL candidate on the full history, and selects
// the lowest-AIC candidate, refit and reported under the name "AutoMSTL"
// (spec.md §4.9, §6).
func FitMSTL(ts *timeseries.TimeSeries, cfg MSTLConfig) (*MSTLResult, error) {
	if !ts.Univariate() {
		return nil, errkit.New(errkit.InvalidInput, "automfles: model requires a univariate series")
	}
	cfg = cfg.withDefaults()
	y := ts.Values()
	n := len(y)

	guard := tuner.NewGuard(cfg.MaxConsecutiveFailures)
	guard.SetSink(cfg.Sink)
	var candidates []tuner.Candidate
	var summaries []MSTLCandidateSummary
	configsByID := make(map[string]mstl.Config)

trendLoop:
	for _, tm := range mstlTrendMethods {
		for _, sm := range mstlSeasonalMethods {
			if guard.ShouldStop() {
				break trendLoop
			}
			id := fmt.Sprintf("%d-%d", tm, sm)
			mcfg := buildMSTLConfig(tm, sm, cfg.Periods, cfg.Iterations)

			score, ok := evaluateMSTLCandidate(ts, y, n, mcfg, tm, sm, cfg.Periods)
			if !ok {
				guard.RecordFailure()
				summaries = append(summaries, MSTLCandidateSummary{Trend: tm, Seasonal: sm, Valid: false})
				continue
			}
			guard.RecordSuccess()
			configsByID[id] = mcfg
			candidates = append(candidates, tuner.Candidate{ID: id, Score: score, Valid: true})
			summaries = append(summaries, MSTLCandidateSummary{Trend: tm, Seasonal: sm, Score: score, Valid: true})
		}
	}

	best, ok := tuner.Best(candidates)
	if !ok {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: all %d AutoMSTL candidates failed", guard.Failed())
	}

	winning := configsByID[best.ID]
	final := mstl.NewWithName(winning, "AutoMSTL")
	if err := final.Fit(ts); err != nil {
		return nil, errkit.New(errkit.NumericalFailure, "automfles: winning AutoMSTL candidate failed to refit: %v", err)
	}
	if cfg.Telemetry != nil {
		cfg.Telemetry.ObserveSelected("AutoMSTL", "aic", best.Score)
	}

	return &MSTLResult{
		Best:            final,
		BestScore:       best.Score,
		ModelsEvaluated: guard.Evaluated(),
		ModelsFailed:    guard.Failed(),
		Candidates:      summaries,
	}, nil
}

// buildMSTLConfig maps one (trend method, seasonal method) pair onto an
// mstl.Config. "Linear" maps to RandomWalkWithDrift's linear
// two-endpoint extrapolation (spec.md §4.2); "None" to Naive's flat
// continuation; "ETS(M,A,N)" is approximated by fitting additive-error
// ETS(A,A,N) in log-space (logSpaceETS below), the same substitution
// pkg/mfles uses for its own multiplicative mode, since the core only
// implements additive-error ETS (spec.md §9's open question on error
// types).
func buildMSTLConfig(tm MSTLTrendMethod, sm MSTLSeasonalMethod, periods []int, iterations int) mstl.Config {
	cfg := mstl.Config{Periods: periods, Iterations: iterations}

	switch tm {
	case MSTLTrendLinear:
		cfg.TrendForecaster = func() forecast.Forecaster { return &baseline.RandomWalkWithDrift{} }
	case MSTLTrendSES:
		cfg.TrendForecaster = func() forecast.Forecaster { return ets.NewSES(0.3) }
	case MSTLTrendHolt:
		cfg.TrendForecaster = func() forecast.Forecaster { return ets.NewHolt(0.3, 0.1) }
	case MSTLTrendNone:
		cfg.TrendForecaster = func() forecast.Forecaster { return &baseline.Naive{} }
	case MSTLTrendETSAdditiveError:
		cfg.TrendForecaster = func() forecast.Forecaster {
			return ets.NewGeneral(ets.Config{Trend: ets.TrendAdditive, Season: ets.SeasonNone, Alpha: 0.3, Beta: 0.1}, "ETS")
		}
	case MSTLTrendETSMultiplicativeError:
		cfg.TrendForecaster = func() forecast.Forecaster { return newLogSpaceETS() }
	}

	switch sm {
	case MSTLSeasonalCyclic:
		cfg.SeasonalProjectionMethod = mstl.SeasonalCyclic
	case MSTLSeasonalETSAdditive:
		cfg.SeasonalProjectionMethod = mstl.SeasonalModel
		cfg.SeasonalModelKind = ets.SeasonAdditive
	case MSTLSeasonalETSMultiplicative:
		cfg.SeasonalProjectionMethod = mstl.SeasonalModel
		cfg.SeasonalModelKind = ets.SeasonMultiplicative
	}
	return cfg
}

// evaluateMSTLCandidate fits mcfg on the full history and scores it by
// n*ln(SSE/n) + 2*k, with k a per-candidate free-parameter estimate
// (trendFreeParams + seasonalFreeParams below). Spec.md §4.9 names AIC as
// the selection rule but, unlike MFLES's own diagnostics, does not define
// k for the forecaster-level MSTL candidates; this mirrors the shape each
// sub-forecaster already reports for itself (smoothing parameters plus
// initial-state count).
func evaluateMSTLCandidate(ts *timeseries.TimeSeries, y []float64, n int, mcfg mstl.Config, tm MSTLTrendMethod, sm MSTLSeasonalMethod, periods []int) (float64, bool) {
	m := mstl.New(mcfg)
	if err := m.Fit(ts); err != nil {
		return 0, false
	}
	fc, err := m.Predict(1)
	if err != nil {
		return 0, false
	}
	var sse float64
	for i, v := range y {
		d := v - fc.InsampleFitted[i]
		sse += d * d
	}
	if sse <= 0 {
		sse = 1e-12
	}
	k := trendFreeParams(tm) + seasonalFreeParams(sm, periods)
	aic := float64(n)*math.Log(sse/float64(n)) + 2*float64(k)
	if math.IsNaN(aic) || math.IsInf(aic, 0) {
		return 0, false
	}
	return aic, true
}

func trendFreeParams(tm MSTLTrendMethod) int {
	switch tm {
	case MSTLTrendLinear:
		return 2 // slope + intercept
	case MSTLTrendSES:
		return 2 // alpha + initial level
	case MSTLTrendHolt:
		return 4 // alpha, beta, initial level, initial trend
	case MSTLTrendNone:
		return 0
	default: // ETS(A,A,N) and its log-space ETS(M,A,N) approximation
		return 4
	}
}

func seasonalFreeParams(sm MSTLSeasonalMethod, periods []int) int {
	var total int
	for _, p := range periods {
		switch sm {
		case MSTLSeasonalCyclic:
			total += p
		default: // ETS(A,N,A) / ETS(A,N,M): gamma + initial seasonal states
			total += p + 1
		}
	}
	return total
}
