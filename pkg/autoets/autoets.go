// Package autoets enumerates ETS variants (error x trend x season x
// damped) and selects the best by information criterion (spec.md §4.5).
//
// Grounded on the teacher's pkg/anomaly/consensus.go ConsensusDetector
// shape (enumerate child strategies, run each, aggregate/select), replacing
// majority-vote aggregation with pkg/tuner's candidate ranking by a single
// information-criterion score.
package autoets

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/ets"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
	"github.com/aouyang1-labs/forecastcore/pkg/tuner"
)

// InformationCriterion selects the scoring rule used to rank candidates.
type InformationCriterion int

const (
	AIC InformationCriterion = iota
	AICc
	BIC
)

// DampedPolicy gates whether damped-trend variants enter the candidate set
// (spec.md §4.5).
type DampedPolicy int

const (
	DampedAuto DampedPolicy = iota
	DampedAlways
	DampedNever
)

// Objective selects what a candidate's free parameters are optimized
// against (spec.md §4.5). The core implements MSE and Likelihood; AMSE and
// Sigma are accepted but fall back to MSE.
type Objective int

const (
	ObjectiveLikelihood Objective = iota
	ObjectiveMSE
	ObjectiveAMSE
	ObjectiveSigma
)

// Config parameterizes an AutoETS search.
type Config struct {
	Season       int
	Spec         string // Pegels notation, e.g. "ZZZ"; 'Z' means "search"
	Damped       DampedPolicy
	IC           InformationCriterion
	Objective    Objective
	MaxIterations int
	Guard        *tuner.Guard
}

// Result is the outcome of an AutoETS search.
type Result struct {
	// RunID identifies this search for correlating logs/telemetry across a
	// single Fit call's candidate loop.
	RunID           string
	Best            *ets.Model
	BestScore       float64
	ModelsEvaluated int
	ModelsFailed    int
	Candidates      []CandidateSummary
}

// CandidateSummary records one evaluated candidate's configuration and
// score, for diagnostics.
type CandidateSummary struct {
	Trend  ets.TrendKind
	Season ets.SeasonKind
	Damped bool
	Score  float64
	Valid  bool
}

func parseSpec(spec string) (trendChars, seasonChars string, err error) {
	spec = strings.ToUpper(strings.TrimSpace(spec))
	if spec == "" {
		spec = "ZZZ"
	}
	if len(spec) != 3 {
		return "", "", errkit.New(errkit.InvalidInput, "autoets: spec must be 3 Pegels characters (error,trend,season), got %q", spec)
	}
	return string(spec[1]), string(spec[2]), nil
}

func candidateTrends(c rune, damped DampedPolicy) []ets.TrendKind {
	var out []ets.TrendKind
	include := func(k ets.TrendKind) {
		if k == ets.TrendDamped {
			if damped == DampedNever {
				return
			}
		} else if damped == DampedAlways && k != ets.TrendNone {
			return
		}
		out = append(out, k)
	}
	switch c {
	case 'N':
		include(ets.TrendNone)
	case 'A':
		include(ets.TrendAdditive)
		if damped != DampedNever {
			include(ets.TrendDamped)
		}
	default: // 'Z' - search everything
		include(ets.TrendNone)
		include(ets.TrendAdditive)
		if damped != DampedNever {
			include(ets.TrendDamped)
		}
	}
	return dedupTrends(out)
}

func dedupTrends(in []ets.TrendKind) []ets.TrendKind {
	seen := map[ets.TrendKind]bool{}
	out := make([]ets.TrendKind, 0, len(in))
	for _, k := range in {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func candidateSeasons(c rune, season int) []ets.SeasonKind {
	if season <= 1 {
		return []ets.SeasonKind{ets.SeasonNone}
	}
	switch c {
	case 'N':
		return []ets.SeasonKind{ets.SeasonNone}
	case 'A':
		return []ets.SeasonKind{ets.SeasonAdditive}
	case 'M':
		return []ets.SeasonKind{ets.SeasonMultiplicative}
	default: // 'Z'
		return []ets.SeasonKind{ets.SeasonNone, ets.SeasonAdditive, ets.SeasonMultiplicative}
	}
}

// Fit runs the AutoETS search over ts and returns the winning candidate
// plus diagnostics. The caller owns Result.Best; the rest are released
// (spec.md §3's auto-tuner ownership rule).
func Fit(ts *timeseries.TimeSeries, cfg Config) (*Result, error) {
	if !ts.Univariate() {
		return nil, errkit.New(errkit.InvalidInput, "autoets: model requires a univariate series")
	}
	trendChar, seasonChar, err := parseSpec(cfg.Spec)
	if err != nil {
		return nil, err
	}
	season := cfg.Season
	if season < 1 {
		season = 1
	}

	trends := candidateTrends(rune(trendChar[0]), cfg.Damped)
	seasons := candidateSeasons(rune(seasonChar[0]), season)

	guard := cfg.Guard
	if guard == nil {
		guard = tuner.NewGuard(0)
	}

	y := ts.Values()
	n := len(y)

	var candidates []tuner.Candidate
	var summaries []CandidateSummary
	modelsByID := map[string]*ets.Model{}

trendLoop:
	for _, tk := range trends {
		for _, sk := range seasons {
			if guard.ShouldStop() {
				break trendLoop
			}
			m, sc, ok := fitOneCandidate(ts, y, n, tk, sk, season, cfg)
			id := fmt.Sprintf("%d-%d", tk, sk)
			if !ok {
				guard.RecordFailure()
				summaries = append(summaries, CandidateSummary{Trend: tk, Season: sk, Damped: tk == ets.TrendDamped, Valid: false})
				continue
			}
			guard.RecordSuccess()
			modelsByID[id] = m
			candidates = append(candidates, tuner.Candidate{ID: id, Score: sc, Valid: true})
			summaries = append(summaries, CandidateSummary{Trend: tk, Season: sk, Damped: tk == ets.TrendDamped, Score: sc, Valid: true})
		}
	}

	best, ok := tuner.Best(candidates)
	if !ok {
		return nil, errkit.New(errkit.NumericalFailure,
			"autoets: all %d candidates failed to fit", guard.Failed())
	}

	winner := modelsByID[best.ID]
	named := ets.NewGeneral(winner.Config(), "AutoETS")
	if err := named.Fit(ts); err != nil {
		return nil, errkit.New(errkit.NumericalFailure, "autoets: winning candidate failed to refit: %v", err)
	}

	return &Result{
		RunID:           uuid.New().String(),
		Best:            named,
		BestScore:       best.Score,
		ModelsEvaluated: guard.Evaluated(),
		ModelsFailed:    guard.Failed(),
		Candidates:      summaries,
	}, nil
}

func fitOneCandidate(ts *timeseries.TimeSeries, y []float64, n int, tk ets.TrendKind, sk ets.SeasonKind, season int, cfg Config) (*ets.Model, float64, bool) {
	cand := ets.Config{Trend: tk, Season: sk, M: season}
	if tk == ets.TrendDamped {
		cand.Phi = 0.9
	}

	bounds := []numeric.Bounds{ets.SmoothingBounds}
	if tk != ets.TrendNone {
		bounds = append(bounds, ets.SmoothingBounds)
	}
	if sk != ets.SeasonNone {
		bounds = append(bounds, ets.SmoothingBounds)
	}

	objective := func(x []float64) float64 {
		c := cand
		idx := 0
		c.Alpha = x[idx]
		idx++
		if tk != ets.TrendNone {
			c.Beta = x[idx]
			idx++
		}
		if sk != ets.SeasonNone {
			c.Gamma = x[idx]
		}
		m := ets.NewGeneral(c, "ETS")
		if err := m.Fit(ts); err != nil {
			return 1e18
		}
		switch cfg.Objective {
		case ObjectiveLikelihood:
			return -m.Diagnostics().LogLikelihood
		default:
			return m.Diagnostics().MSE
		}
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 150
	}
	result := numeric.GridThenNelderMead(objective, bounds, 5, maxIter)

	final := cand
	idx := 0
	final.Alpha = result.X[idx]
	idx++
	if tk != ets.TrendNone {
		final.Beta = result.X[idx]
		idx++
	}
	if sk != ets.SeasonNone {
		final.Gamma = result.X[idx]
	}

	m := ets.NewGeneral(final, "ETS")
	if err := m.Fit(ts); err != nil {
		return nil, 0, false
	}
	diag := m.Diagnostics()

	var score float64
	switch cfg.IC {
	case AICc:
		score = numeric.AICc(diag.LogLikelihood, diag.FreeParameters, n)
	case BIC:
		score = numeric.BIC(diag.LogLikelihood, diag.FreeParameters, n)
	default:
		score = numeric.AIC(diag.LogLikelihood, diag.FreeParameters)
	}
	if score != score { // NaN check without importing math
		return nil, 0, false
	}
	return m, score, true
}

// Forecaster-contract wrapper so a Result.Best can be used anywhere a
// forecast.Forecaster is expected.
var _ forecast.Forecaster = (*ets.Model)(nil)
