package tuner

import "sort"

// Candidate is one scored entry in an auto-tuner's search: a model
// configuration identified by ID, a primary Score (an information criterion
// or CV loss, lower is better), and an ordered sequence of TieBreakKeys used
// only when two candidates' Scores are equal (e.g. AutoARIMA's "prefer lower
// total order; then lower individual orders in canonical sequence
// (p,q,P,Q,drift,constant)").
//
// Adapted from the normalize -> rank -> pick-best shape of the teacher's
// pkg/pareto Optimizer, collapsed from multi-objective Pareto dominance
// (not needed here - every tuner in spec.md selects by a single scalar
// score) down to a stable comparator sort.
type Candidate struct {
	ID           string
	Score        float64
	TieBreakKeys []float64
	Valid        bool
	Payload      any
}

// Less reports whether a should be preferred over b: lower Score wins, and
// on a Score tie the first differing TieBreakKey (in order) wins, lower
// value preferred.
func Less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	n := len(a.TieBreakKeys)
	if len(b.TieBreakKeys) < n {
		n = len(b.TieBreakKeys)
	}
	for i := 0; i < n; i++ {
		if a.TieBreakKeys[i] != b.TieBreakKeys[i] {
			return a.TieBreakKeys[i] < b.TieBreakKeys[i]
		}
	}
	return len(a.TieBreakKeys) < len(b.TieBreakKeys)
}

// Rank returns the valid candidates from in, stably sorted best-first.
// Invalid candidates (Valid == false; a diverged or non-finite fit) are
// dropped, mirroring AutoETS marking a candidate invalid rather than
// letting it win by default.
func Rank(in []Candidate) []Candidate {
	valid := make([]Candidate, 0, len(in))
	for _, c := range in {
		if c.Valid {
			valid = append(valid, c)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return Less(valid[i], valid[j])
	})
	return valid
}

// Best returns the single best candidate from in, or false if none are
// valid.
func Best(in []Candidate) (Candidate, bool) {
	ranked := Rank(in)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}
