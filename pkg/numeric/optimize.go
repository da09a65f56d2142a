package numeric

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bounds is an inclusive [Lo, Hi] box constraint on one parameter.
type Bounds struct {
	Lo, Hi float64
}

// clamp projects x into [b.Lo, b.Hi].
func (b Bounds) clamp(x float64) float64 {
	if x < b.Lo {
		return b.Lo
	}
	if x > b.Hi {
		return b.Hi
	}
	return x
}

// toUnconstrained maps a point inside (Lo, Hi) to an unconstrained real via
// the logit transform, so an unconstrained method like Nelder-Mead can
// search a bounded parameter (ETS's smoothing parameters in [0,1], its
// damping phi in [0.8,0.999], ...) without ever evaluating the objective
// outside the feasible region.
func (b Bounds) toUnconstrained(x float64) float64 {
	span := b.Hi - b.Lo
	if span <= 0 {
		return 0
	}
	p := (x - b.Lo) / span
	p = math.Min(math.Max(p, 1e-9), 1-1e-9)
	return math.Log(p / (1 - p))
}

// fromUnconstrained is the inverse logistic transform.
func (b Bounds) fromUnconstrained(u float64) float64 {
	span := b.Hi - b.Lo
	p := 1 / (1 + math.Exp(-u))
	return b.Lo + p*span
}

// GridSearchResult is the outcome of a grid search refined by local descent.
type GridSearchResult struct {
	X          []float64
	F          float64
	Converged  bool
	Iterations int
}

// GridThenNelderMead performs a coarse grid search over box-constrained
// parameters to find a good starting point, then refines it with a bounded
// Nelder-Mead simplex search. This mirrors the teacher's holt_winters.go
// optimizeParameters (a coordinate grid search over alpha/beta/gamma), only
// generalized to d dimensions and followed by continuous refinement via
// gonum's simplex method.
//
// objective is evaluated at real (bounded) parameter values; gridSteps
// controls the resolution of the initial grid search along each dimension.
func GridThenNelderMead(objective func(x []float64) float64, bounds []Bounds, gridSteps int, maxIter int) GridSearchResult {
	if len(bounds) == 0 {
		return GridSearchResult{Converged: true}
	}
	if gridSteps < 2 {
		gridSteps = 2
	}

	best := make([]float64, len(bounds))
	bestF := math.Inf(1)
	point := make([]float64, len(bounds))

	var search func(dim int)
	search = func(dim int) {
		if dim == len(bounds) {
			f := objective(point)
			if f < bestF {
				bestF = f
				copy(best, point)
			}
			return
		}
		b := bounds[dim]
		step := (b.Hi - b.Lo) / float64(gridSteps-1)
		for s := 0; s < gridSteps; s++ {
			point[dim] = b.clamp(b.Lo + step*float64(s))
			search(dim + 1)
		}
	}
	search(0)

	refined, f, converged, iters := boundedNelderMead(objective, bounds, best, maxIter)
	if f < bestF {
		return GridSearchResult{X: refined, F: f, Converged: converged, Iterations: iters}
	}
	return GridSearchResult{X: best, F: bestF, Converged: converged, Iterations: iters}
}

// boundedNelderMead runs gonum's Nelder-Mead simplex method in the
// unconstrained (logit-transformed) space and maps the result back into the
// bounded parameter space.
func boundedNelderMead(objective func(x []float64) float64, bounds []Bounds, init []float64, maxIter int) ([]float64, float64, bool, int) {
	n := len(bounds)
	u0 := make([]float64, n)
	for i, b := range bounds {
		u0[i] = b.toUnconstrained(init[i])
	}

	wrapped := func(u []float64) float64 {
		x := make([]float64, n)
		for i, b := range bounds {
			x[i] = b.fromUnconstrained(u[i])
		}
		v := objective(x)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	problem := optimize.Problem{Func: wrapped}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		FuncEvaluations: maxIter * 4,
	}
	result, err := optimize.Minimize(problem, u0, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		x := make([]float64, n)
		for i, b := range bounds {
			x[i] = b.fromUnconstrained(u0[i])
		}
		return x, objective(x), false, 0
	}

	x := make([]float64, n)
	for i, b := range bounds {
		x[i] = b.fromUnconstrained(result.X[i])
	}
	converged := result.Status == optimize.Success || result.Status == optimize.FunctionConvergence
	return x, objective(x), converged, result.Stats.MajorIterations
}
