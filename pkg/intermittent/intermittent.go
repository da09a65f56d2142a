// Package intermittent implements the intermittent-demand estimators of
// spec.md §4.6: Croston (classic/SBA/optimized), TSB, ADIDA, and IMAPA —
// for series where zero is the most common value.
//
// Grounded on the teacher's pkg/prediction/holt_winters.go level-update
// recurrence (level_t = level_{t-1} + alpha*(y_t - level_{t-1})),
// specialized here to the demand-size/inter-arrival-interval sequences
// Croston/TSB smooth independently, and on pkg/ets's SESOptimized for the
// aggregated-scale fit ADIDA/IMAPA delegate to.
package intermittent

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func checkUnivariate(ts *timeseries.TimeSeries, name string) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "%s: model requires a univariate series", name)
	}
	return nil
}

// nonZeroOccurrences returns the demand sizes z and inter-arrival
// intervals p of spec.md §4.6, plus the original index of each occurrence.
// p[0] is the interval from series start (index 0) to the first nonzero
// observation, inclusive of that observation's own position
// (idx[0]+1, per spec.md §8 scenario 6); p[k] for k>=1 is the gap between
// successive nonzero indices.
func nonZeroOccurrences(y []float64) (z, p []float64, idx []int) {
	for i, v := range y {
		if v != 0 {
			idx = append(idx, i)
			z = append(z, v)
		}
	}
	p = make([]float64, len(idx))
	for k, i := range idx {
		if k == 0 {
			p[k] = float64(i + 1)
		} else {
			p[k] = float64(i - idx[k-1])
		}
	}
	return z, p, idx
}

// sesTrace runs the plain level-only exponential-smoothing recurrence
// (ets's no-trend, no-season special case) over data, returning the level
// after each update: level[0]=data[0], level[t]=level[t-1]+alpha*(data[t]-level[t-1]).
func sesTrace(data []float64, alpha float64) []float64 {
	levels := make([]float64, len(data))
	levels[0] = data[0]
	for t := 1; t < len(data); t++ {
		e := data[t] - levels[t-1]
		levels[t] = levels[t-1] + alpha*e
	}
	return levels
}

// crostonFit computes the shared Croston-family point forecast, fitted
// reconstruction, and final (zLevel, pLevel) smoothed states. bias is 1.0
// for CrostonClassic and 0.95 for CrostonSBA (spec.md §4.6).
func crostonFit(y []float64, alphaZ, alphaP, bias float64) (point float64, fitted []float64, zLevel, pLevel float64, err error) {
	z, p, idx := nonZeroOccurrences(y)
	if len(z) == 0 {
		return 0, nil, 0, 0, errkit.New(errkit.InsufficientData, "croston: series has no non-zero demand")
	}

	zLevels := sesTrace(z, alphaZ)
	pLevels := sesTrace(p, alphaP)

	fitted = make([]float64, len(y))
	for i := range fitted {
		fitted[i] = math.NaN()
	}
	for k := range idx {
		ratio := bias * zLevels[k] / pLevels[k]
		start := idx[k] + 1
		end := len(y) - 1
		if k+1 < len(idx) {
			end = idx[k+1]
		}
		for t := start; t <= end && t < len(y); t++ {
			fitted[t] = ratio
		}
	}

	last := len(idx) - 1
	point = bias * zLevels[last] / pLevels[last]
	return point, fitted, zLevels[last], pLevels[last], nil
}

func reconstructionMSE(y, fitted []float64) float64 {
	var sse float64
	var n int
	for i, f := range fitted {
		if math.IsNaN(f) {
			continue
		}
		d := y[i] - f
		sse += d * d
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sse / float64(n)
}

// CrostonClassic is SES(alpha=0.1) applied independently to demand sizes
// and inter-arrival intervals, point = zhat/phat (spec.md §4.6).
type CrostonClassic struct {
	Alpha float64

	fitted   []float64
	point    float64
	isFitted bool
}

// NewCrostonClassic constructs CrostonClassic with the spec's fixed
// alpha=0.1.
func NewCrostonClassic() *CrostonClassic { return &CrostonClassic{Alpha: 0.1} }

func (m *CrostonClassic) Name() string { return "CrostonClassic" }

func (m *CrostonClassic) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	point, fitted, _, _, err := crostonFit(ts.Values(), m.Alpha, m.Alpha, 1.0)
	if err != nil {
		return err
	}
	m.point, m.fitted, m.isFitted = point, fitted, true
	return nil
}

func (m *CrostonClassic) Predict(h int) (forecast.Forecast, error) {
	return constantPredict(m.isFitted, m.Name(), m.point, m.fitted, h)
}

// CrostonSBA is CrostonClassic's point forecast multiplied by the 0.95
// bias-correction factor (spec.md §4.6).
type CrostonSBA struct {
	Alpha float64

	fitted   []float64
	point    float64
	isFitted bool
}

func NewCrostonSBA() *CrostonSBA { return &CrostonSBA{Alpha: 0.1} }

func (m *CrostonSBA) Name() string { return "CrostonSBA" }

func (m *CrostonSBA) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	point, fitted, _, _, err := crostonFit(ts.Values(), m.Alpha, m.Alpha, 0.95)
	if err != nil {
		return err
	}
	m.point, m.fitted, m.isFitted = point, fitted, true
	return nil
}

func (m *CrostonSBA) Predict(h int) (forecast.Forecast, error) {
	return constantPredict(m.isFitted, m.Name(), m.point, m.fitted, h)
}

// CrostonOptimized searches alpha_z and alpha_p independently in [0.1,0.3]
// to minimize the MSE of the reconstructed series (spec.md §4.6).
type CrostonOptimized struct {
	AlphaZ, AlphaP float64

	fitted   []float64
	point    float64
	isFitted bool
}

func NewCrostonOptimized() *CrostonOptimized { return &CrostonOptimized{} }

func (m *CrostonOptimized) Name() string { return "CrostonOptimized" }

func (m *CrostonOptimized) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	bounds := []numeric.Bounds{{Lo: 0.1, Hi: 0.3}, {Lo: 0.1, Hi: 0.3}}
	objective := func(x []float64) float64 {
		_, fitted, _, _, err := crostonFit(y, x[0], x[1], 1.0)
		if err != nil {
			return math.Inf(1)
		}
		return reconstructionMSE(y, fitted)
	}
	result := numeric.GridThenNelderMead(objective, bounds, 5, 150)
	point, fitted, _, _, err := crostonFit(y, result.X[0], result.X[1], 1.0)
	if err != nil {
		return err
	}
	m.AlphaZ, m.AlphaP = result.X[0], result.X[1]
	m.point, m.fitted, m.isFitted = point, fitted, true
	return nil
}

func (m *CrostonOptimized) Predict(h int) (forecast.Forecast, error) {
	return constantPredict(m.isFitted, m.Name(), m.point, m.fitted, h)
}

// TSB implements Teunter-Syntetos-Babai: SES on demand probability every
// period plus SES on demand size only on occurrence periods, point =
// probability-estimate * demand-size-estimate (spec.md §4.6).
type TSB struct {
	AlphaD, AlphaP float64

	fitted   []float64
	point    float64
	isFitted bool
}

// NewTSB constructs TSB with the given demand-size and demand-probability
// smoothing rates.
func NewTSB(alphaD, alphaP float64) *TSB {
	return &TSB{AlphaD: alphaD, AlphaP: alphaP}
}

func (m *TSB) Name() string { return "TSB" }

func (m *TSB) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	n := len(y)
	fitted := make([]float64, n)

	var zLevel, probLevel float64
	for t := 0; t < n; t++ {
		fitted[t] = zLevel * probLevel
		d := 0.0
		if y[t] != 0 {
			d = 1
		}
		probLevel += m.AlphaP * (d - probLevel)
		if d == 1 {
			zLevel += m.AlphaD * (y[t] - zLevel)
		}
	}

	m.point = zLevel * probLevel
	m.fitted = fitted
	m.isFitted = true
	return nil
}

func (m *TSB) Predict(h int) (forecast.Forecast, error) {
	return constantPredict(m.isFitted, m.Name(), m.point, m.fitted, h)
}

func constantPredict(isFitted bool, name string, point float64, fitted []float64, h int) (forecast.Forecast, error) {
	if !isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", name)
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "%s: h must be >= 1", name)
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = point
	}
	return forecast.Forecast{Point: out, ModelName: name, InsampleFitted: fitted}, nil
}
