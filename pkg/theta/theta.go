// Package theta implements the Theta family of spec.md §4.7: classic Theta,
// OptimizedTheta, DynamicTheta, and DynamicOptimizedTheta, each decomposing
// the series into an OLS trend line plus a theta-line y_theta = y +
// (theta-1)*detrended, smoothing the theta line with SES (Theta,
// OptimizedTheta) or Holt (DynamicTheta, DynamicOptimizedTheta), and
// recombining as forecast(h) = trendProj(h) + (thetaLine(h) -
// trendProj(h))/theta — which collapses to the classic average-of-two-lines
// formula at theta=2.
//
// Grounded on the teacher's pkg/prediction/decomposition.go for the
// OLS-trend/seasonal-pattern shape (here via pkg/numeric.OLS rather than the
// teacher's two-variable linearRegression) and on pkg/ets for the SES/Holt
// smoothers the theta line is built from.
package theta

import (
	"math"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/ets"
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

func syntheticSeries(values []float64) (*timeseries.TimeSeries, error) {
	base := time.Unix(0, 0).UTC()
	stamps := make([]time.Time, len(values))
	for i := range stamps {
		stamps[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return timeseries.New(stamps, values)
}

// core holds the fitted trend line and smoother shared by all four theta
// variants, operating on the (possibly deseasonalized) working series.
type core struct {
	theta                    float64
	trendIntercept, trendSlope float64
	smoother                 *ets.Model
	fitted                   []float64
	n                        int
}

// fitCore regresses work on its time index, builds the theta line y_theta =
// work + (theta-1)*(work-trend), and fits smoother to it. smoother must be a
// freshly constructed (unfit) *ets.Model; SES for Theta/OptimizedTheta, Holt
// for DynamicTheta/DynamicOptimizedTheta.
func fitCore(work []float64, theta float64, smoother *ets.Model) (*core, error) {
	n := len(work)
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	design := numeric.DesignMatrix(n, t)
	beta, err := numeric.OLS(design, work)
	if err != nil {
		return nil, errkit.New(errkit.NumericalFailure, "theta: trend regression failed: %v", err)
	}
	trendIntercept, trendSlope := beta[0], beta[1]
	trendFit := numeric.Predict(design, beta)

	yTheta := make([]float64, n)
	for i := range work {
		detrended := work[i] - trendFit[i]
		yTheta[i] = work[i] + (theta-1)*detrended
	}

	ts, err := syntheticSeries(yTheta)
	if err != nil {
		return nil, err
	}
	if err := smoother.Fit(ts); err != nil {
		return nil, err
	}
	fc, err := smoother.Predict(1)
	if err != nil {
		return nil, err
	}

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = trendFit[i] + (fc.InsampleFitted[i]-trendFit[i])/theta
	}

	return &core{theta: theta, trendIntercept: trendIntercept, trendSlope: trendSlope, smoother: smoother, fitted: fitted, n: n}, nil
}

func (c *core) mse(work []float64) float64 {
	var sse float64
	for i, f := range c.fitted {
		d := work[i] - f
		sse += d * d
	}
	return sse / float64(len(work))
}

func (c *core) forecast(h int) ([]float64, error) {
	fc, err := c.smoother.Predict(h)
	if err != nil {
		return nil, err
	}
	out := make([]float64, h)
	for i := 1; i <= h; i++ {
		tIdx := float64(c.n - 1 + i)
		trendProj := c.trendIntercept + c.trendSlope*tIdx
		out[i-1] = trendProj + (fc.Point[i-1]-trendProj)/c.theta
	}
	return out, nil
}

// seasonalState carries the detected seasonal component across Fit/Predict
// when spec.md §4.7's seasonality test fires; nil otherwise.
type seasonalState struct {
	component seasonalComponent
	applied   bool
}

func maybeDeseasonalize(y []float64, season int) ([]float64, seasonalState) {
	if !seasonalityFires(y, season) {
		return y, seasonalState{}
	}
	sc := extractSeasonalComponent(y, season)
	return sc.deseasonalize(y), seasonalState{component: sc, applied: true}
}

func (s seasonalState) reseasonalizeFitted(fitted []float64) []float64 {
	if !s.applied {
		return fitted
	}
	return s.component.reseasonalizeFitted(fitted)
}

func (s seasonalState) reseasonalizeForecast(point []float64, n int) []float64 {
	if !s.applied {
		return point
	}
	return s.component.reseasonalizeForecast(point, n)
}

func validateH(h int, name string) error {
	if h < 1 {
		return errkit.New(errkit.InvalidInput, "%s: h must be >= 1", name)
	}
	return nil
}

// defaultAlpha is the SES smoothing rate classic Theta and DynamicTheta use
// when alpha isn't itself being optimized; a literature-standard default
// since spec.md doesn't pin a literal value for the non-optimized variants.
const defaultAlpha = 0.2

// Theta is the classic method: theta=2, SES with a fixed default alpha
// (spec.md §4.7).
type Theta struct {
	Season int

	core     *core
	seasonal seasonalState
	n        int
	isFitted bool
}

func NewTheta(season int) *Theta { return &Theta{Season: season} }

func (m *Theta) Name() string { return "Theta" }

func (m *Theta) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	if len(y) < 3 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 3, got %d", m.Name(), len(y))
	}
	work, seasonal := maybeDeseasonalize(y, m.Season)
	c, err := fitCore(work, 2.0, ets.NewSES(defaultAlpha))
	if err != nil {
		return err
	}
	m.core, m.seasonal, m.n, m.isFitted = c, seasonal, len(y), true
	return nil
}

func (m *Theta) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.Name())
	}
	if err := validateH(h, m.Name()); err != nil {
		return forecast.Forecast{}, err
	}
	point, err := m.core.forecast(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	point = m.seasonal.reseasonalizeForecast(point, m.n)
	fitted := m.seasonal.reseasonalizeFitted(m.core.fitted)
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: fitted}, nil
}

// OptimizedTheta grid-searches theta and SES's alpha jointly to minimize
// in-sample MSE (spec.md §4.7).
type OptimizedTheta struct {
	Season int
	Theta  float64
	Alpha  float64

	core     *core
	seasonal seasonalState
	n        int
	isFitted bool
}

func NewOptimizedTheta(season int) *OptimizedTheta { return &OptimizedTheta{Season: season} }

func (m *OptimizedTheta) Name() string { return "OptimizedTheta" }

func (m *OptimizedTheta) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	if len(y) < 3 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 3, got %d", m.Name(), len(y))
	}
	work, seasonal := maybeDeseasonalize(y, m.Season)

	bounds := []numeric.Bounds{{Lo: 1.0, Hi: 3.0}, {Lo: 0.01, Hi: 0.99}}
	objective := func(x []float64) float64 {
		c, err := fitCore(work, x[0], ets.NewSES(x[1]))
		if err != nil {
			return math.Inf(1)
		}
		return c.mse(work)
	}
	result := numeric.GridThenNelderMead(objective, bounds, 6, 150)

	c, err := fitCore(work, result.X[0], ets.NewSES(result.X[1]))
	if err != nil {
		return err
	}
	m.Theta, m.Alpha = result.X[0], result.X[1]
	m.core, m.seasonal, m.n, m.isFitted = c, seasonal, len(y), true
	return nil
}

func (m *OptimizedTheta) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.Name())
	}
	if err := validateH(h, m.Name()); err != nil {
		return forecast.Forecast{}, err
	}
	point, err := m.core.forecast(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	point = m.seasonal.reseasonalizeForecast(point, m.n)
	fitted := m.seasonal.reseasonalizeFitted(m.core.fitted)
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: fitted}, nil
}

// DynamicTheta replaces SES with Holt (theta fixed at 2), searching alpha
// and beta to minimize in-sample MSE (spec.md §4.7).
type DynamicTheta struct {
	Season int
	Alpha  float64
	Beta   float64

	core     *core
	seasonal seasonalState
	n        int
	isFitted bool
}

func NewDynamicTheta(season int) *DynamicTheta { return &DynamicTheta{Season: season} }

func (m *DynamicTheta) Name() string { return "DynamicTheta" }

func (m *DynamicTheta) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	if len(y) < 3 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 3, got %d", m.Name(), len(y))
	}
	work, seasonal := maybeDeseasonalize(y, m.Season)

	bounds := []numeric.Bounds{{Lo: 0.01, Hi: 0.99}, {Lo: 0.0, Hi: 0.5}}
	objective := func(x []float64) float64 {
		c, err := fitCore(work, 2.0, ets.NewHolt(x[0], x[1]))
		if err != nil {
			return math.Inf(1)
		}
		return c.mse(work)
	}
	result := numeric.GridThenNelderMead(objective, bounds, 6, 150)

	c, err := fitCore(work, 2.0, ets.NewHolt(result.X[0], result.X[1]))
	if err != nil {
		return err
	}
	m.Alpha, m.Beta = result.X[0], result.X[1]
	m.core, m.seasonal, m.n, m.isFitted = c, seasonal, len(y), true
	return nil
}

func (m *DynamicTheta) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.Name())
	}
	if err := validateH(h, m.Name()); err != nil {
		return forecast.Forecast{}, err
	}
	point, err := m.core.forecast(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	point = m.seasonal.reseasonalizeForecast(point, m.n)
	fitted := m.seasonal.reseasonalizeFitted(m.core.fitted)
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: fitted}, nil
}

// DynamicOptimizedTheta jointly optimizes theta and Holt's alpha/beta
// (spec.md §4.7).
type DynamicOptimizedTheta struct {
	Season int
	Theta  float64
	Alpha  float64
	Beta   float64

	core     *core
	seasonal seasonalState
	n        int
	isFitted bool
}

func NewDynamicOptimizedTheta(season int) *DynamicOptimizedTheta {
	return &DynamicOptimizedTheta{Season: season}
}

func (m *DynamicOptimizedTheta) Name() string { return "DynamicOptimizedTheta" }

func (m *DynamicOptimizedTheta) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts, m.Name()); err != nil {
		return err
	}
	y := ts.Values()
	if len(y) < 3 {
		return errkit.New(errkit.InsufficientData, "%s: need n >= 3, got %d", m.Name(), len(y))
	}
	work, seasonal := maybeDeseasonalize(y, m.Season)

	bounds := []numeric.Bounds{{Lo: 1.0, Hi: 3.0}, {Lo: 0.01, Hi: 0.99}, {Lo: 0.0, Hi: 0.5}}
	objective := func(x []float64) float64 {
		c, err := fitCore(work, x[0], ets.NewHolt(x[1], x[2]))
		if err != nil {
			return math.Inf(1)
		}
		return c.mse(work)
	}
	result := numeric.GridThenNelderMead(objective, bounds, 5, 200)

	c, err := fitCore(work, result.X[0], ets.NewHolt(result.X[1], result.X[2]))
	if err != nil {
		return err
	}
	m.Theta, m.Alpha, m.Beta = result.X[0], result.X[1], result.X[2]
	m.core, m.seasonal, m.n, m.isFitted = c, seasonal, len(y), true
	return nil
}

func (m *DynamicOptimizedTheta) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "%s: call Fit before Predict", m.Name())
	}
	if err := validateH(h, m.Name()); err != nil {
		return forecast.Forecast{}, err
	}
	point, err := m.core.forecast(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	point = m.seasonal.reseasonalizeForecast(point, m.n)
	fitted := m.seasonal.reseasonalizeFitted(m.core.fitted)
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: fitted}, nil
}
