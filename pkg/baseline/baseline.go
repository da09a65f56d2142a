// Package baseline implements the simple forecasting baselines of
// spec.md §4.2: Naive, SeasonalNaive, SeasonalWindowAverage,
// SimpleMovingAverage, and RandomWalkWithDrift.
//
// Grounded on the teacher's pkg/prediction/holt_winters.go Fit/Predict
// method shape (store history, compute fitted/residuals in Fit, roll
// forward deterministically in Predict) applied to closed-form baselines
// that need no iterative optimization.
package baseline

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func checkUnivariate(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "baseline: model requires a univariate series")
	}
	if ts.Len() == 0 {
		return errkit.New(errkit.InvalidInput, "baseline: series must have at least one observation")
	}
	return nil
}

func residualBands(h int, resid []float64, level float64) (lower, upper []float64, sigma float64) {
	sigma = numeric.SampleStdDev(resid)
	if sigma == 0 {
		return nil, nil, 0
	}
	z := numeric.ZForConfidence(level)
	lower = make([]float64, h)
	upper = make([]float64, h)
	return lower, upper, sigma * z
}

// Naive forecasts the last observed value forward.
type Naive struct {
	history  []float64
	fitted   []float64
	residual []float64
	isFitted  bool
}

func (m *Naive) Name() string { return "Naive" }

func (m *Naive) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	y := ts.Values()
	n := len(y)
	m.history = append([]float64(nil), y...)
	m.fitted = make([]float64, n)
	m.residual = make([]float64, n)
	m.fitted[0] = math.NaN()
	m.residual[0] = math.NaN()
	for t := 1; t < n; t++ {
		m.fitted[t] = y[t-1]
		m.residual[t] = y[t] - y[t-1]
	}
	m.isFitted = true
	return nil
}

func (m *Naive) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "Naive: call Fit before Predict")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "Naive: h must be >= 1")
	}
	last := m.history[len(m.history)-1]
	point := make([]float64, h)
	for i := range point {
		point[i] = last
	}
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: m.fitted}, nil
}

func (m *Naive) PredictWithConfidence(h int, level float64) (forecast.Forecast, error) {
	fc, err := m.Predict(h)
	if err != nil {
		return fc, err
	}
	finiteResid := dropNaN(m.residual)
	lower, upper, width := residualBands(h, finiteResid, level)
	if width > 0 {
		for i := 0; i < h; i++ {
			spread := width * math.Sqrt(float64(i+1))
			lower[i] = fc.Point[i] - spread
			upper[i] = fc.Point[i] + spread
		}
		fc.Lower, fc.Upper, fc.ConfidenceLevel = lower, upper, level
	}
	return fc, nil
}

func dropNaN(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// SeasonalNaive forecasts by repeating the last full season.
type SeasonalNaive struct {
	Season int

	history  []float64
	fitted   []float64
	residual []float64
	isFitted  bool
}

func (m *SeasonalNaive) Name() string { return "SeasonalNaive" }

func (m *SeasonalNaive) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	if m.Season < 1 {
		return errkit.New(errkit.InvalidInput, "SeasonalNaive: season must be >= 1").WithField("season")
	}
	y := ts.Values()
	n := len(y)
	if n < m.Season {
		return errkit.New(errkit.InsufficientData, "SeasonalNaive: need n >= season (%d), got %d", m.Season, n)
	}
	m.history = append([]float64(nil), y...)
	m.fitted = make([]float64, n)
	m.residual = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < m.Season {
			m.fitted[t] = math.NaN()
			m.residual[t] = math.NaN()
			continue
		}
		m.fitted[t] = y[t-m.Season]
		m.residual[t] = y[t] - y[t-m.Season]
	}
	m.isFitted = true
	return nil
}

func (m *SeasonalNaive) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "SeasonalNaive: call Fit before Predict")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "SeasonalNaive: h must be >= 1")
	}
	n := len(m.history)
	point := make([]float64, h)
	for i := 0; i < h; i++ {
		// point[h] = y[n-s+((h-1) mod s)] for 1-indexed h; here i = h-1.
		phase := i % m.Season
		point[i] = m.history[n-m.Season+phase]
	}
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: m.fitted}, nil
}

// SeasonalWindowAverage averages the last k observations at the same
// season phase.
type SeasonalWindowAverage struct {
	Season int
	Window int

	history []float64
	fitted  []float64
	isFitted bool
}

func (m *SeasonalWindowAverage) Name() string { return "SeasonalWindowAverage" }

func (m *SeasonalWindowAverage) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	if m.Season < 1 || m.Window < 1 {
		return errkit.New(errkit.InvalidInput, "SeasonalWindowAverage: season and window must be >= 1")
	}
	y := ts.Values()
	n := len(y)
	if n < m.Window*m.Season {
		return errkit.New(errkit.InsufficientData,
			"SeasonalWindowAverage: need n >= window*season (%d), got %d", m.Window*m.Season, n)
	}
	m.history = append([]float64(nil), y...)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < m.Window*m.Season {
			m.fitted[t] = math.NaN()
			continue
		}
		var sum float64
		for k := 1; k <= m.Window; k++ {
			sum += y[t-k*m.Season]
		}
		m.fitted[t] = sum / float64(m.Window)
	}
	m.isFitted = true
	return nil
}

func (m *SeasonalWindowAverage) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "SeasonalWindowAverage: call Fit before Predict")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "SeasonalWindowAverage: h must be >= 1")
	}
	n := len(m.history)
	point := make([]float64, h)
	for i := 0; i < h; i++ {
		phase := i % m.Season
		var sum float64
		for k := 0; k < m.Window; k++ {
			idx := n - m.Season + phase - k*m.Season
			sum += m.history[idx]
		}
		point[i] = sum / float64(m.Window)
	}
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: m.fitted}, nil
}

// SimpleMovingAverage forecasts the mean of the last Window observations,
// held constant across the horizon.
type SimpleMovingAverage struct {
	Window int

	history []float64
	fitted  []float64
	isFitted bool
}

func (m *SimpleMovingAverage) Name() string { return "SimpleMovingAverage" }

func (m *SimpleMovingAverage) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	if m.Window < 1 {
		return errkit.New(errkit.InvalidInput, "SimpleMovingAverage: window must be >= 1").WithField("window")
	}
	y := ts.Values()
	n := len(y)
	if n < m.Window {
		return errkit.New(errkit.InsufficientData, "SimpleMovingAverage: need n >= window (%d), got %d", m.Window, n)
	}
	m.history = append([]float64(nil), y...)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < m.Window {
			m.fitted[t] = math.NaN()
			continue
		}
		var sum float64
		for k := 1; k <= m.Window; k++ {
			sum += y[t-k]
		}
		m.fitted[t] = sum / float64(m.Window)
	}
	m.isFitted = true
	return nil
}

func (m *SimpleMovingAverage) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "SimpleMovingAverage: call Fit before Predict")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "SimpleMovingAverage: h must be >= 1")
	}
	n := len(m.history)
	var sum float64
	for k := 1; k <= m.Window; k++ {
		sum += m.history[n-k]
	}
	mean := sum / float64(m.Window)
	point := make([]float64, h)
	for i := range point {
		point[i] = mean
	}
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: m.fitted}, nil
}

// RandomWalkWithDrift extrapolates a constant drift computed from the first
// and last observations.
type RandomWalkWithDrift struct {
	history  []float64
	fitted   []float64
	residual []float64
	drift    float64
	isFitted  bool
}

func (m *RandomWalkWithDrift) Name() string { return "RandomWalkWithDrift" }

func (m *RandomWalkWithDrift) Fit(ts *timeseries.TimeSeries) error {
	if err := checkUnivariate(ts); err != nil {
		return err
	}
	y := ts.Values()
	n := len(y)
	if n < 2 {
		return errkit.New(errkit.InsufficientData, "RandomWalkWithDrift: need n >= 2, got %d", n)
	}
	m.history = append([]float64(nil), y...)
	m.drift = (y[n-1] - y[0]) / float64(n-1)
	m.fitted = make([]float64, n)
	m.residual = make([]float64, n)
	m.fitted[0] = math.NaN()
	m.residual[0] = math.NaN()
	for t := 1; t < n; t++ {
		m.fitted[t] = y[t-1] + m.drift
		m.residual[t] = y[t] - m.fitted[t]
	}
	m.isFitted = true
	return nil
}

func (m *RandomWalkWithDrift) Predict(h int) (forecast.Forecast, error) {
	if !m.isFitted {
		return forecast.Forecast{}, errkit.New(errkit.NotFitted, "RandomWalkWithDrift: call Fit before Predict")
	}
	if h < 1 {
		return forecast.Forecast{}, errkit.New(errkit.InvalidInput, "RandomWalkWithDrift: h must be >= 1")
	}
	last := m.history[len(m.history)-1]
	point := make([]float64, h)
	for i := 0; i < h; i++ {
		point[i] = last + float64(i+1)*m.drift
	}
	return forecast.Forecast{Point: point, ModelName: m.Name(), InsampleFitted: m.fitted}, nil
}

// Drift returns the fitted drift term.
func (m *RandomWalkWithDrift) Drift() float64 { return m.drift }
