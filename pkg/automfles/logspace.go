package automfles

import (
	"math"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/ets"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

// logSpaceETS approximates a multiplicative-error ETS(M,A,N) trend method
// for AutoMSTL by fitting additive-error ETS(A,A,N) to the log of the
// series and exponentiating predictions back, the same log/exp
// substitution pkg/mfles.Model.Fit uses for its own multiplicative mode
// (mfles.go's resolveMultiplicative + math.Log/math.Exp around the
// additive core), since the core ETS implementation only has an additive
// error term.
type logSpaceETS struct {
	inner     *ets.Model
	modelName string
	fitted    []float64
}

func newLogSpaceETS() *logSpaceETS {
	return &logSpaceETS{
		inner:     ets.NewGeneral(ets.Config{Trend: ets.TrendAdditive, Season: ets.SeasonNone, Alpha: 0.3, Beta: 0.1}, "ETS"),
		modelName: "ETS",
	}
}

func (m *logSpaceETS) Name() string { return m.modelName }

func (m *logSpaceETS) Fit(ts *timeseries.TimeSeries) error {
	if !ts.Univariate() {
		return errkit.New(errkit.InvalidInput, "automfles: logSpaceETS requires a univariate series")
	}
	y := ts.Values()
	logY := make([]float64, len(y))
	for i, v := range y {
		if v <= 0 {
			return errkit.New(errkit.InvalidInput, "automfles: logSpaceETS requires strictly positive values").WithField("value")
		}
		logY[i] = math.Log(v)
	}
	logTS, err := timeseries.New(ts.Timestamps(), logY)
	if err != nil {
		return err
	}
	if err := m.inner.Fit(logTS); err != nil {
		return err
	}
	fc, err := m.inner.Predict(1)
	if err != nil {
		return err
	}
	fitted := make([]float64, len(fc.InsampleFitted))
	for i, v := range fc.InsampleFitted {
		fitted[i] = math.Exp(v)
	}
	m.fitted = fitted
	return nil
}

func (m *logSpaceETS) Predict(h int) (forecast.Forecast, error) {
	fc, err := m.inner.Predict(h)
	if err != nil {
		return forecast.Forecast{}, err
	}
	point := make([]float64, len(fc.Point))
	for i, v := range fc.Point {
		point[i] = math.Exp(v)
	}
	for _, v := range point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return forecast.Forecast{}, errkit.New(errkit.NumericalFailure, "automfles: logSpaceETS forecast produced non-finite values")
		}
	}
	return forecast.Forecast{Point: point, ModelName: m.modelName, InsampleFitted: m.fitted}, nil
}
