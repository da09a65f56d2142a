package theta

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func mustTS(t *testing.T, values []float64) *timeseries.TimeSeries {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := make([]time.Time, len(values))
	for i := range stamps {
		stamps[i] = base.Add(time.Duration(i) * time.Hour)
	}
	ts, err := timeseries.New(stamps, values)
	if err != nil {
		t.Fatalf("failed to build timeseries: %v", err)
	}
	return ts
}

func linearSeries(n int, slope, intercept float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = intercept + slope*float64(i)
	}
	return y
}

func seasonalSeries(n, period int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 50 + float64(i)*0.5 + 10*math.Sin(2*math.Pi*float64(i%period)/float64(period))
	}
	return y
}

func TestThetaOnLinearTrendAveragesLineAndSES(t *testing.T) {
	y := linearSeries(20, 2.0, 10.0)
	m := NewTheta(1)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(3)
	if err != nil {
		t.Fatal(err)
	}
	// On a perfect line the theta=2 line equals y, so the classic forecast is
	// the average of the extrapolated line and the flat SES level of y.
	level := y[0]
	for _, v := range y {
		level += defaultAlpha * (v - level)
	}
	line := linearSeries(23, 2.0, 10.0)[20:]
	for i, v := range fc.Point {
		want := (line[i] + level) / 2
		if math.Abs(v-want) > 1e-6 {
			t.Errorf("point[%d] = %v, want %v", i, v, want)
		}
	}
	if fc.ModelName != "Theta" {
		t.Errorf("ModelName = %q, want Theta", fc.ModelName)
	}
}

func TestOptimizedThetaMatchesOrImprovesClassicMSE(t *testing.T) {
	y := []float64{12, 15, 11, 18, 14, 20, 16, 22, 19, 25, 21, 27}
	classic := NewTheta(1)
	if err := classic.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	opt := NewOptimizedTheta(1)
	if err := opt.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fcClassic, _ := classic.Predict(1)
	fcOpt, _ := opt.Predict(1)
	mseClassic := mseOf(y, fcClassic.InsampleFitted)
	mseOpt := mseOf(y, fcOpt.InsampleFitted)
	if mseOpt > mseClassic+1e-6 {
		t.Errorf("optimized MSE %v should not exceed classic MSE %v", mseOpt, mseClassic)
	}
	if opt.Theta < 1.0 || opt.Theta > 3.0 {
		t.Errorf("Theta = %v outside search bounds", opt.Theta)
	}
}

func TestDynamicThetaOnLinearTrend(t *testing.T) {
	y := linearSeries(20, -1.5, 100.0)
	m := NewDynamicTheta(1)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(2)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Point[0] <= fc.Point[1] {
		t.Errorf("expected a declining forecast, got %v then %v", fc.Point[0], fc.Point[1])
	}
	if fc.ModelName != "DynamicTheta" {
		t.Errorf("ModelName = %q, want DynamicTheta", fc.ModelName)
	}
}

func TestDynamicOptimizedThetaFitsAndForecasts(t *testing.T) {
	y := linearSeries(20, 1.0, 5.0)
	m := NewDynamicOptimizedTheta(1)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 4 {
		t.Fatalf("expected 4 forecast points, got %d", len(fc.Point))
	}
	if fc.ModelName != "DynamicOptimizedTheta" {
		t.Errorf("ModelName = %q, want DynamicOptimizedTheta", fc.ModelName)
	}
}

func TestThetaDeseasonalizesWhenSeasonalityFires(t *testing.T) {
	y := seasonalSeries(40, 4)
	m := NewTheta(4)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	if !m.seasonal.applied {
		t.Error("expected the seasonality gate to fire on a strongly seasonal series")
	}
	fc, err := m.Predict(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 4 {
		t.Fatalf("expected 4 forecast points, got %d", len(fc.Point))
	}
}

func TestThetaSkipsSeasonalityWhenSeasonIsOne(t *testing.T) {
	y := linearSeries(10, 1, 1)
	m := NewTheta(1)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	if m.seasonal.applied {
		t.Error("season=1 should never trigger deseasonalization")
	}
}

func TestThetaRejectsInsufficientData(t *testing.T) {
	m := NewTheta(1)
	if err := m.Fit(mustTS(t, []float64{1, 2})); err == nil {
		t.Error("expected InsufficientData for n < 3")
	}
}

func TestThetaPredictBeforeFitIsNotFitted(t *testing.T) {
	m := NewTheta(1)
	if _, err := m.Predict(1); err == nil {
		t.Error("expected NotFitted before Fit")
	}
}

func TestThetaRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3}, {4, 5, 6}}
	ts, _ := timeseries.NewMultivariate([]time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}, vals, []string{"a", "b"})
	m := NewTheta(1)
	if err := m.Fit(ts); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}

func TestThetaRejectsNonPositiveHorizon(t *testing.T) {
	m := NewTheta(1)
	if err := m.Fit(mustTS(t, linearSeries(10, 1, 1))); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict(0); err == nil {
		t.Error("expected InvalidInput for h=0")
	}
}

func mseOf(y, fitted []float64) float64 {
	var sse float64
	for i, f := range fitted {
		d := y[i] - f
		sse += d * d
	}
	return sse / float64(len(y))
}
