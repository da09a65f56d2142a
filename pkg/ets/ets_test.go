package ets

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func approxEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

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

func TestSESExample(t *testing.T) {
	m := NewSES(0.5)
	if err := m.Fit(mustTS(t, []float64{10, 20, 30})); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(2)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{22.5, 22.5}
	for i, v := range fc.Point {
		if !approxEqual(v, want[i], 1e-9) {
			t.Errorf("point[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestETSCollapsesToSESWhenBetaGammaZero(t *testing.T) {
	y := []float64{12, 9, 14, 11, 13, 10, 15, 12}
	ses := NewSES(0.4)
	if err := ses.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}

	zeroTrend := 0.0
	zeroLevel := y[0]
	full := newModel(Config{
		Trend: TrendAdditive, Season: SeasonAdditive, M: 4,
		Alpha: 0.4, Beta: 0, Gamma: 0,
		InitialLevel:    &zeroLevel,
		InitialTrend:    &zeroTrend,
		InitialSeasonal: []float64{0, 0, 0, 0},
	}, "ETS")
	if err := full.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}

	for i := range ses.residual {
		if !approxEqual(ses.residual[i], full.residual[i], 1e-10) {
			t.Errorf("residual[%d]: SES=%v ETS(beta=gamma=0)=%v", i, ses.residual[i], full.residual[i])
		}
	}
}

func TestHoltLinearTrend(t *testing.T) {
	m := NewHolt(0.5, 0.3)
	if err := m.Fit(mustTS(t, []float64{10, 12, 14, 16, 18, 20})); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 3 {
		t.Fatalf("expected 3 forecasts, got %d", len(fc.Point))
	}
	// A clean linear series should keep extrapolating upward.
	if fc.Point[0] <= 20 || fc.Point[1] <= fc.Point[0] || fc.Point[2] <= fc.Point[1] {
		t.Errorf("expected monotonically increasing forecasts on a linear trend, got %v", fc.Point)
	}
}

func TestHoltWintersSeasonalPattern(t *testing.T) {
	y := []float64{10, 20, 10, 20, 11, 21, 11, 21, 12, 22, 12, 22}
	m := NewHoltWinters(0.3, 0.1, 0.2, 4, SeasonAdditive)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 4 {
		t.Fatalf("expected 4 forecasts, got %d", len(fc.Point))
	}
	// Odd positions (the "20-ish" phase) should forecast higher than even.
	if fc.Point[1] <= fc.Point[0] || fc.Point[3] <= fc.Point[2] {
		t.Errorf("expected seasonal high phase to forecast above the low phase, got %v", fc.Point)
	}
}

func TestSESOptimizedConverges(t *testing.T) {
	m := NewSESOptimized()
	if err := m.Fit(mustTS(t, []float64{10, 12, 11, 13, 12, 14, 13, 15})); err != nil {
		t.Fatal(err)
	}
	if m.Opt.Objective < 0 {
		t.Errorf("objective should be non-negative MSE, got %v", m.Opt.Objective)
	}
	if _, err := m.Predict(1); err != nil {
		t.Fatal(err)
	}
}

func TestSeasonalESOptimizedConverges(t *testing.T) {
	y := []float64{5, 10, 5, 10, 6, 11, 6, 11, 7, 12, 7, 12}
	m := NewSeasonalESOptimized(4, SeasonAdditive)
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict(4); err != nil {
		t.Fatal(err)
	}
}

func TestPredictBeforeFitIsNotFitted(t *testing.T) {
	m := NewSES(0.3)
	if _, err := m.Predict(1); err == nil {
		t.Error("expected NotFitted before Fit")
	}
}

func TestInsufficientDataForSeasonalModel(t *testing.T) {
	m := NewHoltWinters(0.3, 0.1, 0.2, 12, SeasonAdditive)
	if err := m.Fit(mustTS(t, []float64{1, 2, 3})); err == nil {
		t.Error("expected InsufficientData when n < season+1")
	}
}

func TestPredictIsIdempotentAndDeterministic(t *testing.T) {
	m := NewHolt(0.4, 0.2)
	if err := m.Fit(mustTS(t, []float64{1, 3, 5, 7, 9, 11})); err != nil {
		t.Fatal(err)
	}
	first, err := m.Predict(5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Predict(5)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Point {
		if first.Point[i] != second.Point[i] {
			t.Errorf("Predict not idempotent at index %d: %v vs %v", i, first.Point[i], second.Point[i])
		}
	}
}

func TestPredictWithConfidenceProducesBands(t *testing.T) {
	m := NewSES(0.5)
	if err := m.Fit(mustTS(t, []float64{10, 14, 9, 16, 8, 18})); err != nil {
		t.Fatal(err)
	}
	fc, err := m.PredictWithConfidence(3, 0.90)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fc.Point {
		if fc.Lower[i] >= fc.Point[i] || fc.Upper[i] <= fc.Point[i] {
			t.Errorf("expected lower < point < upper at index %d, got %v/%v/%v", i, fc.Lower[i], fc.Point[i], fc.Upper[i])
		}
	}
}
