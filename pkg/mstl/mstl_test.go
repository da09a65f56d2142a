package mstl

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

func multiSeasonalSeries(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 50 + 0.3*float64(i) +
			5*math.Sin(2*math.Pi*float64(i)/24) +
			10*math.Sin(2*math.Pi*float64(i)/(24*7))
	}
	return y
}

func TestMSTLDecomposesMultiplePeriods(t *testing.T) {
	y := multiSeasonalSeries(24 * 14)
	m := New(Config{Periods: []int{24, 24 * 7}})
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	decomp := m.Decomposition()
	if len(decomp.Seasonal[24]) != len(y) || len(decomp.Seasonal[24*7]) != len(y) {
		t.Fatal("expected a seasonal component per configured period, aligned to the series")
	}
	if len(decomp.Trend) != len(y) || len(decomp.Remainder) != len(y) {
		t.Fatal("expected trend and remainder aligned to the series")
	}
}

func TestMSTLForecastCyclic(t *testing.T) {
	y := multiSeasonalSeries(24 * 10)
	m := New(Config{Periods: []int{24}})
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(24)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 24 {
		t.Fatalf("expected 24 forecast points, got %d", len(fc.Point))
	}
	for i, v := range fc.Point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("point[%d] = %v, want finite", i, v)
		}
	}
	if fc.ModelName != "MSTL" {
		t.Errorf("ModelName = %q, want MSTL", fc.ModelName)
	}
}

func TestMSTLForecastModelBasedSeasonal(t *testing.T) {
	y := multiSeasonalSeries(24 * 10)
	m := New(Config{Periods: []int{24}, SeasonalProjectionMethod: SeasonalModel})
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict(12); err != nil {
		t.Fatal(err)
	}
}

func TestMSTLDropsPeriodsRequiringTooMuchHistory(t *testing.T) {
	y := multiSeasonalSeries(30)
	m := New(Config{Periods: []int{24 * 7}})
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	diag := m.Diagnostics()
	if len(diag.PeriodsUsed) != 0 {
		t.Errorf("expected the oversized period to be dropped, got PeriodsUsed=%v", diag.PeriodsUsed)
	}
	if len(diag.PeriodsDropped) != 1 {
		t.Errorf("expected one dropped period, got %v", diag.PeriodsDropped)
	}
}

func TestMSTLRobustCapsOutliers(t *testing.T) {
	y := multiSeasonalSeries(24 * 10)
	y[50] = 10000
	m := New(Config{Periods: []int{24}, Robust: true})
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict(5); err != nil {
		t.Fatal(err)
	}
}

func TestMSTLRejectsInsufficientData(t *testing.T) {
	m := New(Config{Periods: []int{24}})
	if err := m.Fit(mustTS(t, []float64{1, 2, 3})); err == nil {
		t.Error("expected InsufficientData for n < 4")
	}
}

func TestMSTLPredictBeforeFitIsNotFitted(t *testing.T) {
	m := New(Config{})
	if _, err := m.Predict(1); err == nil {
		t.Error("expected NotFitted before Fit")
	}
}

func TestMSTLRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3, 4}, {4, 5, 6, 7}}
	ts, _ := timeseries.NewMultivariate([]time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}, vals, []string{"a", "b"})
	m := New(Config{})
	if err := m.Fit(ts); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}
