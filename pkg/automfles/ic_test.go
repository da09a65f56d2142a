package automfles

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

func seasonalSeries(n, period int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 100 + float64(i)*0.8 + 15*math.Sin(2*math.Pi*float64(i)/float64(period))
	}
	return y
}

func TestICSearchSelectsAndNamesAutoMFLES(t *testing.T) {
	y := seasonalSeries(60, 12)
	result, err := Fit(mustTS(t, y), ICConfig{
		SeasonalPeriods: []int{12},
		Rounds:          []int{2, 4},
		LearningRates:   []float64{0.3, 0.6},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best.Name() != "AutoMFLES" {
		t.Errorf("Name() = %q, want AutoMFLES", result.Best.Name())
	}
	if result.ModelsEvaluated == 0 {
		t.Error("expected at least one evaluated candidate")
	}
	if len(result.Candidates) != result.ModelsEvaluated {
		t.Errorf("candidate summaries (%d) should cover every evaluated attempt, failed ones included (%d)", len(result.Candidates), result.ModelsEvaluated)
	}
	fc, err := result.Best.Predict(6)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 6 {
		t.Fatalf("expected 6 forecast points, got %d", len(fc.Point))
	}
}

func TestICSearchRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3, 4}, {4, 5, 6, 7}}
	ts, _ := timeseries.NewMultivariate([]time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}, vals, []string{"a", "b"})
	if _, err := Fit(ts, ICConfig{}); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}

func TestICSearchDefaultsGridWhenUnset(t *testing.T) {
	cfg := ICConfig{}.withDefaults()
	if len(cfg.Rounds) != 7 {
		t.Errorf("expected default rounds grid {1..7}, got %v", cfg.Rounds)
	}
	if len(cfg.LearningRates) != 3 {
		t.Errorf("expected default learning-rate grid of 3 values, got %v", cfg.LearningRates)
	}
}
