package autoets

import (
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

func TestFitSelectsAValidCandidate(t *testing.T) {
	y := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17}
	result, err := Fit(mustTS(t, y), Config{Season: 1, Spec: "ZZZ"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best == nil {
		t.Fatal("expected a winning model")
	}
	if result.Best.Name() != "AutoETS" {
		t.Errorf("Name() = %q, want AutoETS", result.Best.Name())
	}
	if result.ModelsEvaluated == 0 {
		t.Error("expected at least one candidate evaluated")
	}
	if _, err := result.Best.Predict(3); err != nil {
		t.Fatalf("winning model failed to predict: %v", err)
	}
}

func TestFitWithSeasonalData(t *testing.T) {
	y := make([]float64, 24)
	for i := range y {
		phase := i % 4
		y[i] = 10 + float64(phase)*2 + float64(i)*0.1
	}
	result, err := Fit(mustTS(t, y), Config{Season: 4, Spec: "ZZZ"})
	if err != nil {
		t.Fatal(err)
	}
	fc, err := result.Best.Predict(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 4 {
		t.Fatalf("expected 4 forecasts, got %d", len(fc.Point))
	}
}

func TestFitRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3}, {4, 5, 6}}
	ts, _ := timeseries.NewMultivariate([]time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}, vals, []string{"a", "b"})
	if _, err := Fit(ts, Config{Season: 1}); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}

func TestDampedNeverExcludesDampedTrend(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	result, err := Fit(mustTS(t, y), Config{Season: 1, Spec: "ZAN", Damped: DampedNever})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range result.Candidates {
		if c.Damped {
			t.Error("expected no damped candidates when DampedNever is set")
		}
	}
}
