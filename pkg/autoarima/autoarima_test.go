package autoarima

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

func TestFitStepwiseSelectsAValidCandidate(t *testing.T) {
	y := []float64{5, 7, 6, 9, 11, 10, 13, 12, 15, 14, 17, 16, 19, 18, 21}
	result, err := Fit(mustTS(t, y), Config{Season: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best == nil {
		t.Fatal("expected a winning model")
	}
	if result.Best.Name() != "AutoARIMA" {
		t.Errorf("Name() = %q, want AutoARIMA", result.Best.Name())
	}
	if _, err := result.Best.Predict(3); err != nil {
		t.Fatalf("winning model failed to predict: %v", err)
	}
}

func TestFitExhaustiveSelectsAValidCandidate(t *testing.T) {
	y := []float64{5, 7, 6, 9, 11, 10, 13, 12, 15, 14, 17, 16}
	result, err := Fit(mustTS(t, y), Config{
		Season: 1, Mode: Exhaustive,
		MaxP: 1, MaxQ: 1, MaxSeasonalP: 0, MaxSeasonalQ: 0, MaxD: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best == nil {
		t.Fatal("expected a winning model")
	}
	if result.ModelsEvaluated == 0 {
		t.Error("expected at least one candidate evaluated")
	}
}

func TestEstimateDifferencingOnTrendingSeries(t *testing.T) {
	y := make([]float64, 20)
	for i := range y {
		y[i] = float64(i) * 2
	}
	d := EstimateDifferencing(y, 2)
	if d < 1 {
		t.Errorf("expected at least one difference for a deterministic linear trend, got d=%d", d)
	}
}

func TestEstimateDifferencingOnStationarySeries(t *testing.T) {
	y := []float64{10, 9, 11, 10, 9, 11, 10, 9, 11, 10}
	d := EstimateDifferencing(y, 2)
	if d != 0 {
		t.Errorf("expected d=0 for an already-stationary series, got %d", d)
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

func TestFitSeasonalDataProducesSeasonalCandidates(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		phase := i % 4
		y[i] = 10 + float64(phase)*2
	}
	result, err := Fit(mustTS(t, y), Config{Season: 4})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best == nil {
		t.Fatal("expected a winning model")
	}
}
