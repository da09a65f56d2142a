package automfles

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func multiSeasonalSeries(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 50 + 0.3*float64(i) +
			5*math.Sin(2*math.Pi*float64(i)/24) +
			10*math.Sin(2*math.Pi*float64(i)/(24*7))
	}
	return y
}

func TestAutoMSTLSelectsAndNamesAutoMSTL(t *testing.T) {
	y := multiSeasonalSeries(24 * 10)
	result, err := FitMSTL(mustTS(t, y), MSTLConfig{Periods: []int{24}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best.Name() != "AutoMSTL" {
		t.Errorf("Name() = %q, want AutoMSTL", result.Best.Name())
	}
	if len(result.Candidates) != 18 {
		t.Errorf("expected 18 evaluated trend x seasonal candidates, got %d", len(result.Candidates))
	}
	fc, err := result.Best.Predict(12)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 12 {
		t.Fatalf("expected 12 forecast points, got %d", len(fc.Point))
	}
	for i, v := range fc.Point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("point[%d] = %v, want finite", i, v)
		}
	}
}

func TestAutoMSTLRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3, 4}, {4, 5, 6, 7}}
	ts, _ := timeseries.NewMultivariate([]time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}, vals, []string{"a", "b"})
	if _, err := FitMSTL(ts, MSTLConfig{Periods: []int{2}}); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}

func TestTrendFreeParamsOrdering(t *testing.T) {
	if trendFreeParams(MSTLTrendNone) != 0 {
		t.Error("expected no trend to contribute zero free parameters")
	}
	if trendFreeParams(MSTLTrendHolt) <= trendFreeParams(MSTLTrendSES) {
		t.Error("expected Holt's free-parameter count to exceed SES's")
	}
}

func TestSeasonalFreeParamsScalesWithPeriod(t *testing.T) {
	cyclic := seasonalFreeParams(MSTLSeasonalCyclic, []int{24})
	modelBased := seasonalFreeParams(MSTLSeasonalETSAdditive, []int{24})
	if cyclic != 24 {
		t.Errorf("cyclic seasonal free params = %d, want 24", cyclic)
	}
	if modelBased != 25 {
		t.Errorf("model-based seasonal free params = %d, want 25", modelBased)
	}
}
