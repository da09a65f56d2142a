package cv

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/baseline"
	"github.com/aouyang1-labs/forecastcore/pkg/forecast"
	"github.com/aouyang1-labs/forecastcore/pkg/timeseries"
)

func hourlySeries(values []float64) *timeseries.TimeSeries {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := make([]time.Time, len(values))
	for i := range stamps {
		stamps[i] = base.Add(time.Duration(i) * time.Hour)
	}
	ts, err := timeseries.New(stamps, values)
	if err != nil {
		panic(err)
	}
	return ts
}

func naiveFactory() forecast.Forecaster { return &baseline.Naive{} }

func TestRollingCVOnLength150Series(t *testing.T) {
	y := make([]float64, 150)
	for i := range y {
		y[i] = float64(i%7) + 0.1*float64(i)
	}
	ts := hourlySeries(y)

	cfg := Config{Horizon: 6, InitialWindow: 50, Step: 6, Strategy: Rolling}
	res, err := Run(ts, cfg, naiveFactory)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Folds) != 16 {
		t.Fatalf("expected 16 folds under s+horizon<=n, got %d", len(res.Folds))
	}
	if res.Folds[0].TestStart != 50 {
		t.Errorf("first fold TestStart = %d, want 50", res.Folds[0].TestStart)
	}
	last := res.Folds[len(res.Folds)-1]
	if last.TestStart != 140 {
		t.Errorf("last fold TestStart = %d, want 140", last.TestStart)
	}

	var allPred, allActual []float64
	for _, f := range res.Folds {
		allPred = append(allPred, f.Predicted...)
		allActual = append(allActual, f.Actual...)
	}
	want, err := forecast.Score(allActual, allPred, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(want.MAE-res.Aggregate.MAE) > 1e-9 {
		t.Errorf("aggregate MAE = %v, want %v (MAE of concatenated predictions/actuals)", res.Aggregate.MAE, want.MAE)
	}
}

func TestRollingWindowIsFixedSize(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		y[i] = float64(i)
	}
	ts := hourlySeries(y)
	cfg := Config{Horizon: 3, InitialWindow: 10, Step: 3, Strategy: Rolling}
	res, err := Run(ts, cfg, naiveFactory)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Folds {
		if f.TrainEnd-f.TrainStart != cfg.InitialWindow {
			t.Errorf("fold %d: rolling train window size = %d, want %d", f.Index, f.TrainEnd-f.TrainStart, cfg.InitialWindow)
		}
	}
}

func TestExpandingWindowGrowsFromZero(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		y[i] = float64(i)
	}
	ts := hourlySeries(y)
	cfg := Config{Horizon: 3, InitialWindow: 10, Step: 3, Strategy: Expanding}
	res, err := Run(ts, cfg, naiveFactory)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Folds {
		if f.TrainStart != 0 {
			t.Errorf("fold %d: expanding TrainStart = %d, want 0", f.Index, f.TrainStart)
		}
	}
	if res.Folds[len(res.Folds)-1].TrainEnd <= res.Folds[0].TrainEnd {
		t.Error("expanding window should grow across folds")
	}
}

func TestNWindowsCapsFoldCount(t *testing.T) {
	y := make([]float64, 100)
	for i := range y {
		y[i] = float64(i)
	}
	ts := hourlySeries(y)
	cfg := Config{Horizon: 5, InitialWindow: 20, Step: 5, Strategy: Rolling, NWindows: 3}
	res, err := Run(ts, cfg, naiveFactory)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Folds) != 3 {
		t.Fatalf("expected NWindows to cap fold count at 3, got %d", len(res.Folds))
	}
}

func TestRejectsInsufficientData(t *testing.T) {
	ts := hourlySeries(make([]float64, 10))
	cfg := Config{Horizon: 5, InitialWindow: 10, Step: 1, Strategy: Rolling}
	if _, err := Run(ts, cfg, naiveFactory); err == nil {
		t.Error("expected InsufficientData when n < initial_window+horizon")
	}
}

func TestRejectsInvalidConfig(t *testing.T) {
	ts := hourlySeries(make([]float64, 50))
	cases := []Config{
		{Horizon: 0, InitialWindow: 10, Step: 1},
		{Horizon: 5, InitialWindow: 0, Step: 1},
		{Horizon: 5, InitialWindow: 10, Step: 0},
	}
	for _, cfg := range cases {
		if _, err := Run(ts, cfg, naiveFactory); err == nil {
			t.Errorf("expected InvalidInput for config %+v", cfg)
		}
	}
}

func TestRejectsMultivariate(t *testing.T) {
	vals := [][]float64{{1, 2, 3, 4, 5}, {5, 4, 3, 2, 1}}
	stamps := make([]time.Time, 5)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range stamps {
		stamps[i] = base.Add(time.Duration(i) * time.Hour)
	}
	ts, err := timeseries.NewMultivariate(stamps, vals, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Horizon: 1, InitialWindow: 2, Step: 1, Strategy: Rolling}
	if _, err := Run(ts, cfg, naiveFactory); err == nil {
		t.Error("expected InvalidInput for multivariate input")
	}
}
