package automfles

import (
	"testing"

	"github.com/aouyang1-labs/forecastcore/pkg/mfles"
)

func TestCVSearchSelectsAndNamesAutoMFLES(t *testing.T) {
	y := seasonalSeries(100, 6)
	result, err := FitCV(mustTS(t, y), CVConfig{PrimarySeasonalPeriod: 6})
	if err != nil {
		t.Fatal(err)
	}
	if result.Best.Name() != "AutoMFLES" {
		t.Errorf("Name() = %q, want AutoMFLES", result.Best.Name())
	}
	if result.ModelsEvaluated == 0 {
		t.Error("expected at least one evaluated candidate")
	}
	fc, err := result.Best.Predict(6)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Point) != 6 {
		t.Fatalf("expected 6 forecast points, got %d", len(fc.Point))
	}
}

func TestCVSearchRejectsTooSmallPrimaryPeriod(t *testing.T) {
	y := seasonalSeries(50, 6)
	if _, err := FitCV(mustTS(t, y), CVConfig{PrimarySeasonalPeriod: 1}); err == nil {
		t.Error("expected InvalidInput for PrimarySeasonalPeriod < 2")
	}
}

func TestCandidateMAWindowsGrid(t *testing.T) {
	windows := candidateMAWindows(12)
	if len(windows) != 3 {
		t.Fatalf("expected 3 MA-window candidates, got %v", windows)
	}
	if windows[0] != 12 || windows[1] != 6 {
		t.Errorf("expected {period, period/2, ...} = {12, 6, ...}, got %v", windows)
	}
}

func TestCandidateMAWindowsFloorsHalfToOne(t *testing.T) {
	windows := candidateMAWindows(1)
	if windows[1] != 1 {
		t.Errorf("expected half-window floored to 1, got %v", windows)
	}
}

func TestCVDefaultsDeriveFromPrimaryPeriod(t *testing.T) {
	cfg := CVConfig{PrimarySeasonalPeriod: 7, TrendMethod: mfles.TrendOLS}.withDefaults()
	if cfg.Horizon != 7 {
		t.Errorf("Horizon = %d, want 7", cfg.Horizon)
	}
	if cfg.InitialWindow != 70 {
		t.Errorf("InitialWindow = %d, want 70", cfg.InitialWindow)
	}
	if cfg.Step != 7 {
		t.Errorf("Step = %d, want 7", cfg.Step)
	}
	if cfg.Folds != 2 {
		t.Errorf("Folds = %d, want 2", cfg.Folds)
	}
}
