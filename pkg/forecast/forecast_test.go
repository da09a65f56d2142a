package forecast

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestScoreBasicMetrics(t *testing.T) {
	actual := []float64{10, 20, 30}
	predicted := []float64{12, 18, 33}
	m, err := Score(actual, predicted, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantMAE := (2.0 + 2.0 + 3.0) / 3
	if !approxEqual(m.MAE, wantMAE, 1e-9) {
		t.Errorf("MAE = %v, want %v", m.MAE, wantMAE)
	}
	wantMSE := (4.0 + 4.0 + 9.0) / 3
	if !approxEqual(m.MSE, wantMSE, 1e-9) {
		t.Errorf("MSE = %v, want %v", m.MSE, wantMSE)
	}
	if !approxEqual(m.RMSE, math.Sqrt(wantMSE), 1e-9) {
		t.Errorf("RMSE = %v, want %v", m.RMSE, math.Sqrt(wantMSE))
	}
	if !m.HasMAPE {
		t.Error("expected MAPE to be defined")
	}
	if !m.HasRSquared {
		t.Error("expected R-squared to be defined")
	}
}

func TestScoreMAPEExcludesZeroActuals(t *testing.T) {
	actual := []float64{0, 10}
	predicted := []float64{5, 12}
	m, err := Score(actual, predicted, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasMAPE {
		t.Fatal("expected MAPE defined when at least one actual is non-zero")
	}
	want := 2.0 / 10.0
	if !approxEqual(m.MAPE, want, 1e-9) {
		t.Errorf("MAPE = %v, want %v (only index 1 counted)", m.MAPE, want)
	}
}

func TestScoreMAPEUndefinedWhenAllActualsZero(t *testing.T) {
	m, err := Score([]float64{0, 0}, []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.HasMAPE {
		t.Error("expected MAPE undefined when every actual is zero")
	}
}

func TestScoreMASEWithBaseline(t *testing.T) {
	actual := []float64{10, 12, 11, 13}
	predicted := []float64{10, 11, 12, 12}
	baseline := []float64{9, 10, 12, 11} // naive-style baseline predictions
	m, err := Score(actual, predicted, baseline)
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasMASE {
		t.Fatal("expected MASE to be defined")
	}
}

func TestScoreMASEUndefinedWhenBaselinePerfect(t *testing.T) {
	actual := []float64{1, 2, 3}
	m, err := Score(actual, []float64{1, 2, 4}, actual)
	if err != nil {
		t.Fatal(err)
	}
	if m.HasMASE {
		t.Error("expected MASE undefined when baseline MAE is 0")
	}
}

func TestScoreRejectsLengthMismatch(t *testing.T) {
	if _, err := Score([]float64{1, 2}, []float64{1}, nil); err == nil {
		t.Error("expected length mismatch to be rejected")
	}
}

func TestScoreRejectsEmptyInput(t *testing.T) {
	if _, err := Score(nil, nil, nil); err == nil {
		t.Error("expected empty input to be rejected")
	}
}

func TestScorePerfectForecastHasZeroError(t *testing.T) {
	actual := []float64{5, 6, 7}
	m, err := Score(actual, actual, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.MAE != 0 || m.MSE != 0 {
		t.Errorf("expected zero error for a perfect forecast, got MAE=%v MSE=%v", m.MAE, m.MSE)
	}
	if !m.HasRSquared || m.RSquared != 1 {
		t.Errorf("expected R-squared = 1 for a perfect forecast, got %v", m.RSquared)
	}
}
