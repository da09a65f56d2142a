package automfles

import (
	"math"
	"testing"
)

func TestLogSpaceETSForecastsPositiveSeries(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = 10 * math.Pow(1.05, float64(i))
	}
	m := newLogSpaceETS()
	if err := m.Fit(mustTS(t, y)); err != nil {
		t.Fatal(err)
	}
	fc, err := m.Predict(5)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range fc.Point {
		if v <= 0 {
			t.Errorf("point[%d] = %v, want strictly positive under exponentiated forecast", i, v)
		}
	}
}

func TestLogSpaceETSRejectsNonPositiveValues(t *testing.T) {
	y := []float64{1, 2, 0, 4, 5}
	m := newLogSpaceETS()
	if err := m.Fit(mustTS(t, y)); err == nil {
		t.Error("expected InvalidInput for a non-positive observation")
	}
}
