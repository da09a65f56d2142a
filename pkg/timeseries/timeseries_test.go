package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
)

func hours(n int) []time.Time {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestNewRejectsNonMonotoneTimestamps(t *testing.T) {
	ts := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := New(ts, []float64{1, 2})
	if kind, ok := errkit.KindOf(err); !ok || kind != errkit.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	_, err := New(hours(3), []float64{1, 2})
	if err == nil {
		t.Fatal("expected an error on length mismatch")
	}
}

func TestMultivariateLabelsMustBeUniqueAndSized(t *testing.T) {
	vals := [][]float64{{1, 2}, {3, 4}}
	if _, err := NewMultivariate(hours(2), vals, []string{"a", "a"}); err == nil {
		t.Error("expected duplicate label rejection")
	}
	if _, err := NewMultivariate(hours(2), vals, []string{"a"}); err == nil {
		t.Error("expected label-count mismatch rejection")
	}
	if _, err := NewMultivariate(hours(2), vals, []string{"a", "b"}); err != nil {
		t.Errorf("expected valid construction, got %v", err)
	}
}

func TestSliceIsHalfOpenAndIndependent(t *testing.T) {
	ts, err := New(hours(5), []float64{10, 20, 30, 40, 50})
	if err != nil {
		t.Fatal(err)
	}
	sliced, err := ts.Slice(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if sliced.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sliced.Len())
	}
	want := []float64{20, 30, 40}
	for i, v := range sliced.Values() {
		if v != want[i] {
			t.Errorf("sliced[%d] = %v, want %v", i, v, want[i])
		}
	}
	// Mutating the slice result must not affect the source.
	sliced.Values()[0] = 999
	if ts.Values()[1] != 20 {
		t.Error("Slice must copy values, not alias them")
	}
}

func TestSanitizedDrop(t *testing.T) {
	ts, _ := New(hours(5), []float64{1, math.NaN(), 3, math.Inf(1), 5})
	out, err := ts.Sanitized(SanitizePolicy{Kind: Drop})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", out.Len())
	}
	want := []float64{1, 3, 5}
	for i, v := range out.Values() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestSanitizedFillValue(t *testing.T) {
	ts, _ := New(hours(3), []float64{1, math.NaN(), 3})
	out, err := ts.Sanitized(SanitizePolicy{Kind: FillValue, Value: -1})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, -1, 3}
	for i, v := range out.Values() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestSanitizedForwardFill(t *testing.T) {
	ts, _ := New(hours(4), []float64{1, math.NaN(), math.NaN(), 4})
	out, err := ts.Sanitized(SanitizePolicy{Kind: ForwardFill})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 1, 1, 4}
	for i, v := range out.Values() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestSanitizedErrorPolicy(t *testing.T) {
	ts, _ := New(hours(2), []float64{1, math.NaN()})
	_, err := ts.Sanitized(SanitizePolicy{Kind: ErrorPolicy})
	var kerr *errkit.Error
	if !errors.As(err, &kerr) || kerr.Kind != errkit.InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestInterpolatedLinear(t *testing.T) {
	ts, _ := New(hours(5), []float64{0, math.NaN(), math.NaN(), 6, 8})
	out, err := ts.Interpolated()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 2, 4, 6, 8}
	for i, v := range out.Values() {
		if math.Abs(v-want[i]) > 1e-9 {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestInferFrequencyUniqueSpacing(t *testing.T) {
	ts, _ := New(hours(5), []float64{1, 2, 3, 4, 5})
	freq, err := ts.InferFrequency(0)
	if err != nil {
		t.Fatal(err)
	}
	if freq != time.Hour {
		t.Errorf("freq = %v, want 1h", freq)
	}
}

func TestInferFrequencyWithTolerance(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts, _ := New([]time.Time{
		base,
		base.Add(time.Hour),
		base.Add(2*time.Hour + time.Minute), // slightly off
		base.Add(3*time.Hour + time.Minute),
	}, []float64{1, 2, 3, 4})
	freq, err := ts.InferFrequency(5 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if freq != time.Hour {
		t.Errorf("freq = %v, want 1h", freq)
	}
}

func TestCalendarIsHolidayWeekend(t *testing.T) {
	cal := NewCalendarAnnotations()
	cal.TreatWeekendsAsHolidays = true
	sat := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) // a Saturday
	if !cal.IsHoliday(sat) {
		t.Error("expected Saturday to be a holiday when weekends are treated as holidays")
	}
}

func TestCalendarRegressorAlignmentValidated(t *testing.T) {
	cal := NewCalendarAnnotations()
	cal.AddRegressor(Regressor{Name: "promo", Values: []float64{1, 2}}) // wrong length
	ts, _ := New(hours(5), []float64{1, 2, 3, 4, 5})
	if _, err := ts.WithCalendar(cal); err == nil {
		t.Error("expected regressor length mismatch to be rejected")
	}
}
