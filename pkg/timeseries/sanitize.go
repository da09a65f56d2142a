package timeseries

import (
	"math"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
	"github.com/aouyang1-labs/forecastcore/pkg/logging"
)

// SanitizeKind selects how non-finite values (NaN/+-Inf) are handled by
// Sanitized (spec.md §3).
type SanitizeKind int

const (
	// Drop removes any row (across all dimensions) containing a non-finite
	// value.
	Drop SanitizeKind = iota
	// FillValue replaces every non-finite value with a fixed constant.
	FillValue
	// ForwardFill replaces a non-finite value with the last finite value
	// seen in the same dimension; a non-finite run at the start of the
	// series is left unresolved by the forward carry and then dropped.
	ForwardFill
	// ErrorPolicy causes Sanitized to return an InvalidInput error when any
	// non-finite value is present.
	ErrorPolicy
)

// SanitizePolicy pairs a SanitizeKind with FillValue's constant (ignored by
// the other kinds).
type SanitizePolicy struct {
	Kind  SanitizeKind
	Value float64

	// Sink receives a structured event reporting how many rows were
	// affected. Defaults to logging.Nop().
	Sink logging.Sink
}

// Sanitized returns a new TimeSeries with non-finite values handled
// according to policy, preserving labels/metadata/timezone/frequency and
// realigning the calendar to the rows retained.
func (ts *TimeSeries) Sanitized(policy SanitizePolicy) (*TimeSeries, error) {
	n := ts.Len()
	d := ts.Dim()
	sink := policy.Sink
	if sink == nil {
		sink = logging.Nop()
	}

	if policy.Kind == ErrorPolicy {
		for _, dim := range ts.values {
			for _, v := range dim {
				if !isFinite(v) {
					sink.Warnw("timeseries: non-finite value present under ErrorPolicy")
					return nil, errkit.New(errkit.InvalidInput, "timeseries: non-finite value present under ErrorPolicy")
				}
			}
		}
		return ts, nil
	}

	values := make([][]float64, d)
	for i, dim := range ts.values {
		values[i] = append([]float64(nil), dim...)
	}

	if policy.Kind == FillValue {
		filled := 0
		for i := range values {
			for t, v := range values[i] {
				if !isFinite(v) {
					values[i][t] = policy.Value
					filled++
				}
			}
		}
		sink.Debugw("timeseries: sanitized non-finite values", "policy", "fill_value", "filled", filled)
		return ts.replaceValues(values), nil
	}

	if policy.Kind == ForwardFill {
		for i := range values {
			var last float64
			haveLast := false
			for t, v := range values[i] {
				if isFinite(v) {
					last = v
					haveLast = true
					continue
				}
				if haveLast {
					values[i][t] = last
				}
			}
		}
		keep := rowsAllFinite(values, n)
		dropped := n - countTrue(keep)
		sink.Debugw("timeseries: sanitized non-finite values", "policy", "forward_fill", "rows_dropped", dropped)
		return ts.keepRows(values, keep)
	}

	// Drop.
	keep := rowsAllFinite(values, n)
	dropped := n - countTrue(keep)
	sink.Debugw("timeseries: sanitized non-finite values", "policy", "drop", "rows_dropped", dropped)
	return ts.keepRows(values, keep)
}

func countTrue(keep []bool) int {
	c := 0
	for _, k := range keep {
		if k {
			c++
		}
	}
	return c
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func rowsAllFinite(values [][]float64, n int) []bool {
	keep := make([]bool, n)
	for t := 0; t < n; t++ {
		ok := true
		for _, dim := range values {
			if !isFinite(dim[t]) {
				ok = false
				break
			}
		}
		keep[t] = ok
	}
	return keep
}

func (ts *TimeSeries) replaceValues(values [][]float64) *TimeSeries {
	out := ts.shallowCopy()
	out.values = values
	return out
}

func (ts *TimeSeries) keepRows(values [][]float64, keep []bool) (*TimeSeries, error) {
	n := len(keep)
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	if kept == 0 {
		return nil, errkit.New(errkit.InsufficientData, "timeseries: sanitization dropped every observation")
	}

	outTimestamps := make([]time.Time, 0, kept)
	outValues := make([][]float64, len(values))
	for i := range outValues {
		outValues[i] = make([]float64, 0, kept)
	}
	for t := 0; t < n; t++ {
		if !keep[t] {
			continue
		}
		outTimestamps = append(outTimestamps, ts.timestamps[t])
		for i := range values {
			outValues[i] = append(outValues[i], values[i][t])
		}
	}

	out := ts.shallowCopy()
	out.timestamps = outTimestamps
	out.values = outValues
	if ts.calendar != nil {
		out.calendar = ts.calendar.keepRows(keep)
	}
	return out, nil
}
