// Package timeseries implements the validated time-series container shared
// by every forecaster: ordered timestamps, one or more parallel value
// sequences, labels/metadata/timezone/frequency, and calendar annotations,
// plus the slice/sanitize/interpolate/infer-frequency operations that
// preserve those invariants across derived instances.
//
// Grounded on the teacher's pkg/models/types.go struct-of-fields + json-tag
// convention (ContainerMetric/PodMetric), generalized from a fixed
// CPU/memory pair to d parallel value dimensions, and on
// pkg/prediction/decomposition.go's variance/mean helpers for the frequency
// tolerance math.
package timeseries

import (
	"sort"
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
)

// Timezone carries a human-readable zone name and its UTC offset in
// minutes, constrained to +/-1440 (spec.md §3).
type Timezone struct {
	Name          string
	OffsetMinutes int
}

// TimeSeries is the central validated data entity (spec.md §3). It is
// treated as immutable from a forecaster's point of view: Slice, Sanitized,
// and Interpolated all return new instances.
type TimeSeries struct {
	timestamps []time.Time
	values     [][]float64 // values[dim][t]

	labels            []string
	metadata          map[string]string
	dimensionMetadata []map[string]string
	frequency         *time.Duration
	timezone          *Timezone
	calendar          *CalendarAnnotations
}

// New constructs a TimeSeries from a single univariate value sequence.
func New(timestamps []time.Time, values []float64) (*TimeSeries, error) {
	return NewMultivariate(timestamps, [][]float64{values}, nil)
}

// NewMultivariate constructs a TimeSeries with d parallel value dimensions.
// labels, if non-nil, must have length d and be unique.
func NewMultivariate(timestamps []time.Time, values [][]float64, labels []string) (*TimeSeries, error) {
	ts := &TimeSeries{
		timestamps: timestamps,
		values:     values,
		labels:     labels,
		metadata:   map[string]string{},
	}
	if err := ts.validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TimeSeries) validate() error {
	n := len(ts.timestamps)
	if n == 0 {
		return errkit.New(errkit.InvalidInput, "timeseries: must have at least one observation")
	}
	for _, dim := range ts.values {
		if len(dim) != n {
			return errkit.New(errkit.InvalidInput,
				"timeseries: values length %d does not match timestamps length %d", len(dim), n)
		}
	}
	for i := 1; i < n; i++ {
		if !ts.timestamps[i].After(ts.timestamps[i-1]) {
			return errkit.New(errkit.InvalidInput, "timeseries: timestamps must be strictly increasing").WithField("timestamps")
		}
	}
	d := len(ts.values)
	if ts.labels != nil {
		if len(ts.labels) != d {
			return errkit.New(errkit.InvalidInput,
				"timeseries: labels length %d does not match dimension count %d", len(ts.labels), d)
		}
		seen := make(map[string]bool, d)
		for _, l := range ts.labels {
			if seen[l] {
				return errkit.New(errkit.InvalidInput, "timeseries: duplicate label %q", l).WithField("labels")
			}
			seen[l] = true
		}
	}
	if ts.dimensionMetadata != nil && len(ts.dimensionMetadata) != d {
		return errkit.New(errkit.InvalidInput,
			"timeseries: dimension_metadata length %d does not match dimension count %d", len(ts.dimensionMetadata), d)
	}
	if ts.timezone != nil {
		if ts.timezone.OffsetMinutes < -1440 || ts.timezone.OffsetMinutes > 1440 {
			return errkit.New(errkit.InvalidInput, "timeseries: timezone offset out of range [-1440,1440]").WithField("timezone")
		}
	}
	if ts.calendar != nil {
		for name, reg := range ts.calendar.Regressors {
			if len(reg.Values) != n {
				return errkit.New(errkit.InvalidInput,
					"timeseries: regressor %q length %d does not match series length %d", name, len(reg.Values), n).WithField("calendar")
			}
		}
	}
	return nil
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int { return len(ts.timestamps) }

// Dim returns the number of parallel value dimensions.
func (ts *TimeSeries) Dim() int { return len(ts.values) }

// Univariate reports whether the series has exactly one dimension.
func (ts *TimeSeries) Univariate() bool { return ts.Dim() == 1 }

// Values returns the single value dimension. Callers needing a scalar
// model must check Univariate first; Values panics on a multivariate
// series to surface programmer error immediately rather than silently
// returning the first dimension.
func (ts *TimeSeries) Values() []float64 {
	if !ts.Univariate() {
		panic("timeseries: Values called on a multivariate series; use Dimension(i)")
	}
	return ts.values[0]
}

// Dimension returns the i'th parallel value sequence.
func (ts *TimeSeries) Dimension(i int) []float64 { return ts.values[i] }

// Timestamps returns the ordered timestamp sequence.
func (ts *TimeSeries) Timestamps() []time.Time { return ts.timestamps }

// Labels returns the dimension labels, or nil if unset.
func (ts *TimeSeries) Labels() []string { return ts.labels }

// Metadata returns the series-level metadata map.
func (ts *TimeSeries) Metadata() map[string]string { return ts.metadata }

// WithMetadata returns a copy of ts with metadata replaced.
func (ts *TimeSeries) WithMetadata(md map[string]string) *TimeSeries {
	out := ts.shallowCopy()
	out.metadata = md
	return out
}

// Frequency returns the nominal step, or nil if unset.
func (ts *TimeSeries) Frequency() *time.Duration { return ts.frequency }

// WithFrequency returns a copy of ts with the nominal step set.
func (ts *TimeSeries) WithFrequency(d time.Duration) *TimeSeries {
	out := ts.shallowCopy()
	out.frequency = &d
	return out
}

// Timezone returns the series timezone, or nil if unset.
func (ts *TimeSeries) Timezone() *Timezone { return ts.timezone }

// WithTimezone returns a copy of ts carrying tz, validating the offset.
func (ts *TimeSeries) WithTimezone(tz Timezone) (*TimeSeries, error) {
	out := ts.shallowCopy()
	out.timezone = &tz
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Calendar returns the calendar annotations, or nil if unset.
func (ts *TimeSeries) Calendar() *CalendarAnnotations { return ts.calendar }

// WithCalendar returns a copy of ts carrying cal, validating regressor
// alignment.
func (ts *TimeSeries) WithCalendar(cal *CalendarAnnotations) (*TimeSeries, error) {
	out := ts.shallowCopy()
	out.calendar = cal
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (ts *TimeSeries) shallowCopy() *TimeSeries {
	cp := *ts
	return &cp
}

// Slice returns the half-open range [start, end) of observations as a new
// TimeSeries, preserving labels/metadata/timezone/frequency/calendar.
// Calendar regressor sequences are realigned to the new range.
func (ts *TimeSeries) Slice(start, end int) (*TimeSeries, error) {
	n := ts.Len()
	if start < 0 || end > n || start >= end {
		return nil, errkit.New(errkit.InvalidInput, "timeseries: invalid slice range [%d,%d) of length %d", start, end, n)
	}
	out := ts.shallowCopy()
	out.timestamps = append([]time.Time(nil), ts.timestamps[start:end]...)
	out.values = make([][]float64, len(ts.values))
	for i, dim := range ts.values {
		out.values[i] = append([]float64(nil), dim[start:end]...)
	}
	if ts.calendar != nil {
		out.calendar = ts.calendar.slice(start, end)
	}
	return out, nil
}

// SortedCopy returns copies of timestamps and values with observations
// reordered by ascending timestamp, for callers that build a series from an
// unordered source before passing it to New/NewMultivariate (which reject
// timestamps that are not strictly increasing).
func SortedCopy(timestamps []time.Time, values [][]float64) ([]time.Time, [][]float64) {
	n := len(timestamps)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return timestamps[idx[i]].Before(timestamps[idx[j]]) })

	outTS := make([]time.Time, n)
	outVals := make([][]float64, len(values))
	for d := range values {
		outVals[d] = make([]float64, n)
	}
	for newPos, oldPos := range idx {
		outTS[newPos] = timestamps[oldPos]
		for d := range values {
			outVals[d][newPos] = values[d][oldPos]
		}
	}
	return outTS, outVals
}
