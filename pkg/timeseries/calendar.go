package timeseries

import "time"

// RegressorMode determines how a calendar regressor combines with the
// series it annotates (spec.md §3).
type RegressorMode int

const (
	Additive RegressorMode = iota
	Multiplicative
)

// StandardizationPolicy controls whether a regressor's values are
// z-standardized before use.
type StandardizationPolicy int

const (
	StandardizationNone StandardizationPolicy = iota
	StandardizationAlways
	StandardizationAuto
)

// Occurrence is either a whole-day timestamp or a half-open time span
// [Start, End) during which a holiday is in effect.
type Occurrence struct {
	Day   time.Time // whole-day occurrence when End is zero
	Start time.Time // span occurrence otherwise
	End   time.Time
}

// isSpan reports whether this occurrence is a [Start,End) span rather than
// a whole-day marker.
func (o Occurrence) isSpan() bool { return !o.End.IsZero() }

// Contains reports whether t falls on this occurrence's day, or within its
// half-open span.
func (o Occurrence) Contains(t time.Time) bool {
	if o.isSpan() {
		return !t.Before(o.Start) && t.Before(o.End)
	}
	y1, m1, d1 := o.Day.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Holiday is a named set of occurrences.
type Holiday struct {
	Name        string
	Occurrences []Occurrence
}

// Regressor is a named, series-aligned real-valued sequence with a
// combination mode and a standardization policy.
type Regressor struct {
	Name            string
	Values          []float64
	Mode            RegressorMode
	Standardization StandardizationPolicy
}

// CalendarAnnotations carries holidays, a weekend-as-holiday flag, and
// named regressors (spec.md §3).
type CalendarAnnotations struct {
	Holidays                map[string]Holiday
	TreatWeekendsAsHolidays bool
	Regressors              map[string]Regressor
}

// NewCalendarAnnotations returns an empty CalendarAnnotations ready to be
// populated via AddHoliday/AddRegressor.
func NewCalendarAnnotations() *CalendarAnnotations {
	return &CalendarAnnotations{
		Holidays:   map[string]Holiday{},
		Regressors: map[string]Regressor{},
	}
}

// AddHoliday registers (or replaces) a named holiday.
func (c *CalendarAnnotations) AddHoliday(h Holiday) {
	c.Holidays[h.Name] = h
}

// AddRegressor registers (or replaces) a named regressor.
func (c *CalendarAnnotations) AddRegressor(r Regressor) {
	c.Regressors[r.Name] = r
}

// IsHoliday reports whether t is a holiday occurrence, or falls on a
// weekend when TreatWeekendsAsHolidays is set.
func (c *CalendarAnnotations) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	if c.TreatWeekendsAsHolidays {
		wd := t.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return true
		}
	}
	for _, h := range c.Holidays {
		for _, occ := range h.Occurrences {
			if occ.Contains(t) {
				return true
			}
		}
	}
	return false
}

// keepRows realigns regressor value sequences to the rows where keep[i] is
// true, used by Sanitized's Drop/ForwardFill policies.
func (c *CalendarAnnotations) keepRows(keep []bool) *CalendarAnnotations {
	out := &CalendarAnnotations{
		Holidays:                c.Holidays,
		TreatWeekendsAsHolidays: c.TreatWeekendsAsHolidays,
		Regressors:              make(map[string]Regressor, len(c.Regressors)),
	}
	for name, r := range c.Regressors {
		sliced := r
		if len(r.Values) == len(keep) {
			vals := make([]float64, 0, len(keep))
			for i, k := range keep {
				if k {
					vals = append(vals, r.Values[i])
				}
			}
			sliced.Values = vals
		}
		out.Regressors[name] = sliced
	}
	return out
}

// slice realigns regressor value sequences to the half-open range
// [start,end), preserving holidays (which are timestamp-referenced, not
// index-referenced, and so need no realignment).
func (c *CalendarAnnotations) slice(start, end int) *CalendarAnnotations {
	out := &CalendarAnnotations{
		Holidays:                c.Holidays,
		TreatWeekendsAsHolidays: c.TreatWeekendsAsHolidays,
		Regressors:              make(map[string]Regressor, len(c.Regressors)),
	}
	for name, r := range c.Regressors {
		sliced := r
		if end <= len(r.Values) {
			sliced.Values = append([]float64(nil), r.Values[start:end]...)
		}
		out.Regressors[name] = sliced
	}
	return out
}
