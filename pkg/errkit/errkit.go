// Package errkit implements the error taxonomy shared by every forecaster,
// auto-tuner, and the TimeSeries container: InvalidInput, NotFitted,
// InsufficientData, NumericalFailure, and Cancelled.
package errkit

import (
	"errors"
	"fmt"
)

// Kind identifies which of the five error categories an Error belongs to.
type Kind string

const (
	// InvalidInput covers malformed TimeSeries or configuration: non-finite
	// required fields, mismatched lengths, non-monotone timestamps,
	// out-of-range parameters, multivariate series fed to scalar models,
	// empty history.
	InvalidInput Kind = "invalid_input"

	// NotFitted is returned when Predict or an accessor is invoked before Fit.
	NotFitted Kind = "not_fitted"

	// InsufficientData covers model-specific minimums (SeasonalNaive needs
	// n >= s, ARIMA needs n >= p+d+q+1, CV needs n >= initial_window+horizon).
	InsufficientData Kind = "insufficient_data"

	// NumericalFailure covers singular design matrices, non-finite residuals,
	// optimizer divergence, and infeasible stationarity projections.
	NumericalFailure Kind = "numerical_failure"

	// Cancelled is returned when a cooperative cancellation flag was observed
	// inside a tuner loop.
	Cancelled Kind = "cancelled"
)

// Error is the concrete error type returned by this module. It always
// carries a human-readable message and, where applicable, the offending
// field/parameter name and the last known optimizer iteration count.
type Error struct {
	Kind          Kind
	Field         string
	Message       string
	LastIteration int
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, errkit.NotFitted) style checks work by comparing
// Kind values wrapped as errors via New.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches the offending field/parameter name.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithIteration attaches the last known optimizer iteration count.
func (e *Error) WithIteration(n int) *Error {
	e.LastIteration = n
	return e
}

// OfKind constructs a sentinel Error used purely for errors.Is comparisons,
// e.g. errors.Is(err, errkit.OfKind(errkit.NotFitted)).
func OfKind(kind Kind) *Error {
	return &Error{Kind: kind}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
