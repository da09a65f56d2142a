// Package tuner provides the cooperative-cancellation guard and candidate
// ranking machinery shared by AutoARIMA, AutoETS, and AutoMFLES. Guard is
// adapted from the teacher's pkg/safety circuit breaker (closed / open /
// half-open consecutive-error state machine), narrowed from "should I apply
// a live cluster change" to "should this auto-tuner keep evaluating
// candidates".
package tuner

import (
	"sync/atomic"

	"github.com/aouyang1-labs/forecastcore/pkg/logging"
)

// Guard tracks cooperative cancellation and a consecutive-failure budget
// across a sequence of candidate evaluations. Every worker in a parallel
// candidate search shares one Guard; each worker owns its own candidate
// Forecaster (spec.md §5: "candidates must not share mutable state").
type Guard struct {
	cancelled             atomic.Bool
	maxConsecutiveFailures int
	consecutiveFailures    atomic.Int64
	evaluated              atomic.Int64
	failed                 atomic.Int64
	sink                   logging.Sink
}

// NewGuard creates a Guard that trips (reports ShouldStop) after
// maxConsecutiveFailures candidates in a row fail to fit. A value <= 0
// disables the consecutive-failure trip, leaving only explicit Cancel() as
// a stop signal. Logging defaults to logging.Nop(); call SetSink before the
// search starts to observe failures and the trip decision.
func NewGuard(maxConsecutiveFailures int) *Guard {
	return &Guard{maxConsecutiveFailures: maxConsecutiveFailures, sink: logging.Nop()}
}

// SetSink attaches a logging.Sink the Guard reports candidate failures and
// its trip decision to. Not safe to call concurrently with RecordSuccess/
// RecordFailure/ShouldStop; set it before the candidate search begins.
func (g *Guard) SetSink(sink logging.Sink) {
	if sink == nil {
		sink = logging.Nop()
	}
	g.sink = sink
}

// Cancel requests cooperative cancellation; ShouldStop will report true for
// every subsequent call.
func (g *Guard) Cancel() {
	g.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (g *Guard) Cancelled() bool {
	return g.cancelled.Load()
}

// RecordSuccess registers one successful candidate fit, resetting the
// consecutive-failure counter.
func (g *Guard) RecordSuccess() {
	g.evaluated.Add(1)
	g.consecutiveFailures.Store(0)
}

// RecordFailure registers one failed candidate fit (NumericalFailure,
// singular design, non-finite residuals, ...), incrementing both the total
// failure count and the consecutive-failure counter.
func (g *Guard) RecordFailure() {
	g.evaluated.Add(1)
	g.failed.Add(1)
	streak := g.consecutiveFailures.Add(1)
	g.sink.Debugw("tuner: candidate failed", "consecutive_failures", streak, "total_failed", g.failed.Load())
}

// ShouldStop reports whether the tuner loop should stop evaluating further
// candidates: either cancellation was requested, or the consecutive-failure
// budget has been exhausted.
func (g *Guard) ShouldStop() bool {
	if g.cancelled.Load() {
		return true
	}
	if g.maxConsecutiveFailures > 0 && g.consecutiveFailures.Load() >= int64(g.maxConsecutiveFailures) {
		g.sink.Warnw("tuner: stopping search, consecutive-failure budget exhausted", "max_consecutive_failures", g.maxConsecutiveFailures)
		return true
	}
	return false
}

// Evaluated returns the total number of candidates recorded so far
// (models_evaluated in spec.md §4.4 diagnostics).
func (g *Guard) Evaluated() int {
	return int(g.evaluated.Load())
}

// Failed returns the total number of failed candidates recorded so far
// (models_failed in spec.md §4.4 diagnostics).
func (g *Guard) Failed() int {
	return int(g.failed.Load())
}
