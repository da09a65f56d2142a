// Package logging provides the structured logging sink passed explicitly to
// auto-tuners and the TimeSeries sanitizer. Unlike the teacher's
// pkg/logger (a package-level global), no state here is global: the core
// forbids global mutable state (spec.md §9), so every caller that wants
// logging builds a Sink and threads it through Config values itself.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives structured events. Implementations must never panic back
// into the caller; Nop() and the zap adapter below both satisfy this.
type Sink interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Warnw(msg string, kv ...any)
	Errorw(msg string, kv ...any)
}

// nopSink discards everything. It is the default when no Sink is supplied.
type nopSink struct{}

func (nopSink) Debugw(string, ...any) {}
func (nopSink) Infow(string, ...any)  {}
func (nopSink) Warnw(string, ...any)  {}
func (nopSink) Errorw(string, ...any) {}

// Nop returns a Sink that discards every event.
func Nop() Sink { return nopSink{} }

// zapSink adapts a *zap.SugaredLogger to the Sink interface.
type zapSink struct {
	log *zap.SugaredLogger
}

func (z *zapSink) Debugw(msg string, kv ...any) { z.log.Debugw(msg, kv...) }
func (z *zapSink) Infow(msg string, kv ...any)  { z.log.Infow(msg, kv...) }
func (z *zapSink) Warnw(msg string, kv ...any)  { z.log.Warnw(msg, kv...) }
func (z *zapSink) Errorw(msg string, kv ...any) { z.log.Errorw(msg, kv...) }

// NewZap builds a zap-backed Sink. development selects a human-readable
// console encoder with color levels (as the teacher's NewLogger does for its
// "development" branch); otherwise a JSON production encoder is used. level
// is parsed the same way the teacher parses it, falling back to Info on a
// bad value rather than failing construction.
func NewZap(level string, development bool) (Sink, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return &zapSink{log: base.Sugar()}, nil
}

// safeCall guards against a caller-supplied Sink panicking back into the
// core (spec.md §6: "no callback is allowed to panic back into the core").
func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// SafeWarnw logs a warning through sink, recovering from any panic raised by
// a misbehaving caller-supplied implementation.
func SafeWarnw(sink Sink, msg string, kv ...any) {
	if sink == nil {
		return
	}
	safeCall(func() { sink.Warnw(msg, kv...) })
}

// SafeInfow logs info through sink, recovering from any panic raised by a
// misbehaving caller-supplied implementation.
func SafeInfow(sink Sink, msg string, kv ...any) {
	if sink == nil {
		return
	}
	safeCall(func() { sink.Infow(msg, kv...) })
}

// SafeErrorw logs an error through sink, recovering from any panic raised by
// a misbehaving caller-supplied implementation.
func SafeErrorw(sink Sink, msg string, kv ...any) {
	if sink == nil {
		return
	}
	safeCall(func() { sink.Errorw(msg, kv...) })
}
