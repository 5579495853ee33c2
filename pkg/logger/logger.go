// Package logger builds the *zap.SugaredLogger used across the segment,
// table, container, and sync-primitive packages. It centralizes the
// encoder and level configuration so every component logs in the same
// shape, tagged with the component name that created it.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a development-friendly, console-encoded logger tagged with
// the given component name ("segment", "table", "queue", "semaphore", ...).
// Callers hold onto the returned *zap.SugaredLogger for the lifetime of
// the component; there is no separate Close, Sync is enough.
func New(component string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Falling back to a no-op logger keeps callers from having to
		// handle a logger construction error on every call to New.
		base = zap.NewNop()
	}

	return base.Sugar().Named(component)
}

// NewProduction creates a JSON-encoded logger suitable for non-interactive
// use, such as the cmd/zeroipc-inspect and cmd/zeroipc-bench binaries.
func NewProduction(component string) *zap.SugaredLogger {
	base, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().Named(component)
}

// Nop returns a logger that discards everything, for tests that don't
// want log noise on stdout.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
