// Package logging constructs the one structured logger every component
// threads through: a *zap.SugaredLogger, matching the severity taxonomy
// of spec.md 7 (startup-fatal, runtime-recoverable, soft-sentinel,
// graceful-termination).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(level string, debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	} else if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// NewNop builds a logger that discards everything, for tests and
// callers that don't want startup side effects.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
