// Package logger builds the zap.Logger instances shared across the client
// and CLI.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls logger verbosity.
type LoggerConfig struct {
	Debug bool
}

// NewLogger builds a production-style zap.Logger, switching to debug level
// and development encoding when Debug is set.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Debug {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: failed to build zap logger: %w", err)
	}
	return l, nil
}

// NewNop returns a logger that discards everything, for tests and examples
// that don't want log noise.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
