// Package logging builds the process logger.
package logging

import (
	"fmt"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger, or a JSON production logger with UTC
// ISO8601 timestamps when log.env is "production".
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	switch cfg.Log.Env {
	default:
		logCfg := zap.NewDevelopmentConfig()
		logCfg.Level = zap.NewAtomicLevelAt(level)
		return logCfg.Build()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.Level = zap.NewAtomicLevelAt(level)
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}
