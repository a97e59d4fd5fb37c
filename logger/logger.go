package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. "production" yields JSON output at info level,
// anything else a human readable development logger.
func New(mode string) (*zap.Logger, error) {
	if mode == "production" || mode == "release" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// Init builds a logger for mode and installs it as the zap global.
func Init(mode string) (*zap.Logger, error) {
	log, err := New(mode)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
