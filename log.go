package thicket

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is the package-wide logger. It discards everything until SetLogger
// installs a real one. Like the rest of the package it is not safe for
// concurrent reconfiguration.
var logger = zap.NewNop()

// SetLogger installs l as the package logger. Passing nil restores the
// no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	return logger
}

// NewLogger builds a zap logger from cfg. Format "json" selects the
// production encoder; anything else selects a colored console encoder.
// Unknown levels fall back to info.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
