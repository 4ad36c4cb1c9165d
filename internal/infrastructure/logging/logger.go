package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

var encodings = map[string]string{
	"json":    "json",
	"console": "console",
}

// NewLogger builds a zap.Logger for the requested level and format
// ("json" or "console").
func NewLogger(level, format string) (*zap.Logger, error) {
	zapLevel, ok := levels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}
	encoding, ok := encodings[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = encoding
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// MustNewLogger is NewLogger for process bootstrap, falling back to a
// production logger on a bad configuration.
func MustNewLogger(level, format string) *zap.Logger {
	logger, err := NewLogger(level, format)
	if err == nil {
		return logger
	}
	fallback, ferr := zap.NewProduction()
	if ferr != nil {
		return zap.NewNop()
	}
	fallback.Warn("invalid logger configuration, using defaults", zap.Error(err))
	return fallback
}
