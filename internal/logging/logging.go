// Package logging builds the zap loggers used by the web2pdf binary.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidLevel indicates an unknown log level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ErrInvalidFormat indicates an unknown log format name.
var ErrInvalidFormat = errors.New("invalid log format")

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a logger writing to stderr. format is "json" (production
// encoder) or "console" (development encoder).
func New(level, format string) (*zap.Logger, error) {
	cfg, err := buildConfig(level, format)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewWriter builds a logger writing to w, for tests and embedding.
func NewWriter(w io.Writer, level, format string) (*zap.Logger, error) {
	cfg, err := buildConfig(level, format)
	if err != nil {
		return nil, err
	}
	var enc zapcore.Encoder
	if cfg.Encoding == FormatConsole {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), cfg.Level)
	return zap.New(core), nil
}

func buildConfig(level, format string) (zap.Config, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zap.Config{}, err
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg, nil
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}
