package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a new logger instance with the provided configuration
func New(cfg *Config) (*zap.Logger, error) {
	return build(cfg, zapcore.Lock(os.Stdout))
}

// NewWithOutput is New with the console output sent to w
func NewWithOutput(cfg *Config, w io.Writer) (*zap.Logger, error) {
	return build(cfg, zapcore.AddSync(w))
}

// build assembles the console core on console and, when a file is set,
// a JSON core behind a rotating writer.
func build(cfg *Config, console zapcore.WriteSyncer) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	cfg = cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := getZapLevel(cfg.Level)

	var cores []zapcore.Core

	if cfg.File != "" {
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(w),
			level,
		))
	}

	cores = append(cores, zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		console,
		level,
	))

	stackLevel := zapcore.FatalLevel
	if cfg.Development {
		stackLevel = zapcore.ErrorLevel
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(stackLevel),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// getZapLevel converts string level to zapcore.Level
func getZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
