// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	consoleFormat = "console"
	jsonFormat    = "json"
)

// Options configures the logger
type Options struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"`
	EnableColor bool     `yaml:"enable_color"`
	OutputPaths []string `yaml:"output_paths"`
}

// NewOptions returns console logging at info level to stderr
func NewOptions() Options {
	return Options{
		Level:       "info",
		Format:      consoleFormat,
		OutputPaths: []string{"stderr"},
	}
}

// New builds a logger from opts. An unknown level falls back to info.
func New(opts Options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	format := opts.Format
	switch format {
	case "":
		format = consoleFormat
	case consoleFormat, jsonFormat:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	encodeLevel := zapcore.CapitalLevelEncoder
	if format == consoleFormat && opts.EnableColor {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableStacktrace: true,
		Encoding:          format,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "timestamp",
			NameKey:        "logger",
			CallerKey:      "caller",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    encodeLevel,
			EncodeTime:     timeEncoder,
			EncodeDuration: milliSecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func milliSecondsDurationEncoder(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendFloat64(float64(d) / float64(time.Millisecond))
}
