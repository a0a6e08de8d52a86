// Package logging builds the diagnostic zap logger. User-facing progress
// lines do not go through it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// Level applies to the console core; the file core records everything.
	Level string
	// File, when set, receives JSON lines. Parent directories are created.
	File string
	// Console receives colored human-readable lines. Nil disables it, which
	// the interactive view needs to keep the screen intact.
	Console io.Writer
}

// New builds a logger from opts. With neither a console nor a file it
// returns a no-op logger. The returned func flushes the logger and closes the
// log file; it is always non-nil and safe to call once the logger is done.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	closeFile := func() {}

	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.AddSync(opts.Console),
			level,
		))
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		sink, closer, err := zap.Open(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		closeFile = closer
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			sink,
			zapcore.DebugLevel,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFile, nil
	}
	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return log, func() {
		_ = log.Sync()
		closeFile()
	}, nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := consoleEncoderConfig()
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var s string
	switch level {
	case zapcore.DebugLevel:
		s = color.CyanString("[DEBUG]")
	case zapcore.InfoLevel:
		s = color.GreenString("[INFO] ")
	case zapcore.WarnLevel:
		s = color.YellowString("[WARN] ")
	case zapcore.ErrorLevel:
		s = color.RedString("[ERROR]")
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		s = color.MagentaString("[" + level.CapitalString() + "]")
	default:
		s = level.CapitalString()
	}
	enc.AppendString(s)
}
