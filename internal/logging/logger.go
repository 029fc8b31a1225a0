// Package logging builds the zap logger used for a run: a size-rotated
// daily file under the log directory, optionally mirrored to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nhle/hsck/internal/model"
)

const (
	// DefaultDir is the directory log files are written to.
	DefaultDir = "log"

	maxSizeMB  = 10
	maxBackups = 5
	timeLayout = "2006-01-02 15:04:05"
)

// Options controls where the logger writes.
type Options struct {
	Dir     string           // defaults to DefaultDir
	Now     func() time.Time // picks the file date; defaults to time.Now
	Console io.Writer        // console sink when console_output is set; defaults to os.Stderr
	RunID   string           // attached to every entry when non-empty
}

// ParseLevel maps a configured level name to a zap level. zap has no trace
// level, so trace enables debug.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// FileName returns the log file name for the given day.
func FileName(day time.Time) string {
	return fmt.Sprintf("hsck-%s.log", day.Format("2006-01-02"))
}

// New creates the run logger. The returned close function flushes and
// closes the log file.
func New(settings model.LoggingSettings, opts Options) (*zap.Logger, func() error, error) {
	level, err := ParseLevel(settings.Level)
	if err != nil {
		return nil, nil, err
	}

	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName(opts.Now())),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
		LocalTime:  true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(false)), zapcore.AddSync(file), level),
	}
	if settings.ConsoleOutput {
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(true)), zapcore.AddSync(opts.Console), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.RunID != "" {
		logger = logger.With(zap.String("run_id", opts.RunID))
	}

	logger.Info("logger initialised",
		zap.String("level", strings.ToLower(settings.Level)),
		zap.Bool("console_output", settings.ConsoleOutput),
		zap.String("file", file.Filename),
	)

	closeFn := func() error {
		_ = logger.Sync()
		return file.Close()
	}
	return logger, closeFn, nil
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}
