// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

// Package log provides the structured logger used by adbsync.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	// PathStderr writes log messages to standard error.
	PathStderr = "-"

	DefaultPermissions os.FileMode = 0600
)

// Config holds logging configuration.
type Config struct {
	// Verbose is the number of -v flags.
	Verbose int
	// Quiet is the number of -q flags.
	Quiet   int
	Format  string
	NoColor bool
	// Path is the log file.  Defaults to standard error.
	Path        string
	Permissions os.FileMode
	// Writer overrides Path if not nil.
	Writer io.Writer
}

// Level returns the minimum level for the verbosity counters and whether
// logging is disabled entirely.
func Level(verbose int, quiet int) (zapcore.Level, bool) {
	switch {
	case verbose > 0:
		return zapcore.DebugLevel, false
	case quiet == 1:
		return zapcore.WarnLevel, false
	case quiet == 2:
		return zapcore.ErrorLevel, false
	case quiet == 3:
		return zapcore.DPanicLevel, false
	case quiet > 3:
		return zapcore.FatalLevel, true
	}
	return zapcore.InfoLevel, false
}

// Logger writes structured messages with a field map.
type Logger struct {
	logger *zap.Logger
	closer io.Closer
}

func NewLogger(cfg Config) (*Logger, error) {
	level, silent := Level(cfg.Verbose, cfg.Quiet)
	if silent {
		return &Logger{logger: zap.NewNop()}, nil
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case FormatJSON:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = criticalLevelEncoder(zapcore.LowercaseLevelEncoder, "critical")
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "", FormatText:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.CallerKey = zapcore.OmitKey
		if cfg.NoColor {
			encoderConfig.EncodeLevel = criticalLevelEncoder(zapcore.CapitalLevelEncoder, "CRITICAL")
		} else {
			encoderConfig.EncodeLevel = criticalLevelEncoder(zapcore.CapitalColorLevelEncoder, "\x1b[35mCRITICAL\x1b[0m")
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var writer zapcore.WriteSyncer
	var closer io.Closer
	switch {
	case cfg.Writer != nil:
		writer = zapcore.AddSync(cfg.Writer)
	case cfg.Path == "" || cfg.Path == PathStderr:
		writer = zapcore.Lock(os.Stderr)
	default:
		perm := cfg.Permissions
		if perm == 0 {
			perm = DefaultPermissions
		}
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
		if err != nil {
			return nil, fmt.Errorf("error opening log file %q: %w", cfg.Path, err)
		}
		writer = zapcore.Lock(f)
		closer = f
	}

	core := zapcore.NewCore(encoder, writer, zap.NewAtomicLevelAt(level))
	return &Logger{
		logger: zap.New(core),
		closer: closer,
	}, nil
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

// Critical logs a message that ends the program.  It is written at the
// dpanic level, which never panics outside of development loggers.
func (l *Logger) Critical(msg string, fields ...map[string]interface{}) {
	l.logger.DPanic(msg, zapFields(fields)...)
}

// criticalLevelEncoder names the dpanic level as critical.
func criticalLevelEncoder(next zapcore.LevelEncoder, name string) zapcore.LevelEncoder {
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		if level == zapcore.DPanicLevel {
			enc.AppendString(name)
			return
		}
		next(level, enc)
	}
}

// Close flushes buffered messages and closes the log file, if any.
func (l *Logger) Close() error {
	_ = l.logger.Sync() // syncing stderr fails on some platforms
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// zapFields returns the fields sorted by key.
func zapFields(fields []map[string]interface{}) []zap.Field {
	out := []zap.Field{}
	for _, m := range fields {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, zap.Any(k, m[k]))
		}
	}
	return out
}
