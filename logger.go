package lidarformat

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/lidarformat/format"
)

// Logger wraps slog.Logger with lidarformat-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to
// stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithFormat adds a format field to the logger.
func (l *Logger) WithFormat(id format.ID) *Logger {
	return &Logger{
		Logger: l.Logger.With("format", id.String()),
	}
}

// LogSidecar logs that an existing sidecar was picked up for a raw file.
func (l *Logger) LogSidecar(path, sidecarPath string) {
	l.Info("using existing sidecar",
		"path", path,
		"sidecar", sidecarPath,
	)
}

// LogSynthesis logs the outcome of generating a sidecar for a raw file.
func (l *Logger) LogSynthesis(path, sidecarPath string, err error) {
	if err != nil {
		l.Warn("could not generate sidecar",
			"path", path,
			"error", err,
		)
	} else {
		l.Info("sidecar generated",
			"path", path,
			"sidecar", sidecarPath,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(dataPath string, id format.ID, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.Error("load failed",
			"path", dataPath,
			"format", id.String(),
			"error", err,
		)
	} else {
		l.Debug("load completed",
			"path", dataPath,
			"format", id.String(),
			"points", points,
			"elapsed", elapsed,
		)
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(dataPath string, id format.ID, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.Error("save failed",
			"path", dataPath,
			"format", id.String(),
			"error", err,
		)
	} else {
		l.Debug("save completed",
			"path", dataPath,
			"format", id.String(),
			"points", points,
			"elapsed", elapsed,
		)
	}
}

// LogConvert logs the outcome of a batch of conversions.
func (l *Logger) LogConvert(jobs, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.Warn("conversion completed with failures",
			"total", jobs,
			"failed", failed,
			"elapsed", elapsed,
		)
	} else {
		l.Info("conversion completed",
			"count", jobs,
			"elapsed", elapsed,
		)
	}
}
