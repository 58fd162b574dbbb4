package lidarformat

import (
	"log/slog"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// FileSystem is the file system abstraction a Store performs its I/O on.
type FileSystem = fs.FileSystem

type options struct {
	registry         *codec.Registry
	fs               fs.FileSystem
	logger           *Logger
	metricsCollector MetricsCollector
	compression      sidecar.Compression
	fallbackDir      string
}

// Option configures a Store.
type Option func(*options)

// WithRegistry configures the codec registry. The registry must be fully
// populated before it is passed in; the Store only reads it.
//
// If nil is passed, the built-in codecs are used.
func WithRegistry(r *codec.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithFileSystem configures the file system used for sidecars and, when
// the built-in registry is used, for data files.
//
// If nil is passed, the local file system is used.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lidarformat.NewJSONLogger(slog.LevelInfo)
//	store := lidarformat.New(lidarformat.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lidarformat.BasicMetricsCollector{}
//	store := lidarformat.New(lidarformat.WithMetricsCollector(metrics))
//	// ... load and save ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, Points: %d\n", stats.LoadCount, stats.LoadPoints)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression sets the stream compression of binary data files written
// by the save family. Other formats ignore it.
func WithCompression(c sidecar.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSynthesisFallbackDir sets a directory for sidecars that cannot be
// written next to their raw data file. Such sidecars name the raw file by
// its absolute path. Disabled by default.
func WithSynthesisFallbackDir(dir string) Option {
	return func(o *options) {
		o.fallbackDir = dir
	}
}
