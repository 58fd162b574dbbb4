package lidarformat

import (
	"path/filepath"
	"time"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/codec/builtin"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// Store is the configured entry point for opening and saving point-cloud
// files. A Store holds no per-file state and is safe for concurrent use.
type Store struct {
	registry    *codec.Registry
	fs          fs.FileSystem
	logger      *Logger
	metrics     MetricsCollector
	compression sidecar.Compression
	fallbackDir string
}

// New returns a Store configured by opts.
func New(opts ...Option) *Store {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = fs.Default
	}
	if o.registry == nil {
		o.registry = builtin.NewRegistry(o.fs)
	}
	if o.logger == nil {
		o.logger = NewLogger(nil)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return &Store{
		registry:    o.registry,
		fs:          o.fs,
		logger:      o.logger,
		metrics:     o.metricsCollector,
		compression: o.compression,
		fallbackDir: o.fallbackDir,
	}
}

// Registry returns the codec registry of s.
func (s *Store) Registry() *codec.Registry { return s.registry }

// ReadContainer opens path and loads it into a new container.
func (s *Store) ReadContainer(path string) (*container.Container, error) {
	c, err := container.New()
	if err != nil {
		return nil, err
	}
	if err := s.Open(path).Load(c); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveSidecar finds the sidecar for path, generating it for raw PLY and
// LAS files that have none.
func (s *Store) resolveSidecar(path string) (string, error) {
	if format.IsSidecar(path) {
		return path, nil
	}
	sidecarPath := format.SidecarPath(path)
	if fs.Exists(s.fs, sidecarPath) {
		s.logger.LogSidecar(path, sidecarPath)
		return sidecarPath, nil
	}
	if s.fallbackDir != "" {
		fallback := filepath.Join(s.fallbackDir, filepath.Base(sidecarPath))
		if fs.Exists(s.fs, fallback) {
			s.logger.LogSidecar(path, fallback)
			return fallback, nil
		}
	}

	start := time.Now()
	sidecarPath, err := s.synthesize(path, sidecarPath)
	s.metrics.RecordSynthesis(time.Since(start), err)
	s.logger.LogSynthesis(path, sidecarPath, err)
	return sidecarPath, err
}

func (s *Store) synthesize(rawPath, sidecarPath string) (string, error) {
	id, ok := format.FromExt(filepath.Ext(rawPath))
	if !ok {
		return "", &synthesisError{path: rawPath, reason: "unrecognized extension"}
	}
	describer, ok := s.registry.Describer(id)
	if !ok {
		return "", &synthesisError{path: rawPath, reason: "no header reader for format " + id.String()}
	}
	d, err := describer.Describe(rawPath)
	if err != nil {
		return "", &synthesisError{path: rawPath, cause: err}
	}

	d.DataFileName = filepath.Base(rawPath)
	err = sidecar.Write(s.fs, sidecarPath, d)
	if err == nil {
		return sidecarPath, nil
	}
	if s.fallbackDir == "" {
		return "", &synthesisError{path: rawPath, cause: err}
	}

	abs, absErr := filepath.Abs(rawPath)
	if absErr != nil {
		return "", &synthesisError{path: rawPath, cause: absErr}
	}
	d.DataFileName = abs
	fallback := filepath.Join(s.fallbackDir, filepath.Base(sidecarPath))
	if err := sidecar.Write(s.fs, fallback, d); err != nil {
		return "", &synthesisError{path: rawPath, cause: err}
	}
	return fallback, nil
}

// synthesisError matches ErrSynthesisFailed.
type synthesisError struct {
	path   string
	reason string
	cause  error
}

func (e *synthesisError) Error() string {
	msg := ErrSynthesisFailed.Error() + " for " + e.path
	if e.reason != "" {
		msg += ": " + e.reason
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *synthesisError) Is(target error) bool { return target == ErrSynthesisFailed }

func (e *synthesisError) Unwrap() error { return e.cause }
