package lidarformat

import (
	"errors"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/sidecar"
)

var (
	// ErrInvalidDescriptor is returned by every accessor and load of a File
	// whose sidecar could not be located, synthesized or parsed.
	ErrInvalidDescriptor = errors.New("invalid sidecar descriptor")

	// ErrSynthesisFailed marks the cause of an invalid File when no sidecar
	// existed and none could be generated from the raw data file.
	ErrSynthesisFailed = errors.New("sidecar synthesis failed")

	// ErrUnsupportedFormat is returned when no codec is registered for a
	// format.
	ErrUnsupportedFormat = codec.ErrUnsupportedFormat

	// ErrParse is returned for malformed sidecar documents.
	ErrParse = sidecar.ErrParse
)

// CodecError wraps a failure raised by a format codec.
type CodecError = codec.CodecError

// invalidError reports why a File is unusable. It matches
// ErrInvalidDescriptor and unwraps to the resolution failure.
type invalidError struct {
	path  string
	cause error
}

func (e *invalidError) Error() string {
	if e.cause == nil {
		return ErrInvalidDescriptor.Error() + ": " + e.path
	}
	return ErrInvalidDescriptor.Error() + ": " + e.path + ": " + e.cause.Error()
}

func (e *invalidError) Is(target error) bool { return target == ErrInvalidDescriptor }

func (e *invalidError) Unwrap() error { return e.cause }
