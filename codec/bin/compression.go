package bin

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/lidarformat/sidecar"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder(w io.Writer) (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		enc := v.(*zstd.Encoder)
		enc.Reset(w)
		return enc, nil
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r)
}

// pooledZstdWriter returns the encoder to the pool once the stream is closed.
type pooledZstdWriter struct {
	*zstd.Encoder
}

func (w pooledZstdWriter) Close() error {
	err := w.Encoder.Close()
	zstdEncoderPool.Put(w.Encoder)
	return err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newWriter(w io.Writer, c sidecar.Compression) (io.WriteCloser, error) {
	switch c {
	case sidecar.CompressionNone:
		return nopWriteCloser{w}, nil
	case sidecar.CompressionZstd:
		enc, err := getZstdEncoder(w)
		if err != nil {
			return nil, err
		}
		return pooledZstdWriter{enc}, nil
	case sidecar.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

// newReader returns the decompressing view of r and a release func that must
// be called once reading is done.
func newReader(r io.Reader, c sidecar.Compression) (io.Reader, func(), error) {
	switch c {
	case sidecar.CompressionNone:
		return r, func() {}, nil
	case sidecar.CompressionZstd:
		dec, err := getZstdDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() {
			// Drop the source reference before pooling.
			if dec.Reset(nil) == nil {
				zstdDecoderPool.Put(dec)
			}
		}, nil
	case sidecar.CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression %q", c)
	}
}
