//go:build !unix && !windows

package mmap

import (
	"io"
	"os"
)

// Without mmap support the data file is read into memory once.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), buf); err != nil {
		return nil, nil, err
	}
	release := func([]byte) error { return nil }
	return buf, release, nil
}

func osAdvise([]byte, AccessPattern) error { return nil }
