//go:build nolas

package builtin

import (
	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/internal/fs"
)

// LASEnabled reports whether the LAS codec is compiled in.
const LASEnabled = false

func registerLAS(*codec.Registry, fs.FileSystem) {}
