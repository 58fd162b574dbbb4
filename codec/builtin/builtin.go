// Package builtin wires every codec shipped with lidarformat into a
// registry.
//
// The LAS codec is excluded when building with the nolas tag.
package builtin

import (
	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/codec/ascii"
	"github.com/hupe1980/lidarformat/codec/bin"
	"github.com/hupe1980/lidarformat/codec/ply"
	"github.com/hupe1980/lidarformat/codec/terrabin"
	"github.com/hupe1980/lidarformat/internal/fs"
)

// Register adds the built-in codecs to r, doing their I/O through fsys
// (fs.Default if nil).
func Register(r *codec.Registry, fsys fs.FileSystem) {
	if fsys == nil {
		fsys = fs.Default
	}
	bin.Register(r, fsys)
	ascii.Register(r, fsys)
	ply.Register(r, fsys)
	terrabin.Register(r, fsys)
	registerLAS(r, fsys)
}

// NewRegistry returns a registry holding the built-in codecs.
func NewRegistry(fsys fs.FileSystem) *codec.Registry {
	r := codec.NewRegistry()
	Register(r, fsys)
	return r
}
