// Package fs provides the file system abstraction used for sidecar and data
// file I/O, plus a fault-injecting wrapper for tests.
//
// The package defines two interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, rename, stat and mkdir
//
// # Implementations
//
//   - [LocalFS]: production implementation on top of the os package
//   - [FaultyFS]: test wrapper that injects open, write, sync and close errors
//
// # Usage
//
// Production code uses fs.Default:
//
//	data, err := fs.ReadFile(fs.Default, "cloud.xml")
//
// Tests inject a [FaultyFS] to simulate a read-only directory:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("cloud.xml", fs.Fault{FailOnCreate: true})
//
// Filesystem calls take no context.Context. Local file operations are not
// interruptible at the syscall level.
package fs
