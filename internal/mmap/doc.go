// Package mmap provides read-only memory-mapped access to data files.
//
// The binary codec maps uncompressed data files and copies the records
// straight into the point container:
//
//	m, err := mmap.Open("cloud.bin")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	copy(dst, m.Bytes())
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there. Other platforms read the whole file
// into memory.
package mmap
