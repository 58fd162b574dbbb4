// Package lidarformat stores point clouds as a small XML sidecar plus a
// separate data file.
//
// The sidecar declares the point count, the ordered attribute list (name,
// storage type, optional bounds), an optional centering transform, the
// data file's format and, optionally, its location. The data file holds
// the raw samples in one of several encodings: native binary, ASCII, PLY,
// LAS or TerraScan binary. Format codecs are looked up in a registry keyed
// by format, so the file layer never parses an encoding itself.
//
// # Opening
//
//	store := lidarformat.New()
//	f := store.Open("scan.ply") // uses scan.xml, or generates it
//	if !f.Valid() {
//	    log.Fatal(f.Err())
//	}
//	c, _ := container.New()
//	err := f.Load(c)
//
// Opening a raw PLY or LAS file without a sidecar generates the sidecar
// from the file's header. Opening never fails; an unresolvable file yields
// an invalid handle whose accessors return ErrInvalidDescriptor.
//
// # Saving
//
//	store.Save(c, "out.txt")                 // ASCII, sidecar out.xml
//	store.Save(c, "out.xml")                 // binary out.bin
//	store.SaveAs(c, "out", format.PlyArchive) // out.ply + out.xml
//
// Every save writes the sidecar first and then the data file. The two
// writes are not transactional.
//
// # Concurrency
//
// A Store is safe for concurrent use once built. A File must not be loaded
// from concurrently. ConvertAll converts independent files in parallel.
package lidarformat
