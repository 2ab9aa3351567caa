// Package rgsstype holds the types shared by the archive reader, the
// table decoders and the extraction sinks.
package rgsstype

// Entry represents one file stored in an archive.
type Entry struct {
	// Name is the stored file name, using the archive's backslash separators
	// (e.g., "Data\\Map001.rxdata").
	Name string

	// Offset is the byte offset of the encrypted content from the start of the archive.
	Offset int64

	// Size is the length in bytes of the encrypted content.
	Size int64

	// Key seeds the keystream used to decrypt this entry.
	Key uint32
}
