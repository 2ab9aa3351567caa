package rgssad

import (
	"github.com/opencontainers/go-digest"

	"github.com/meigma/rgssad/internal/rgsstype"
	"github.com/meigma/rgssad/internal/toc"
)

// Entry represents one file stored in an archive.
type Entry = rgsstype.Entry

// EntryProvider builds the entry table of an archive.
//
// Decode receives the archive stream and its total size and returns the
// entries in stored order. Implementations exist for revision 1 and revision
// 3 tables; others can be supplied with [WithEntryProvider].
type EntryProvider = toc.Decoder

// Status describes the outcome of extracting one entry.
type Status int

const (
	// StatusWritten means the entry's content was written.
	StatusWritten Status = iota + 1

	// StatusSkipped means the destination already existed and overwrite was disabled.
	StatusSkipped
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of extracting one entry.
type Result struct {
	// Entry is the extracted entry.
	Entry Entry

	// Path is where the entry was (or would have been) written.
	Path string

	// Status reports whether the entry was written or skipped.
	Status Status

	// Bytes is the number of plaintext bytes written.
	Bytes int64

	// Digest is the sha256 digest of the plaintext. Empty for skipped entries.
	Digest digest.Digest
}

// Stats contains statistics from an extraction.
type Stats struct {
	// Written is the number of entries written.
	Written int

	// Skipped is the number of entries skipped because the destination existed.
	Skipped int

	// Failed is the number of entries that returned an error.
	Failed int

	// TotalBytes is the sum of Bytes over all written entries.
	TotalBytes int64
}

// add accumulates one result into the stats.
func (s *Stats) add(r Result) {
	switch r.Status {
	case StatusWritten:
		s.Written++
		s.TotalBytes += r.Bytes
	case StatusSkipped:
		s.Skipped++
	}
}
