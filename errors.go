package rgssad

import "github.com/meigma/rgssad/internal/rgsstype"

// Sentinel errors re-exported from internal/rgsstype.
var (
	// ErrMalformedStream is returned when a stream ends inside a bounded string.
	ErrMalformedStream = rgsstype.ErrMalformedStream

	// ErrInvalidArchive is returned when the header signature does not match,
	// or when the revision is not supported and strict detection was requested.
	ErrInvalidArchive = rgsstype.ErrInvalidArchive

	// ErrCorruptArchive is returned when an entry's name cannot be resolved to
	// a safe relative path or its data range lies outside the archive.
	ErrCorruptArchive = rgsstype.ErrCorruptArchive

	// ErrTruncatedArchive is returned when fewer content bytes are available
	// at an entry's offset than its recorded size.
	ErrTruncatedArchive = rgsstype.ErrTruncatedArchive

	// ErrClosed is returned when an operation is attempted on a closed Archive.
	ErrClosed = rgsstype.ErrClosed
)
