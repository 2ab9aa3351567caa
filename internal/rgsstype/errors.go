package rgsstype

import "errors"

// Sentinel errors for archive operations.
var (
	// ErrMalformedStream is returned when a stream ends inside a bounded string.
	ErrMalformedStream = errors.New("rgssad: malformed stream")

	// ErrInvalidArchive is returned when the header signature or revision is not recognized.
	ErrInvalidArchive = errors.New("rgssad: invalid archive")

	// ErrCorruptArchive is returned when an entry cannot be resolved to a valid
	// path or its data range lies outside the archive.
	ErrCorruptArchive = errors.New("rgssad: corrupt archive")

	// ErrTruncatedArchive is returned when fewer content bytes are available than recorded.
	ErrTruncatedArchive = errors.New("rgssad: truncated archive")

	// ErrClosed is returned when an operation is attempted on a closed archive.
	ErrClosed = errors.New("rgssad: archive closed")
)
