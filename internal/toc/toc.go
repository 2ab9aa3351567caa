// Package toc decodes and encodes the per-revision tables of contents.
//
// Each revision lays out and obfuscates its table differently, but all of
// them produce the same normalized entry list.
package toc

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/meigma/rgssad/internal/rgsstype"
)

// Entry is an alias for rgsstype.Entry.
type Entry = rgsstype.Entry

// Decoder reads the table of contents of one revision.
//
// Decode is called with a stream whose header has already been validated.
// size is the total length of the stream. The returned entries are in
// stored order and have been checked against size.
type Decoder interface {
	Decode(r io.ReadSeeker, size int64) ([]Entry, error)
}

// File is one input to an archive writer.
type File struct {
	// Name is stored verbatim; archives conventionally use backslashes.
	Name string

	// Data is the plaintext content.
	Data []byte

	// Key seeds the content keystream. Only revision 3 stores per-file
	// keys; revision 1 derives them from the table key.
	Key uint32
}

// ForRevision returns the decoder for the given header revision byte.
func ForRevision(rev byte) (Decoder, bool) {
	switch rev {
	case 1:
		return V1{}, true
	case 3:
		return V3{}, true
	default:
		return nil, false
	}
}

// corrupt maps short reads inside a table to ErrCorruptArchive.
func corrupt(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", rgsstype.ErrCorruptArchive, what)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

func checkUint32(what string, n int) error {
	if uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%s length %d exceeds 32 bits", what, n)
	}
	return nil
}
