// Package format validates the container header.
//
// A container begins with the ASCII signature "RGSSAD", a zero byte and a
// single revision byte.
package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/rgssad/internal/binio"
	"github.com/meigma/rgssad/internal/rgsstype"
)

const (
	// Signature is the magic string at the start of every container.
	Signature = "RGSSAD"

	// SignatureLen is the number of bytes scanned for the signature,
	// including its zero terminator.
	SignatureLen = 7

	// HeaderLen is the size of the signature plus the revision byte.
	HeaderLen = SignatureLen + 1
)

// Probe reads the header of r and returns the revision byte.
//
// ErrInvalidArchive is returned if the signature does not match or the
// revision byte is missing. The cursor of r is reset to offset 0 before
// Probe returns, whatever the outcome.
func Probe(r io.ReadSeeker) (rev byte, err error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("probe: rewind: %w", err)
	}
	defer func() {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("probe: rewind: %w", seekErr)
		}
	}()

	sig, err := binio.ReadBoundedString(r, SignatureLen)
	if err != nil {
		if errors.Is(err, rgsstype.ErrMalformedStream) {
			return 0, fmt.Errorf("%w: signature mismatch: %w", rgsstype.ErrInvalidArchive, err)
		}
		return 0, fmt.Errorf("probe: %w", err)
	}
	if sig != Signature {
		return 0, fmt.Errorf("%w: signature mismatch: %q", rgsstype.ErrInvalidArchive, sig)
	}

	// The revision byte is always at SignatureLen.
	if _, err := r.Seek(SignatureLen, io.SeekStart); err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	rev, err = binio.ReadByte(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: missing revision byte", rgsstype.ErrInvalidArchive)
		}
		return 0, fmt.Errorf("probe: %w", err)
	}
	return rev, nil
}

// WriteHeader writes the signature and revision byte to w.
func WriteHeader(w io.Writer, rev byte) error {
	header := make([]byte, 0, HeaderLen)
	header = append(header, Signature...)
	header = append(header, 0, rev)
	_, err := w.Write(header)
	return err
}
