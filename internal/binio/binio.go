// Package binio provides the low-level reads used by header and table parsers.
package binio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/meigma/rgssad/internal/rgsstype"
)

// ReadBoundedString reads a zero-terminated string of at most maxLen bytes
// starting at the current position of r.
//
// Scanning stops at the first zero byte or after maxLen bytes. On return the
// cursor sits just past the terminator if one was found, or just past the
// maxLen-th byte otherwise. The bytes are decoded as Latin-1.
//
// ErrMalformedStream is returned if the stream ends before either a
// terminator or the cap is reached.
func ReadBoundedString(r io.ReadSeeker, maxLen int) (string, error) {
	if maxLen <= 0 {
		return "", nil
	}
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("string position: %w", err)
	}

	buf := make([]byte, maxLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read string: %w", err)
	}

	length := bytes.IndexByte(buf[:n], 0)
	consumed := length + 1
	if length < 0 {
		if n < maxLen {
			return "", fmt.Errorf("%w: stream ended after %d of %d string bytes",
				rgsstype.ErrMalformedStream, n, maxLen)
		}
		length = maxLen
		consumed = maxLen
	}

	if _, err := r.Seek(start+int64(consumed), io.SeekStart); err != nil {
		return "", fmt.Errorf("string position: %w", err)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf[:length])
	if err != nil {
		return "", fmt.Errorf("%w: decode string: %w", rgsstype.ErrMalformedStream, err)
	}
	return string(decoded), nil
}

// ReadUint32 reads a little-endian uint32.
// It returns io.EOF if no bytes remain and io.ErrUnexpectedEOF on a partial read.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
