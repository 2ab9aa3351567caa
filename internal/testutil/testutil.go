// Package testutil builds encrypted archives for tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/meigma/rgssad/internal/toc"
)

// File is an alias for toc.File.
type File = toc.File

// BuildV1 returns a revision 1 archive holding files.
func BuildV1(tb testing.TB, files ...File) []byte {
	tb.Helper()
	buf := &bytes.Buffer{}
	if err := toc.WriteV1(buf, files); err != nil {
		tb.Fatalf("build revision 1 archive: %v", err)
	}
	return buf.Bytes()
}

// BuildV3 returns a revision 3 archive holding files, with its table keyed by seed.
func BuildV3(tb testing.TB, seed uint32, files ...File) []byte {
	tb.Helper()
	buf := &bytes.Buffer{}
	if err := toc.WriteV3(buf, seed, files); err != nil {
		tb.Fatalf("build revision 3 archive: %v", err)
	}
	return buf.Bytes()
}

// WriteArchive writes data to name inside a fresh temp directory and
// returns the full path.
func WriteArchive(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write archive: %v", err)
	}
	return path
}

// TrackingSource is an in-memory io.ReadSeekCloser that counts Close calls.
type TrackingSource struct {
	*bytes.Reader
	closes atomic.Int32
}

var _ io.ReadSeekCloser = (*TrackingSource)(nil)

// NewTrackingSource returns a source backed by data.
func NewTrackingSource(data []byte) *TrackingSource {
	return &TrackingSource{Reader: bytes.NewReader(data)}
}

// Close records the call.
func (s *TrackingSource) Close() error {
	s.closes.Add(1)
	return nil
}

// Closes returns how many times Close was called.
func (s *TrackingSource) Closes() int {
	return int(s.closes.Load())
}
