// Package sink provides the destinations extracted entries are written to.
package sink

import "io"

// Interface compliance.
var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*TarSink)(nil)
)

// Sink receives decrypted entry content during extraction.
//
// Paths passed to a Sink are slash-separated, relative and already
// validated by pathutil.Resolve.
type Sink interface {
	// ShouldProcess returns false if the entry at rel should be skipped.
	// This allows implementations to leave existing files untouched.
	ShouldProcess(rel string) (bool, error)

	// Writer returns a writer for size bytes of content at rel.
	// The returned Committer must have Commit called after all content
	// was written, or Discard called on any error.
	Writer(rel string, size int64) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
