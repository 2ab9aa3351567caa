package rgssad

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/meigma/rgssad/internal/rgsstype"
	"github.com/meigma/rgssad/internal/toc"
)

// Archive is an open container with its decoded entry table.
//
// An Archive owns its source for its whole lifetime and releases it on
// Close. It is not safe for concurrent use.
type Archive struct {
	path     string
	src      io.ReadSeekCloser
	size     int64
	revision Revision
	entries  []Entry
	logger   *slog.Logger
	closed   bool
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open opens the archive at path and decodes its entry table.
//
// The revision is read from the header. If the file extension implies a
// different revision, a warning is logged and the header wins.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return newArchive(path, f, opts)
}

// New decodes the entry table of the archive in src.
//
// New takes ownership of src: it is closed by Archive.Close, or before New
// returns if the archive cannot be read. Archives created by New have no
// path, so ExtractWithWorkers has no effect on them.
func New(src io.ReadSeekCloser, opts ...Option) (*Archive, error) {
	return newArchive("", src, opts)
}

func newArchive(path string, src io.ReadSeekCloser, opts []Option) (*Archive, error) {
	var cfg archiveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Archive{
		path:   path,
		src:    src,
		logger: cfg.logger,
	}
	if err := a.load(cfg.provider); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

// load sizes the source and fills the entry table.
func (a *Archive) load(provider EntryProvider) error {
	size, err := a.src.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("size archive: %w", err)
	}
	a.size = size

	if provider == nil {
		rev, err := DetectRevisionStrict(a.src)
		if err != nil {
			return err
		}
		a.revision = rev
		a.checkExtension()

		d, ok := toc.ForRevision(byte(rev))
		if !ok {
			return fmt.Errorf("%w: no decoder for revision %d", rgsstype.ErrInvalidArchive, rev)
		}
		provider = d
	}

	entries, err := provider.Decode(a.src, a.size)
	if err != nil {
		return fmt.Errorf("decode entry table: %w", err)
	}
	for i := range entries {
		if err := rgsstype.ValidateRange(&entries[i], a.size); err != nil {
			return err
		}
	}
	a.entries = entries

	a.log().Debug("decoded entry table",
		"path", a.path, "revision", a.revision, "entries", len(entries), "size", a.size)
	return nil
}

// checkExtension warns when the file extension disagrees with the header.
func (a *Archive) checkExtension() {
	if a.path == "" {
		return
	}
	engine, ok := EngineFromPath(a.path)
	if !ok || engine.Revision() == a.revision {
		return
	}
	a.log().Warn("archive extension does not match header revision",
		"path", a.path, "engine", engine.String(), "extension_revision", engine.Revision(),
		"header_revision", a.revision)
}

// Path returns the path the archive was opened from, or "" for New.
func (a *Archive) Path() string {
	return a.path
}

// Revision returns the header revision, or RevisionUnknown if the entry
// table came from WithEntryProvider.
func (a *Archive) Revision() Revision {
	return a.revision
}

// Size returns the total size of the archive in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Entries returns a copy of the entry table in stored order.
func (a *Archive) Entries() []Entry {
	return slices.Clone(a.entries)
}

// Close releases the archive's source. Subsequent calls return nil.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.src.Close()
}
