package sink

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// errTarAborted is returned once an entry of a TarSink was discarded.
var errTarAborted = errors.New("tar stream aborted by an incomplete entry")

// TarSink writes entries into a tar stream, optionally zstd compressed.
//
// Tar content cannot be rewound, so discarding an entry leaves the stream
// unusable and every later Writer call fails.
type TarSink struct {
	tw      *tar.Writer
	enc     *zstd.Encoder
	modTime time.Time
	seen    map[string]struct{}
	err     error
}

// TarSinkOption configures a TarSink.
type TarSinkOption func(*tarConfig)

type tarConfig struct {
	zstd    bool
	level   zstd.EncoderLevel
	modTime time.Time
}

// WithZstd compresses the tar stream with zstd.
func WithZstd(enabled bool) TarSinkOption {
	return func(c *tarConfig) {
		c.zstd = enabled
	}
}

// WithZstdLevel sets the zstd encoder level. The default is zstd.SpeedDefault.
func WithZstdLevel(level zstd.EncoderLevel) TarSinkOption {
	return func(c *tarConfig) {
		c.level = level
	}
}

// WithModTime sets the modification time recorded for every member.
// The default is the Unix epoch, which keeps output reproducible.
func WithModTime(t time.Time) TarSinkOption {
	return func(c *tarConfig) {
		c.modTime = t
	}
}

// NewTarSink returns a TarSink writing to w. The caller must Close the sink
// to flush the stream; w itself is not closed.
func NewTarSink(w io.Writer, opts ...TarSinkOption) (*TarSink, error) {
	cfg := tarConfig{
		level:   zstd.SpeedDefault,
		modTime: time.Unix(0, 0).UTC(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &TarSink{
		modTime: cfg.modTime,
		seen:    make(map[string]struct{}),
	}
	if cfg.zstd {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(cfg.level))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		s.enc = enc
		w = enc
	}
	s.tw = tar.NewWriter(w)
	return s, nil
}

// ShouldProcess skips names that were already written.
func (s *TarSink) ShouldProcess(rel string) (bool, error) {
	_, dup := s.seen[rel]
	return !dup, nil
}

// Writer writes a tar header for rel and returns a Committer for its content.
func (s *TarSink) Writer(rel string, size int64) (Committer, error) {
	if s.err != nil {
		return nil, s.err
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     rel,
		Size:     size,
		Mode:     0o644,
		ModTime:  s.modTime,
		Format:   tar.FormatPAX,
	}
	if err := s.tw.WriteHeader(hdr); err != nil {
		s.err = fmt.Errorf("write tar header %s: %w", rel, err)
		return nil, s.err
	}
	s.seen[rel] = struct{}{}
	return &tarCommitter{sink: s}, nil
}

// Close flushes the tar trailer and the zstd frame.
func (s *TarSink) Close() error {
	err := s.tw.Close()
	if s.enc != nil {
		err = errors.Join(err, s.enc.Close())
	}
	return err
}

type tarCommitter struct {
	sink *TarSink
}

// Write implements io.Writer.
func (c *tarCommitter) Write(p []byte) (int, error) {
	return c.sink.tw.Write(p)
}

// Commit is a no-op; tar members are complete once their content is written.
func (c *tarCommitter) Commit() error {
	return nil
}

// Discard marks the stream as aborted.
func (c *tarCommitter) Discard() error {
	c.sink.err = errTarAborted
	return nil
}
