package rgssad

import (
	"errors"
	"io"

	"github.com/meigma/rgssad/internal/sink"
)

// ExportOption configures ExportTar.
type ExportOption func(*exportConfig)

type exportConfig struct {
	zstd     bool
	progress func(Result)
}

// ExportWithZstd compresses the tar stream with zstd.
func ExportWithZstd(enabled bool) ExportOption {
	return func(c *exportConfig) {
		c.zstd = enabled
	}
}

// ExportWithProgress registers fn to be called after every exported entry.
func ExportWithProgress(fn func(Result)) ExportOption {
	return func(c *exportConfig) {
		c.progress = fn
	}
}

// ExportTar writes every entry's plaintext into a tar stream on w.
//
// Member names are the resolved slash-separated entry paths. Later entries
// with a name already written are skipped. The first error aborts the
// export and leaves the stream incomplete.
func (a *Archive) ExportTar(w io.Writer, opts ...ExportOption) (Stats, error) {
	if a.closed {
		return Stats{}, ErrClosed
	}
	var ecfg exportConfig
	for _, opt := range opts {
		opt(&ecfg)
	}

	ts, err := sink.NewTarSink(w, sink.WithZstd(ecfg.zstd))
	if err != nil {
		return Stats{}, err
	}
	cfg := &extractConfig{createDirs: true, progress: ecfg.progress}
	stats, err := a.extractEntries(a.src, ts, cfg)
	return stats, errors.Join(err, ts.Close())
}
