package rgssad

import (
	"crypto/cipher"
	_ "crypto/sha256" // registers the digest.Canonical hash
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/rgssad/internal/keystream"
	"github.com/meigma/rgssad/internal/pathutil"
	"github.com/meigma/rgssad/internal/rgsstype"
	"github.com/meigma/rgssad/internal/sink"
)

// ExtractOne decrypts entry and writes it below destDir.
//
// destDir is created if it does not exist. If the destination file already
// exists and overwrite is disabled, nothing is read and the Result has
// StatusSkipped. An entry whose name cannot be resolved to a safe relative
// path yields ErrCorruptArchive, and one whose content is cut short yields
// ErrTruncatedArchive.
func (a *Archive) ExtractOne(entry Entry, destDir string, opts ...ExtractOption) (Result, error) {
	if a.closed {
		return Result{Entry: entry}, ErrClosed
	}
	cfg := newExtractConfig(opts)

	fsink, err := sink.OpenFileSink(destDir, cfg.sinkOptions()...)
	if err != nil {
		return Result{Entry: entry}, err
	}
	res, err := a.extractTo(a.src, entry, fsink, cfg)
	if closeErr := fsink.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil && cfg.progress != nil {
		cfg.progress(res)
	}
	return res, err
}

// ExtractAll extracts every entry below destDir in stored order.
//
// By default ExtractAll stops at the first error; see
// ExtractWithContinueOnError and ExtractWithWorkers.
func (a *Archive) ExtractAll(destDir string, opts ...ExtractOption) (Stats, error) {
	if a.closed {
		return Stats{}, ErrClosed
	}
	cfg := newExtractConfig(opts)
	if cfg.workers > 1 && a.path != "" && len(a.entries) > 1 {
		return a.extractParallel(destDir, cfg)
	}

	fsink, err := sink.OpenFileSink(destDir, cfg.sinkOptions()...)
	if err != nil {
		return Stats{}, err
	}
	stats, err := a.extractEntries(a.src, fsink, cfg)
	return stats, errors.Join(err, fsink.Close())
}

// extractEntries runs the serial pipeline over all entries into s.
func (a *Archive) extractEntries(src io.ReadSeeker, s sink.Sink, cfg *extractConfig) (Stats, error) {
	var stats Stats
	var errs []error
	for _, entry := range a.entries {
		res, err := a.extractTo(src, entry, s, cfg)
		if err != nil {
			stats.Failed++
			if !cfg.continueOnError {
				return stats, err
			}
			a.log().Warn("entry failed", "name", entry.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		stats.add(res)
		if cfg.progress != nil {
			cfg.progress(res)
		}
	}
	return stats, errors.Join(errs...)
}

// extractTo resolves, decrypts and writes one entry.
//
// The keystream state is created here, per call, so entries never share
// cipher state.
func (a *Archive) extractTo(src io.ReadSeeker, entry Entry, s sink.Sink, cfg *extractConfig) (Result, error) {
	res := Result{Entry: entry}

	rel, err := pathutil.Resolve(entry.Name, !cfg.createDirs)
	if err != nil {
		return res, err
	}
	res.Path = rel
	if p, ok := s.(interface{ Path(string) string }); ok {
		res.Path = p.Path(rel)
	}

	ok, err := s.ShouldProcess(rel)
	if err != nil {
		return res, fmt.Errorf("extract %q: %w", entry.Name, err)
	}
	if !ok {
		res.Status = StatusSkipped
		a.log().Debug("skipped existing file", "name", entry.Name, "path", res.Path)
		return res, nil
	}

	if err := rgsstype.ValidateRange(&entry, a.size); err != nil {
		return res, err
	}
	if _, err := src.Seek(entry.Offset, io.SeekStart); err != nil {
		return res, fmt.Errorf("extract %q: seek: %w", entry.Name, err)
	}

	w, err := s.Writer(rel, entry.Size)
	if err != nil {
		return res, fmt.Errorf("extract %q: %w", entry.Name, err)
	}

	digester := digest.Canonical.Digester()
	plain := &cipher.StreamReader{
		S: keystream.New(entry.Key),
		R: io.LimitReader(src, entry.Size),
	}
	n, err := io.Copy(io.MultiWriter(w, digester.Hash()), plain)
	if err == nil && n < entry.Size {
		err = fmt.Errorf("%w: %q: read %d of %d bytes at offset %d",
			rgsstype.ErrTruncatedArchive, entry.Name, n, entry.Size, entry.Offset)
	}
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		if !errors.Is(err, rgsstype.ErrTruncatedArchive) {
			err = fmt.Errorf("extract %q: %w", entry.Name, err)
		}
		return res, err
	}
	if err := w.Commit(); err != nil {
		return res, fmt.Errorf("extract %q: %w", entry.Name, err)
	}

	res.Status = StatusWritten
	res.Bytes = n
	res.Digest = digester.Digest()
	a.log().Debug("extracted entry", "name", entry.Name, "path", res.Path, "bytes", n)
	return res, nil
}
