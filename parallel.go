package rgssad

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/rgssad/internal/sink"
)

// extractParallel fans entries out to cfg.workers goroutines.
//
// Every worker opens its own handle on the archive path and its own
// destination root, so no cursor is shared. Entries with the same name may
// be written in any order.
func (a *Archive) extractParallel(destDir string, cfg *extractConfig) (Stats, error) {
	workers := min(cfg.workers, len(a.entries))
	a.log().Debug("parallel extraction", "entries", len(a.entries), "workers", workers)

	// Create the destination once so workers do not race on it.
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return Stats{}, fmt.Errorf("create destination %s: %w", destDir, err)
	}

	var (
		mu    sync.Mutex
		stats Stats
		errs  []error
	)
	record := func(res Result, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.Failed++
			if !cfg.continueOnError {
				return err
			}
			a.log().Warn("entry failed", "name", res.Entry.Name, "error", err)
			errs = append(errs, err)
			return nil
		}
		stats.add(res)
		if cfg.progress != nil {
			cfg.progress(res)
		}
		return nil
	}

	eg, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan Entry)

	eg.Go(func() error {
		defer close(jobs)
		for _, entry := range a.entries {
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range workers {
		eg.Go(func() (err error) {
			src, err := os.Open(a.path)
			if err != nil {
				return fmt.Errorf("open worker handle: %w", err)
			}
			defer func() { err = errors.Join(err, src.Close()) }()

			fsink, err := sink.OpenFileSink(destDir, cfg.sinkOptions()...)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, fsink.Close()) }()

			for entry := range jobs {
				if err := record(a.extractTo(src, entry, fsink, cfg)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, errors.Join(errs...)
}
