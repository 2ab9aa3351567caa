package rgssad

import "github.com/meigma/rgssad/internal/sink"

// ExtractOption configures ExtractOne and ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite       bool
	createDirs      bool
	continueOnError bool
	atomic          bool
	workers         int
	progress        func(Result)
}

func newExtractConfig(opts []ExtractOption) *extractConfig {
	cfg := &extractConfig{createDirs: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *extractConfig) sinkOptions() []sink.FileSinkOption {
	return []sink.FileSinkOption{
		sink.WithOverwrite(c.overwrite),
		sink.WithAtomicWrites(c.atomic),
	}
}

// ExtractWithOverwrite allows replacing existing files.
// By default, existing files are skipped and reported as StatusSkipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithCreateDirs controls whether an entry's directory structure is
// recreated under the destination. When false, only the final path element
// is used and every entry lands directly in the destination.
// The default is true.
func ExtractWithCreateDirs(create bool) ExtractOption {
	return func(c *extractConfig) {
		c.createDirs = create
	}
}

// ExtractWithContinueOnError makes ExtractAll keep going after a failed
// entry. All failures are returned together, joined with errors.Join.
// By default, ExtractAll stops at the first error.
func ExtractWithContinueOnError(keepGoing bool) ExtractOption {
	return func(c *extractConfig) {
		c.continueOnError = keepGoing
	}
}

// ExtractWithAtomicWrites writes each file to a temporary name and renames it
// into place once complete. By default, files are written in place.
func ExtractWithAtomicWrites(atomic bool) ExtractOption {
	return func(c *extractConfig) {
		c.atomic = atomic
	}
}

// ExtractWithWorkers sets the number of parallel workers used by ExtractAll.
// Values <= 1 extract serially. Parallel extraction needs an archive from
// Open, since every worker opens its own handle on the archive path.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithProgress registers fn to be called after every written or
// skipped entry. Calls are serialized.
func ExtractWithProgress(fn func(Result)) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}
