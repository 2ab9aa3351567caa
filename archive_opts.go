package rgssad

import "log/slog"

// Option configures Open and New.
type Option func(*archiveConfig)

type archiveConfig struct {
	provider EntryProvider
	logger   *slog.Logger
}

// WithEntryProvider supplies the entry table decoder instead of selecting
// one from the header revision. The header is not probed when a provider is
// given, so containers without the RGSSAD signature can be read.
func WithEntryProvider(p EntryProvider) Option {
	return func(c *archiveConfig) {
		c.provider = p
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *archiveConfig) {
		c.logger = logger
	}
}
