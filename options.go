package chatmerge

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/firekeep/chatmerge/pkg/reconcile"
)

// config holds the construction-time configuration for a Chatmerge instance.
type config struct {
	fs        afero.Fs
	locations []reconcile.Location
	reporter  reconcile.Reporter
	logger    *zerolog.Logger
}

// defaultConfig returns the default configuration: host filesystem, no
// locations, silent reporter, package-default logger.
func defaultConfig() *config {
	return &config{
		fs: afero.NewOsFs(),
	}
}

// Option is a function that configures a Chatmerge instance.
type Option func(*config) error

// WithLocations configures the locations to reconcile across.
func WithLocations(locations ...reconcile.Location) Option {
	return func(c *config) error {
		c.locations = locations
		return nil
	}
}

// WithFs configures the filesystem the reconciler operates on. Useful for
// testing with an in-memory filesystem.
func WithFs(fs afero.Fs) Option {
	return func(c *config) error {
		c.fs = fs
		return nil
	}
}

// WithReporter configures the sink for reconciliation events.
func WithReporter(reporter reconcile.Reporter) Option {
	return func(c *config) error {
		c.reporter = reporter
		return nil
	}
}

// WithLogger configures the logger used by the reconciler.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
