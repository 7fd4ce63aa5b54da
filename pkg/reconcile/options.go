package reconcile

import (
	"runtime"

	"github.com/firekeep/chatmerge/pkg/errors"
)

// Options controls a single reconciliation run.
type Options struct {
	// DryRun performs all reads and comparisons but suppresses directory
	// creation and writes. Decisions are reported exactly as a live run
	// would make them.
	DryRun bool

	// Force bypasses the size short-circuit and merges every file.
	Force bool

	// Filters keeps only logical files whose relative path contains at
	// least one of these substrings, case-insensitively.
	Filters []string

	// Concurrency bounds the number of logical files processed in parallel.
	Concurrency int
}

// Defaults returns the default run options.
func Defaults() *Options {
	return &Options{
		Concurrency: runtime.NumCPU(),
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks that the run options are usable.
func (o *Options) Validate() error {
	if o.Concurrency < 1 {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   o.Concurrency,
			Message: "must be at least 1",
		}
	}
	return nil
}

// Option is a function that configures run Options.
type Option func(*Options)

// WithDryRun suppresses all filesystem mutations while reporting intents.
func WithDryRun() Option {
	return func(o *Options) { o.DryRun = true }
}

// WithForce disables the size short-circuit.
func WithForce() Option {
	return func(o *Options) { o.Force = true }
}

// WithFilters restricts the run to files matching at least one substring.
func WithFilters(filters ...string) Option {
	return func(o *Options) { o.Filters = filters }
}

// WithConcurrency bounds the worker pool.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}
