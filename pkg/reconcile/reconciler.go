// Package reconcile implements the multi-location chat log reconciler.
// It discovers the union of logical files across a set of capability-tagged
// locations and, for each file, performs a single read-all, merge-once,
// write-all pass: every readable copy contributes to one canonical merge, and
// every writable location whose copy differs receives the result. No pairwise
// merging occurs; each location is visited exactly once per file per run.
package reconcile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/firekeep/chatmerge/pkg/chatlog"
	"github.com/firekeep/chatmerge/pkg/errors"
	"github.com/firekeep/chatmerge/pkg/logging"
)

// Reconciler reconciles chat logs across a fixed set of locations.
// Locations are revalidated on every run; there is no persisted state.
type Reconciler struct {
	fs        afero.Fs
	locations []Location
	reporter  Reporter
	logger    *zerolog.Logger
}

// New creates a Reconciler over the given filesystem and locations.
// The location list must be structurally valid: non-empty, every entry with a
// path and at least one capability. A nil fs means the host filesystem; a nil
// reporter discards events; a nil logger uses the package default.
func New(fs afero.Fs, locations []Location, reporter Reporter, logger *zerolog.Logger) (*Reconciler, error) {
	if err := ValidateLocations(locations); err != nil {
		return nil, err
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{
		fs:        fs,
		locations: locations,
		reporter:  reporter,
		logger:    logger,
	}, nil
}

// Locations returns the configured locations.
func (r *Reconciler) Locations() []Location {
	return r.locations
}

// Reconcile runs one reconciliation pass. Logical files are independent units
// of work and are processed by a bounded worker pool; per-file failures are
// recorded in the report and do not stop the run. The returned error is
// non-nil only for configuration problems, discovery failures, or context
// cancellation — inspect Report.Failed for per-file outcomes.
func (r *Reconciler) Reconcile(ctx context.Context, opts ...Option) (*Report, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	live := r.validLocations()
	if err := r.checkCapabilities(live); err != nil {
		return nil, err
	}

	files, err := discover(r.fs, live, o.Filters)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Int("files", len(files)).Int("locations", len(live)).Msg("Discovered chat logs")

	report := &Report{DryRun: o.DryRun}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			// A caller-level cancellation stops scheduling new files;
			// files already in flight run to completion.
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r.processFile(file, live, o, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	return report, nil
}

// validLocations drops configured locations that do not exist or lack the
// marker subdirectory. This is expected steady-state: a cloud-synced drive
// may be unmounted, a viewer not installed on this machine.
func (r *Reconciler) validLocations() []Location {
	live := make([]Location, 0, len(r.locations))
	for _, loc := range r.locations {
		if !loc.Valid(r.fs) {
			r.logger.Debug().Str("location", loc.Path).Msg("Location missing or lacks marker subdirectory, excluded")
			continue
		}
		live = append(live, loc)
	}
	return live
}

// checkCapabilities requires at least one readable and one writable live
// location; anything less and the run cannot do useful work.
func (r *Reconciler) checkCapabilities(live []Location) error {
	var canRead, canWrite bool
	for _, loc := range live {
		canRead = canRead || loc.Access.CanRead()
		canWrite = canWrite || loc.Access.CanWrite()
	}
	if !canRead {
		return errors.NewConfigError("locations", "no readable locations available", errors.ErrNoLocations)
	}
	if !canWrite {
		return errors.NewConfigError("locations", "no writable locations available", errors.ErrNoLocations)
	}
	return nil
}

// processFile runs the per-file state machine:
// Discovered -> (SizeSkip | Read) -> (MergeOK -> {NoOp, Add, Update} per
// writable location) | MergeFailed. Failures are terminal for the file only.
func (r *Reconciler) processFile(file string, locations []Location, o *Options, report *Report) {
	report.add(&report.Scanned)
	r.reporter.Report(Event{Kind: EventScanning, File: file})

	if !o.Force && r.sizesMatch(file, locations) {
		report.add(&report.SkippedSize)
		r.reporter.Report(Event{Kind: EventSkippedSize, File: file})
		return
	}

	// Read every readable copy in location configuration order. A failed
	// read excludes that location from this file's write fan-out so a
	// transiently unreadable copy is never overwritten with a merge it did
	// not contribute to.
	var bodies [][]byte
	failed := make(map[string]bool)
	for _, loc := range locations {
		if !loc.Access.CanRead() {
			continue
		}
		full := r.join(loc, file)
		data, err := afero.ReadFile(r.fs, full)
		if err != nil {
			if os.IsNotExist(err) {
				continue // absence is zero contribution, never an error
			}
			failed[loc.Path] = true
			report.add(&report.Errors)
			r.reporter.Report(Event{Kind: EventIOError, File: file, Location: loc.Path, Err: errors.WrapIO("read", full, err)})
			continue
		}
		bodies = append(bodies, data)
	}
	if len(bodies) == 0 {
		r.logger.Debug().Str("file", file).Msg("No readable copy, nothing to merge")
		return
	}

	merged, err := chatlog.Merge(file, bodies...)
	if err != nil {
		report.add(&report.Errors)
		r.reporter.Report(Event{Kind: EventMalformed, File: file, Err: err})
		return
	}

	for _, loc := range locations {
		if !loc.Access.CanWrite() || failed[loc.Path] {
			continue
		}
		r.writeLocation(file, loc, merged, o, report)
	}
}

// sizesMatch reports whether the file can be assumed synchronized: present at
// every location with identical byte sizes. A missing copy anywhere disables
// the shortcut so the write fan-out still happens.
func (r *Reconciler) sizesMatch(file string, locations []Location) bool {
	size := int64(-1)
	for _, loc := range locations {
		info, err := r.fs.Stat(r.join(loc, file))
		if err != nil {
			return false
		}
		if size >= 0 && info.Size() != size {
			return false
		}
		size = info.Size()
	}
	return size >= 0
}

// writeLocation applies the merge result to one writable location: add when
// the file is missing, update when its content differs, no-op otherwise.
// Dry-run performs the identical comparison work and reports the same
// decision without touching the filesystem.
func (r *Reconciler) writeLocation(file string, loc Location, merged []byte, o *Options, report *Report) {
	full := r.join(loc, file)

	existing, err := afero.ReadFile(r.fs, full)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		report.add(&report.Errors)
		r.reporter.Report(Event{Kind: EventIOError, File: file, Location: loc.Path, Err: errors.WrapIO("read", full, err)})
		return
	}

	if exists && bytes.Equal(existing, merged) {
		report.add(&report.Unchanged)
		r.reporter.Report(Event{Kind: EventUnchanged, File: file, Location: loc.Path})
		return
	}

	if o.DryRun {
		if exists {
			report.add(&report.Updated)
			r.reporter.Report(Event{Kind: EventWouldUpdate, File: file, Location: loc.Path})
		} else {
			report.add(&report.Added)
			r.reporter.Report(Event{Kind: EventWouldAdd, File: file, Location: loc.Path})
		}
		return
	}

	// MkdirAll is idempotent, which keeps concurrent workers race-safe when
	// two files share a parent directory.
	if err := r.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		report.add(&report.Errors)
		r.reporter.Report(Event{Kind: EventIOError, File: file, Location: loc.Path, Err: errors.WrapIO("create", filepath.Dir(full), err)})
		return
	}
	if err := afero.WriteFile(r.fs, full, merged, 0o644); err != nil {
		report.add(&report.Errors)
		r.reporter.Report(Event{Kind: EventIOError, File: file, Location: loc.Path, Err: errors.WrapIO("write", full, err)})
		return
	}

	if exists {
		report.add(&report.Updated)
		r.reporter.Report(Event{Kind: EventUpdated, File: file, Location: loc.Path})
	} else {
		report.add(&report.Added)
		r.reporter.Report(Event{Kind: EventAdded, File: file, Location: loc.Path})
	}
}

// join resolves a logical file's slash-normalized relative path against a
// location root using host separators.
func (r *Reconciler) join(loc Location, file string) string {
	return filepath.Join(loc.Path, filepath.FromSlash(file))
}
