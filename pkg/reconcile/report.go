package reconcile

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// EventKind identifies a reconciliation event sent to a Reporter.
type EventKind string

// Reconciliation event kinds.
const (
	EventScanning    EventKind = "scanning"
	EventSkippedSize EventKind = "skipped-size"
	EventWouldAdd    EventKind = "would-add"
	EventAdded       EventKind = "added"
	EventWouldUpdate EventKind = "would-update"
	EventUpdated     EventKind = "updated"
	EventUnchanged   EventKind = "unchanged"
	EventMalformed   EventKind = "malformed-timestamp"
	EventIOError     EventKind = "io-error"
)

// Event is one structured reconciliation occurrence. Formatting and verbosity
// decisions belong to the Reporter receiving it.
type Event struct {
	Kind     EventKind
	File     string // logical file relative path
	Location string // location root, when the event is location-scoped
	Err      error  // set for malformed-timestamp and io-error events
}

// Reporter is a sink for reconciliation events.
type Reporter interface {
	Report(Event)
}

// NopReporter discards all events.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Event) {}

// LogReporter forwards events to a zerolog logger. Routine progress events go
// to debug level, mutations to info, failures to error.
type LogReporter struct {
	logger *zerolog.Logger
}

// NewLogReporter creates a Reporter backed by the given logger.
func NewLogReporter(logger *zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(e Event) {
	var evt *zerolog.Event
	switch e.Kind {
	case EventMalformed, EventIOError:
		evt = r.logger.Error()
	case EventAdded, EventUpdated, EventWouldAdd, EventWouldUpdate:
		evt = r.logger.Info()
	default:
		evt = r.logger.Debug()
	}

	evt = evt.Str("event", string(e.Kind)).Str("file", e.File)
	if e.Location != "" {
		evt = evt.Str("location", e.Location)
	}
	if e.Err != nil {
		evt = evt.Err(e.Err)
	}
	evt.Msg(eventMessage(e.Kind))
}

func eventMessage(k EventKind) string {
	switch k {
	case EventScanning:
		return "Scanning"
	case EventSkippedSize:
		return "Skipped, identical sizes everywhere"
	case EventWouldAdd:
		return "Would add"
	case EventAdded:
		return "Added"
	case EventWouldUpdate:
		return "Would update"
	case EventUpdated:
		return "Updated"
	case EventUnchanged:
		return "Unchanged"
	case EventMalformed:
		return "Malformed timestamp, file skipped"
	case EventIOError:
		return "Filesystem error"
	default:
		return string(k)
	}
}

// Report accumulates the outcome of one reconciliation run. Workers update it
// concurrently; read the counters only after Reconcile returns.
type Report struct {
	mu sync.Mutex

	// Scanned counts every logical file that entered the per-file pipeline.
	Scanned int
	// SkippedSize counts files short-circuited by the size check.
	SkippedSize int
	// Added counts file additions per writable location (intents under dry-run).
	Added int
	// Updated counts file overwrites per writable location (intents under dry-run).
	Updated int
	// Unchanged counts writable copies already holding the merged content.
	Unchanged int
	// Errors counts failed merges and location-scoped I/O failures.
	Errors int

	// DryRun records whether the run suppressed writes.
	DryRun bool
}

func (r *Report) add(field *int) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// HasChanges reports whether the run added or updated anything (or would
// have, under dry-run).
func (r *Report) HasChanges() bool {
	return r.Added > 0 || r.Updated > 0
}

// Failed reports whether any logical file ended in a merge or filesystem
// failure. A failed run still produces a full summary; the exit status is the
// caller's concern.
func (r *Report) Failed() bool {
	return r.Errors > 0
}

// Summary returns a single-line human-readable account of the run.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d files scanned: %d added, %d updated, %d unchanged, %d skipped by size, %d errors",
		r.Scanned, r.Added, r.Updated, r.Unchanged, r.SkippedSize, r.Errors)
	if r.DryRun {
		s += " (dry run)"
	}
	return s
}
