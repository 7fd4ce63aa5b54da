package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/firekeep/chatmerge/pkg/errors"
)

// MarkerDir is the subdirectory that must exist inside a location's root for
// the location to count as a genuine viewer installation. Its subtree is never
// scanned for chat logs.
const MarkerDir = "logs"

// Access is the closed capability set of a location.
type Access uint8

// Access capability flags.
const (
	// Readable locations contribute raw bodies to merges.
	Readable Access = 1 << iota
	// Writable locations receive merged output.
	Writable
)

// ReadWrite is the common case: a location that both contributes and receives.
const ReadWrite = Readable | Writable

// ParseAccess converts the configuration access strings "r", "w", and "rw"
// into capability flags.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r":
		return Readable, nil
	case "w":
		return Writable, nil
	case "rw", "wr":
		return ReadWrite, nil
	default:
		return 0, errors.NewValidationError("access", s, "must be 'r', 'w', or 'rw'")
	}
}

// CanRead reports whether the location may be read from.
func (a Access) CanRead() bool { return a&Readable != 0 }

// CanWrite reports whether the location may be written to.
func (a Access) CanWrite() bool { return a&Writable != 0 }

// String renders the access flags in configuration form.
func (a Access) String() string {
	switch {
	case a.CanRead() && a.CanWrite():
		return "rw"
	case a.CanRead():
		return "r"
	case a.CanWrite():
		return "w"
	default:
		return "none"
	}
}

// Location is a directory participating in reconciliation, tagged with the
// capabilities it was configured with.
type Location struct {
	Path   string
	Access Access
}

// ValidateLocations checks structural well-formedness of the configured
// location list before any filesystem I/O. Every entry must name a path and
// declare at least one capability.
func ValidateLocations(locations []Location) error {
	if len(locations) == 0 {
		return errors.NewConfigError("locations", "no locations configured", errors.ErrNoLocations)
	}
	for i, loc := range locations {
		if loc.Path == "" {
			return errors.NewConfigError("locations", fmt.Sprintf("entry %d has an empty path", i), nil)
		}
		if loc.Access == 0 {
			return errors.NewConfigError("locations", fmt.Sprintf("entry %d (%s) declares no capability", i, loc.Path), nil)
		}
	}
	return nil
}

// Valid reports whether the location exists on the given filesystem and
// contains the marker subdirectory. Locations failing this check are silently
// excluded from a run; an unmounted sync drive or an uninstalled viewer is
// expected steady-state, not an error.
func (l Location) Valid(fs afero.Fs) bool {
	if ok, err := afero.DirExists(fs, l.Path); err != nil || !ok {
		return false
	}
	ok, err := afero.DirExists(fs, filepath.Join(l.Path, MarkerDir))
	return err == nil && ok
}
