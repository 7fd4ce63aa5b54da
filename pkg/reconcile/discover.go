package reconcile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"

	"github.com/firekeep/chatmerge/pkg/errors"
)

// logExt is the extension of chat log files, matched case-insensitively.
const logExt = ".txt"

// conflictMarker appears in file names duplicated by sync services
// (e.g. "chat (conflicted copy 2024-01-01).txt"). Such files are for a human
// to resolve, never for the reconciler to touch.
const conflictMarker = "conflicted copy"

// excludedDirs are subtrees never scanned for chat logs: the marker
// subdirectory holds viewer diagnostics, user_settings holds preferences.
// Matched case-insensitively at the start of the relative path.
var excludedDirs = []string{
	MarkerDir + "/",
	"user_settings/",
}

// excludedFiles are viewer system files that share the log extension but hold
// no conversation content. Matched case-insensitively at the end of the path.
var excludedFiles = []string{
	"avatar_icons_cache.txt",
	"cef_log.txt",
	"plugin_cookies.txt",
	"render_mute_settings.txt",
	"search_history.txt",
	"teleport_history.txt",
	"typed_locations.txt",
}

// discover enumerates the union of logical files across all readable
// locations. Relative paths are slash-normalized; the result is sorted so a
// run processes files in a deterministic order. Filters, when non-empty, keep
// only paths containing at least one filter substring (case-insensitive).
func discover(fs afero.Fs, locations []Location, filters []string) ([]string, error) {
	// Casers are stateful and not safe for concurrent use, so each helper
	// builds its own.
	fold := cases.Fold()
	folded := make([]string, len(filters))
	for i, f := range filters {
		folded[i] = fold.String(f)
	}

	seen := make(map[string]struct{})
	for _, loc := range locations {
		if !loc.Access.CanRead() {
			continue
		}
		if err := walkLocation(fs, loc, folded, seen); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(seen))
	for rel := range seen {
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

// walkLocation adds the location's matching relative paths to seen.
func walkLocation(fs afero.Fs, loc Location, foldedFilters []string, seen map[string]struct{}) error {
	walk := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// A vanished or unreadable subtree should not abort discovery
			// in the remaining locations.
			return nil
		}

		rel, relErr := filepath.Rel(loc.Path, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if inExcludedDir(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(rel), logExt) {
			return nil
		}
		if Excluded(rel) {
			return nil
		}
		if !matchesFilters(rel, foldedFilters) {
			return nil
		}

		seen[rel] = struct{}{}
		return nil
	}

	if err := afero.Walk(fs, loc.Path, walk); err != nil {
		return errors.WrapIO("walk", loc.Path, err)
	}
	return nil
}

// Excluded reports whether a relative path is filtered out of reconciliation:
// inside an excluded subtree, carrying a sync-conflict marker, or matching a
// known viewer system file.
func Excluded(rel string) bool {
	lower := cases.Fold().String(rel)

	if inExcludedDir(lower) {
		return true
	}
	if strings.Contains(lower, conflictMarker) {
		return true
	}
	for _, name := range excludedFiles {
		if lower == name || strings.HasSuffix(lower, "/"+name) {
			return true
		}
	}
	return false
}

func inExcludedDir(rel string) bool {
	lower := cases.Fold().String(rel)
	for _, dir := range excludedDirs {
		if strings.HasPrefix(lower, dir) {
			return true
		}
	}
	return false
}

// matchesFilters applies the user's positional filters with OR semantics.
// An empty filter set matches everything.
func matchesFilters(rel string, foldedFilters []string) bool {
	if len(foldedFilters) == 0 {
		return true
	}
	lower := cases.Fold().String(rel)
	for _, f := range foldedFilters {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
