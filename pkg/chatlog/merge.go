// Package chatlog normalizes, sorts, and deduplicates chat log bodies.
// It is the pure core of the reconciler: given the raw content of the same
// logical file as found in any number of locations, it produces one canonical
// byte sequence that is independent of how the inputs were ordered.
package chatlog

import (
	"sort"
	"strings"

	"github.com/firekeep/chatmerge/pkg/errors"
)

// sortKeyLen is the width of the comparison window: the canonical
// [YYYY/MM/DD HH:MM:SS] bracket plus one separator byte for the shorter
// bracket forms. Entries are compared byte-wise over this prefix only, and
// the sort is stable, so distinct entries sharing a minute-resolution
// timestamp keep their input order.
const sortKeyLen = 21

// Merge concatenates the given bodies, reassembles multi-line entries,
// canonicalizes every timestamp, sorts, and removes adjacent duplicates.
// The name identifies the logical file in diagnostics.
//
// The result is deterministic for a fixed multiset of entries regardless of
// body order, ends in exactly one newline, and is idempotent: merging a
// merged body changes nothing. A timestamp bracket that does not match any
// accepted shape aborts the whole merge with a MalformedTimestampError and
// no output.
func Merge(name string, bodies ...[]byte) ([]byte, error) {
	var sb strings.Builder
	for _, b := range bodies {
		sb.Write(b)
	}

	content := normalizeNewlines(sb.String())
	if content == "" {
		return []byte("\n"), nil
	}

	entries := splitEntries(content)
	if err := canonicalize(name, entries); err != nil {
		return nil, err
	}

	sortEntries(entries)
	entries = dedupeAdjacent(entries)

	return []byte(strings.Join(entries, "\n") + "\n"), nil
}

// normalizeNewlines rewrites CRLF and bare CR line endings to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitEntries reassembles physical lines into logical entries. A line opening
// with a bracketed date starts a new entry; any other non-empty line is joined
// to the entry before it with an embedded newline. Lines before the first
// timestamp form a headless entry preserved verbatim. Blank lines are dropped.
func splitEntries(content string) []string {
	lines := strings.Split(content, "\n")

	var entries []string
	var current []string
	for _, line := range lines {
		switch {
		case entryOpen.MatchString(line):
			if len(current) > 0 {
				entries = append(entries, strings.Join(current, "\n"))
			}
			current = []string{line}
		case line != "":
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}

	return entries
}

// canonicalize rewrites each entry's timestamp bracket in place: hours and
// minutes zero-padded, 12-hour brackets converted to 24-hour. Everything after
// the bracket, including continuation lines, is preserved byte-for-byte.
// Headless entries that do not begin with a bracket pass through untouched.
func canonicalize(name string, entries []string) error {
	for i, entry := range entries {
		if !strings.HasPrefix(entry, "[") {
			continue
		}

		first := entry
		rest := ""
		if idx := strings.IndexByte(entry, '\n'); idx >= 0 {
			first = entry[:idx]
			rest = entry[idx:]
		}

		ts, remainder, ok := ParseTimestamp(first)
		if !ok {
			return errors.NewMalformedTimestampError(name, first)
		}

		entries[i] = ts.Canonical() + remainder + rest
	}
	return nil
}

// sortEntries stably sorts entries by the first sortKeyLen bytes of their
// rendered text. Shorter entries compare by the natural prefix rule.
func sortEntries(entries []string) {
	sort.SliceStable(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})
}

func sortKey(entry string) string {
	if len(entry) > sortKeyLen {
		return entry[:sortKeyLen]
	}
	return entry
}

// dedupeAdjacent drops entries whose full rendered text is byte-identical to
// the entry immediately before them in sorted order. Non-adjacent repeats are
// kept.
func dedupeAdjacent(entries []string) []string {
	if len(entries) == 0 {
		return entries
	}

	out := entries[:1]
	for _, entry := range entries[1:] {
		if entry != out[len(out)-1] {
			out = append(out, entry)
		}
	}
	return out
}
