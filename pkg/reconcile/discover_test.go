package reconcile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLocation(t *testing.T, fs afero.Fs, root string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(root+"/"+MarkerDir, 0o755))
}

func seedFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestDiscoverUnionAcrossReadableLocations(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedFile(t, fs, "/a/Alice Resident/chat.txt", "")
	seedFile(t, fs, "/b/Bob Resident/chat.txt", "")
	seedFile(t, fs, "/b/Alice Resident/chat.txt", "")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	files, err := discover(fs, locs, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Resident/chat.txt", "Bob Resident/chat.txt"}, files)
}

func TestDiscoverSkipsWriteOnlyLocations(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/w")
	seedFile(t, fs, "/a/chat.txt", "")
	seedFile(t, fs, "/w/only-here.txt", "")

	locs := []Location{
		{Path: "/a", Access: Readable},
		{Path: "/w", Access: Writable},
	}
	files, err := discover(fs, locs, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat.txt"}, files)
}

func TestDiscoverExclusions(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedFile(t, fs, "/a/Alice/chat.txt", "")
	seedFile(t, fs, "/a/logs/viewer.txt", "")                               // marker subtree
	seedFile(t, fs, "/a/user_settings/prefs.txt", "")                       // settings subtree
	seedFile(t, fs, "/a/Alice/chat (Conflicted Copy 2024-01-01).txt", "")   // sync conflict
	seedFile(t, fs, "/a/teleport_history.txt", "")                          // system file at root
	seedFile(t, fs, "/a/Alice/Teleport_History.txt", "")                    // system file nested, odd case
	seedFile(t, fs, "/a/Alice/notes.md", "")                                // wrong extension
	seedFile(t, fs, "/a/Alice/GROUP.TXT", "")                               // extension case-insensitive

	files, err := discover(fs, []Location{{Path: "/a", Access: ReadWrite}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice/GROUP.TXT", "Alice/chat.txt"}, files)
}

func TestDiscoverFilters(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedFile(t, fs, "/a/Alice Resident/chat.txt", "")
	seedFile(t, fs, "/a/Bob Resident/chat.txt", "")
	seedFile(t, fs, "/a/Group Chat/weekly.txt", "")

	locs := []Location{{Path: "/a", Access: ReadWrite}}

	files, err := discover(fs, locs, []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Resident/chat.txt"}, files)

	// OR semantics across several filters.
	files, err = discover(fs, locs, []string{"ALICE", "group"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Resident/chat.txt", "Group Chat/weekly.txt"}, files)

	files, err = discover(fs, locs, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"Alice/chat.txt", false},
		{"logs/viewer.txt", true},
		{"Logs/viewer.txt", true},
		{"user_settings/prefs.txt", true},
		{"Alice/chat (conflicted copy).txt", true},
		{"cef_log.txt", true},
		{"Alice/search_history.txt", true},
		{"Alice/my_search_history_notes.txt", false}, // end-of-path match only
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Excluded(tt.rel), "Excluded(%q)", tt.rel)
	}
}
