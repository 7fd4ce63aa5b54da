package reconcile

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firekeep/chatmerge/pkg/errors"
)

func newTestReconciler(t *testing.T, fs afero.Fs, locations []Location) *Reconciler {
	t.Helper()
	r, err := New(fs, locations, nil, nil)
	require.NoError(t, err)
	return r
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := New(fs, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	_, err = New(fs, []Location{{Path: "/a"}}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestReconcileFanInFanOut(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedLocation(t, fs, "/c")
	seedFile(t, fs, "/a/Alice/chat.txt", "[2024/01/01 10:00] hi\n")
	seedFile(t, fs, "/b/Alice/chat.txt", "[2024/01/01 09:00] yo\n[2024/01/01 10:00] hi\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
		{Path: "/c", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	want := "[2024/01/01 09:00] yo\n[2024/01/01 10:00] hi\n"
	assert.Equal(t, want, readFile(t, fs, "/a/Alice/chat.txt"))
	assert.Equal(t, want, readFile(t, fs, "/b/Alice/chat.txt"))
	assert.Equal(t, want, readFile(t, fs, "/c/Alice/chat.txt"))

	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Added, "location c gains the file")
	assert.Equal(t, 1, report.Updated, "location a had a subset")
	assert.Equal(t, 1, report.Unchanged, "location b already had the merge")
	assert.Equal(t, 0, report.Errors)
	assert.True(t, report.HasChanges())
	assert.False(t, report.Failed())
}

func TestReconcileIdempotentSecondRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	// Different sizes so the first run cannot short-circuit on size.
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hello\n")
	seedFile(t, fs, "/b/chat.txt", "[2024/01/01 09:00] yo\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	first, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, first.HasChanges())

	second, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.False(t, second.HasChanges())
	// Identical merged copies everywhere now short-circuit on size.
	assert.Equal(t, 1, second.SkippedSize)
}

func TestReconcileReadOnlyLocationNeverWritten(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/ro")
	seedLocation(t, fs, "/rw")
	seedFile(t, fs, "/ro/chat.txt", "[2024/01/01 10:00] from ro\n")

	locs := []Location{
		{Path: "/ro", Access: Readable},
		{Path: "/rw", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	// The read-only location still has only its own copy; the read-write
	// location gained the merge.
	assert.Equal(t, "[2024/01/01 10:00] from ro\n", readFile(t, fs, "/ro/chat.txt"))
	assert.Equal(t, "[2024/01/01 10:00] from ro\n", readFile(t, fs, "/rw/chat.txt"))
}

func TestReconcileWriteOnlyLocationReceivesButNeverContributes(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/wo")
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hi\n")
	// Content in the write-only location must not leak into the merge.
	seedFile(t, fs, "/wo/chat.txt", "[2024/01/01 11:00] never read\n")

	locs := []Location{
		{Path: "/a", Access: Readable},
		{Path: "/wo", Access: Writable},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, "[2024/01/01 10:00] hi\n", readFile(t, fs, "/wo/chat.txt"))
}

func TestReconcileSizeShortCircuit(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	// Same size, different content: the shortcut deliberately trusts size.
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] aa\n")
	seedFile(t, fs, "/b/chat.txt", "[2024/01/01 10:00] bb\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedSize)
	assert.Equal(t, "[2024/01/01 10:00] aa\n", readFile(t, fs, "/a/chat.txt"))

	// Force bypasses the shortcut and actually merges.
	report, err = r.Reconcile(context.Background(), WithForce())
	require.NoError(t, err)
	assert.Equal(t, 0, report.SkippedSize)
	want := "[2024/01/01 10:00] aa\n[2024/01/01 10:00] bb\n"
	assert.Equal(t, want, readFile(t, fs, "/a/chat.txt"))
	assert.Equal(t, want, readFile(t, fs, "/b/chat.txt"))
}

func TestReconcileSizeShortCircuitRequiresPresenceEverywhere(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedLocation(t, fs, "/c")
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hi\n")
	seedFile(t, fs, "/b/chat.txt", "[2024/01/01 10:00] hi\n")
	// /c lacks the file: identical sizes in a and b must not skip the write.

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
		{Path: "/c", Access: Writable},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.SkippedSize)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, "[2024/01/01 10:00] hi\n", readFile(t, fs, "/c/chat.txt"))
}

func TestReconcileDryRun(t *testing.T) {
	build := func() (afero.Fs, []Location) {
		fs := afero.NewMemMapFs()
		seedLocation(t, fs, "/a")
		seedLocation(t, fs, "/b")
		seedLocation(t, fs, "/c")
		seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hi\n")
		seedFile(t, fs, "/b/chat.txt", "[2024/01/01 09:00] yo\n[2024/01/01 10:00] hi\n")
		return fs, []Location{
			{Path: "/a", Access: ReadWrite},
			{Path: "/b", Access: ReadWrite},
			{Path: "/c", Access: ReadWrite},
		}
	}

	dryFs, locs := build()
	dry, err := newTestReconciler(t, dryFs, locs).Reconcile(context.Background(), WithDryRun())
	require.NoError(t, err)

	// Nothing was mutated.
	assert.Equal(t, "[2024/01/01 10:00] hi\n", readFile(t, dryFs, "/a/chat.txt"))
	exists, err := afero.Exists(dryFs, "/c/chat.txt")
	require.NoError(t, err)
	assert.False(t, exists, "dry run must not create files")

	// Identical decisions to a live run on identical starting state.
	liveFs, locs := build()
	live, err := newTestReconciler(t, liveFs, locs).Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, live.Added, dry.Added)
	assert.Equal(t, live.Updated, dry.Updated)
	assert.Equal(t, live.Unchanged, dry.Unchanged)
	assert.Equal(t, live.Scanned, dry.Scanned)
	assert.True(t, dry.DryRun)
	assert.False(t, live.DryRun)
}

func TestReconcileMalformedFileIsIsolated(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedFile(t, fs, "/a/bad.txt", "[2024/13/40 99:99] z\n")
	seedFile(t, fs, "/a/good.txt", "[2024/01/01 10:00] hi\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err, "a malformed file fails that file, not the run")

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Errors)
	assert.True(t, report.Failed())

	// The malformed file was not propagated; the good file was.
	exists, err := afero.Exists(fs, "/b/bad.txt")
	require.NoError(t, err)
	assert.False(t, exists, "no write for a file whose merge failed")
	assert.Equal(t, "[2024/01/01 10:00] hi\n", readFile(t, fs, "/b/good.txt"))

	// The source copy is untouched.
	assert.Equal(t, "[2024/13/40 99:99] z\n", readFile(t, fs, "/a/bad.txt"))
}

func TestReconcileDropsInvalidLocations(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	// /gone does not exist; /nomarker exists without the marker subdirectory.
	require.NoError(t, fs.MkdirAll("/nomarker", 0o755))
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hi\n")

	locs := []Location{
		{Path: "/gone", Access: ReadWrite},
		{Path: "/nomarker", Access: ReadWrite},
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	// Nothing was created under the invalid roots.
	exists, err := afero.Exists(fs, "/gone/chat.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcileNoWritableLocations(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")

	r := newTestReconciler(t, fs, []Location{{Path: "/a", Access: Readable}})

	_, err := r.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestReconcileOptionsValidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	r := newTestReconciler(t, fs, []Location{{Path: "/a", Access: ReadWrite}})

	_, err := r.Reconcile(context.Background(), WithConcurrency(0))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestReconcileCanceledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedFile(t, fs, "/a/chat.txt", "[2024/01/01 10:00] hi\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reconcile(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconcileFiltersRestrictRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedLocation(t, fs, "/a")
	seedLocation(t, fs, "/b")
	seedFile(t, fs, "/a/Alice/chat.txt", "[2024/01/01 10:00] hi\n")
	seedFile(t, fs, "/a/Bob/chat.txt", "[2024/01/01 10:00] hi\n")

	locs := []Location{
		{Path: "/a", Access: ReadWrite},
		{Path: "/b", Access: ReadWrite},
	}
	r := newTestReconciler(t, fs, locs)

	report, err := r.Reconcile(context.Background(), WithFilters("alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)

	exists, err := afero.Exists(fs, "/b/Bob/chat.txt")
	require.NoError(t, err)
	assert.False(t, exists, "filtered-out files are untouched")
}

func TestReportSummary(t *testing.T) {
	r := &Report{Scanned: 5, Added: 1, Updated: 2, Unchanged: 3, SkippedSize: 4, Errors: 0}
	assert.Equal(t, "5 files scanned: 1 added, 2 updated, 3 unchanged, 4 skipped by size, 0 errors", r.Summary())

	r.DryRun = true
	assert.Contains(t, r.Summary(), "(dry run)")
}
