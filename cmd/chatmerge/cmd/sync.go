package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firekeep/chatmerge"
	"github.com/firekeep/chatmerge/internal/config"
	"github.com/firekeep/chatmerge/pkg/errors"
	"github.com/firekeep/chatmerge/pkg/logging"
	"github.com/firekeep/chatmerge/pkg/reconcile"
)

var (
	syncDryRun bool
	syncForce  bool
	syncJobs   int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [filters...]",
	Short: "Reconcile chat logs across all configured locations",
	Long: `Sync discovers every chat log found in any readable location, merges the
copies of each file into one sorted, deduplicated transcript, and writes the
result to every writable location whose copy differs.

Positional arguments are case-insensitive substring filters: when given, only
log files whose relative path contains at least one of them are processed.

A file containing a malformed timestamp is reported and skipped; it never
blocks the rest of the run and nothing is written for it.`,
	Example: `  chatmerge sync                  # reconcile everything
  chatmerge sync --dry-run        # preview what would change
  chatmerge sync --force          # merge even files with matching sizes
  chatmerge sync "Jane Doe"       # only Jane Doe's chat logs
  chatmerge sync -n "Group"       # preview changes to group chats`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "Show what would be done without making changes")
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Process all files, even those that appear identical by size")
	syncCmd.Flags().IntVar(&syncJobs, "jobs", 0, "Number of files to process in parallel (default: number of CPUs)")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncDryRun {
		fmt.Println("Dry run: no changes will be made")
	}

	locations, err := config.Locations()
	if err != nil {
		return err
	}

	cm, err := chatmerge.New(
		chatmerge.WithLocations(locations...),
		chatmerge.WithReporter(reconcile.NewLogReporter(logging.Default())),
	)
	if err != nil {
		return err
	}

	opts := []reconcile.Option{reconcile.WithFilters(args...)}
	if syncDryRun {
		opts = append(opts, reconcile.WithDryRun())
	}
	if syncForce {
		opts = append(opts, reconcile.WithForce())
	}
	if syncJobs > 0 {
		opts = append(opts, reconcile.WithConcurrency(syncJobs))
	}

	report, err := cm.Reconcile(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	if report.Failed() {
		return errors.New("some files could not be reconciled")
	}
	return nil
}
