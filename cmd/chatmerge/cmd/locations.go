package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/firekeep/chatmerge/internal/config"
)

// locationsCmd represents the locations command.
var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Show configured locations and their status",
	Long: `Locations lists every configured directory with its access mode and
whether it currently qualifies for reconciliation. A location qualifies when
it exists and contains the marker subdirectory proving it is a genuine viewer
installation root. Locations that do not qualify are silently skipped by sync;
this command exists to make that visible.`,
	RunE: runLocations,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}

func runLocations(_ *cobra.Command, _ []string) error {
	locations, err := config.Locations()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	for _, loc := range locations {
		status := "ok"
		if !loc.Valid(fs) {
			status = "missing or not an installation root"
		}
		fmt.Printf("%-4s %-60s %s\n", loc.Access, loc.Path, status)
	}
	return nil
}
