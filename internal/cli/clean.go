// clean.go implements the "podium clean" command for saved recording cleanup.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podium-dev/podium/internal/cleanup"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old saved recordings",
	Long: `Remove old takes from the recordings directory (.podium/recordings/).

By default, removes takes older than the configured max_age_days (default 30).
Use --keep to keep only the N most recent takes instead.
Use --dry-run to preview what would be removed.`,
	RunE: runClean,
}

var (
	keepFlag   int
	dryRunFlag bool
)

func init() {
	cleanCmd.Flags().IntVar(&keepFlag, "keep", 0, "Keep only the last N takes (0 = use age-based cleanup)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	dir := p.path(p.cfg.Storage.RecordingsDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("No recordings to clean up.")
		return nil
	}

	var pruned []string
	if keepFlag > 0 {
		pruned, err = cleanup.PruneKeepRecent(dir, keepFlag, dryRunFlag)
	} else {
		maxAge := p.cfg.Cleanup.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		pruned, err = cleanup.PruneByAge(dir, maxAge, dryRunFlag)
	}
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if len(pruned) == 0 {
		fmt.Println("No recordings to clean up.")
		return nil
	}

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	for _, name := range pruned {
		fmt.Printf("  %s %s\n", verb, name)
	}
	fmt.Printf("%s %d take(s).\n", verb, len(pruned))

	return nil
}
