// report.go implements the "podium report" command for session summaries.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/podium-dev/podium/internal/config"
	podiumreport "github.com/podium-dev/podium/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Summarize a practice session",
	Long: `Print a summary of a practice session with the score and feedback for
each question, and save it to .podium/reports/<session>/report.md.

Without an id, the most recent session is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		latest, err := p.history.GetLatest()
		if err != nil {
			return fmt.Errorf("finding latest session: %w", err)
		}
		if latest == nil {
			return fmt.Errorf("no sessions found; start one with: podium")
		}
		id = latest.ID
	}

	r, err := podiumreport.GenerateReport(p.history, p.events, id)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	fmt.Print(podiumreport.FormatReport(r))

	path, err := podiumreport.WriteReport(filepath.Join(p.dir, config.Dir, "reports", id), r)
	if err != nil {
		return err
	}
	fmt.Printf("\nSaved to %s\n", path)
	return nil
}
