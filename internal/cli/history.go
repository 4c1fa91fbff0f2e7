// history.go implements the "podium history" command listing past sessions.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past practice sessions",
	Long: `List recent practice sessions, newest first, with how many of their
questions were answered. Use the session id with "podium report".`,
	RunE: runHistory,
}

var limitFlag int

func init() {
	historyCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Number of sessions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	sessions, err := p.history.ListSessions(limitFlag)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Start one with: podium")
		return nil
	}

	fmt.Printf("  %-36s  %-10s  %-8s  %s\n", "SESSION", "STATUS", "ANSWERED", "UPDATED")
	for _, s := range sessions {
		fmt.Printf("  %-36s  %-10s  %3d/%-4d  %s\n",
			s.ID, s.Status, s.Answered, s.Questions, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
