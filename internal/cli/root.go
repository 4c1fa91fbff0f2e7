// Package cli defines Cobra command definitions for the podium CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/podium-dev/podium/internal/tui"
	"github.com/podium-dev/podium/internal/tui/app"
)

var (
	verbose bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "podium",
	Short: "Practice interview answers on camera and get scored feedback",
	Long: `Podium asks you a few interview questions, records your spoken answer
from the camera and microphone, and sends it to an analysis service that
transcribes and scores it. Feedback can be read back to you as speech.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !tui.IsTTY() {
			return cmd.Help()
		}

		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		preview := tui.NewPreview()
		orch, err := p.newOrchestrator(nil, preview)
		if err != nil {
			return err
		}

		runErr := tui.Run(app.New(orch, preview))
		return errors.Join(runErr, orch.Close())
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Verbose returns true if --verbose flag is set.
func Verbose() bool {
	return verbose
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Write debug entries to .podium/podium.log")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanCmd)
}
