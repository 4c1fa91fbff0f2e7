// init.go implements the "podium init" command.
package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/podium-dev/podium/internal/config"
	"github.com/podium-dev/podium/internal/ffmpeg"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize podium in the current directory",
	Long: `Create the .podium/ directory with a default configuration, the
recordings folder and .gitignore entries for local session data.

Use --backend to point every endpoint at an analysis service other than
http://localhost:5000.`,
	RunE: runInit,
}

var backendFlag string

func init() {
	initCmd.Flags().StringVar(&backendFlag, "backend", "", "Base URL of the analysis service")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	podiumDir := filepath.Join(dir, config.Dir)
	if info, statErr := os.Stat(podiumDir); statErr == nil && info.IsDir() {
		fmt.Println("Warning: .podium/ directory already exists.")
		fmt.Print("Reinitialize? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if backendFlag != "" {
		if err := setBackend(cfg, backendFlag); err != nil {
			return err
		}
	}

	for _, sub := range []string{config.Dir, cfg.Storage.RecordingsDir, filepath.Join(config.Dir, "reports")} {
		if mkErr := os.MkdirAll(filepath.Join(dir, sub), 0755); mkErr != nil {
			return fmt.Errorf("creating directory %s: %w", sub, mkErr)
		}
	}

	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Println("Podium initialized")
	fmt.Printf("  Transcribe: %s\n", cfg.Endpoints.Transcribe)
	fmt.Printf("  Score:      %s\n", cfg.Endpoints.Score)
	fmt.Printf("  Speech:     %s\n", cfg.Endpoints.Synthesize)
	fmt.Printf("  Camera:     %s %s\n", cfg.Capture.VideoFormat, cfg.Capture.VideoDevice)
	if err := ffmpeg.CheckInstallation(cfg.Capture.FFmpeg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	fmt.Println()
	fmt.Println("Configuration written to .podium/config.yaml")
	fmt.Println("Endpoints can be overridden in .env (PODIUM_TRANSCRIBE_URL, ...)")
	fmt.Println("Ready to practice: podium")

	return nil
}

// setBackend points every endpoint at base, keeping the default paths.
func setBackend(cfg *config.Config, base string) error {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid --backend %q: want a URL like http://host:5000", base)
	}
	root := strings.TrimRight(base, "/")
	cfg.Endpoints.Transcribe = root + "/getlang"
	cfg.Endpoints.Score = root + "/qa"
	cfg.Endpoints.Synthesize = root + "/tts"
	cfg.Endpoints.Review = root + "/upload"
	return nil
}

// ensureGitignore creates or appends to .gitignore so local session data
// is never committed. Only missing entries are added.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	// config.yaml IS committed.
	requiredEntries := []string{
		".env",
		".DS_Store",
		".podium/log.jsonl",
		".podium/podium*.log",
		".podium/history.db",
		".podium/recordings/",
		".podium/reports/",
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by podium init\n")
	}
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
