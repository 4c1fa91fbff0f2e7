// review.go implements the "podium review" command for whole-recording
// assessments.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/ffmpeg"
	"github.com/podium-dev/podium/internal/recording"
	"github.com/podium-dev/podium/internal/speech"
)

var reviewCmd = &cobra.Command{
	Use:   "review <video>",
	Short: "Review a complete interview recording",
	Long: `Upload a recording of a whole mock interview to the review endpoint
and print its summary, strengths, weaknesses and conclusion.

Use --speak to have the review read aloud (requires ffplay).`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

var speakFlag bool

func init() {
	reviewCmd.Flags().BoolVar(&speakFlag, "speak", false, "Read the review aloud")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	a, err := recording.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Uploading %s (%s", a.Name, byteCount(a.Size()))
	if d, durErr := ffmpeg.Duration(ctx, args[0]); durErr == nil {
		fmt.Printf(", %s", d.Round(time.Second))
	} else {
		p.logger.Debug("ffprobe failed", zap.Error(durErr))
	}
	fmt.Println(")...")

	r, err := p.analysisClient().Review(ctx, a)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(formatReview(r))

	if !speakFlag {
		return nil
	}

	h, err := p.synthesizer().Synthesize(ctx, speech.ReviewReport(*r))
	if err != nil {
		return err
	}
	defer func() {
		if relErr := h.Release(); relErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", relErr)
		}
	}()
	return ffmpeg.Play(ctx, h.Path())
}

func formatReview(r *analysis.Review) string {
	var b strings.Builder
	section := func(title, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "%s\n  %s\n\n", title, strings.ReplaceAll(body, "\n", "\n  "))
	}

	section("Summary", r.Summary)
	section("Strengths", r.Strengths)
	if len(r.Weaknesses) > 0 {
		b.WriteString("Weaknesses\n")
		for _, w := range r.Weaknesses {
			fmt.Fprintf(&b, "  - %s\n", w.Weakness)
			if w.HowToImprove != "" {
				fmt.Fprintf(&b, "    How to improve: %s\n", w.HowToImprove)
			}
		}
		b.WriteString("\n")
	}
	section("Conclusion", r.Conclusion)
	return b.String()
}

func byteCount(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
