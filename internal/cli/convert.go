// convert.go implements the "podium convert" command.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/podium-dev/podium/internal/ffmpeg"
	"github.com/podium-dev/podium/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert WebM recordings to MP4",
	Long: `Transcode recordings to H.264/AAC MP4 next to the originals.

With no arguments, converts input.webm to output.mp4 in the current
directory. Files are converted concurrently, up to --jobs at a time.`,
	RunE: runConvert,
}

var (
	jobsFlag   int
	outputFlag string
)

func init() {
	convertCmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 2, "Maximum concurrent conversions")
	convertCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (single input only)")
}

type conversion struct {
	in, out string
}

func runConvert(cmd *cobra.Command, args []string) error {
	jobs, err := planConversions(args, outputFlag)
	if err != nil {
		return err
	}
	if err := ffmpeg.CheckInstallation("ffmpeg"); err != nil {
		return err
	}

	progress := ui.NewProgress("Converting recordings")
	return convertAll(cmd.Context(), jobs, jobsFlag, ffmpeg.Convert, progress)
}

// planConversions pairs each input with its output path.
func planConversions(args []string, output string) ([]conversion, error) {
	if len(args) == 0 {
		out := ffmpeg.DefaultConvertOutput
		if output != "" {
			out = output
		}
		return []conversion{{in: ffmpeg.DefaultConvertInput, out: out}}, nil
	}
	if output != "" && len(args) > 1 {
		return nil, fmt.Errorf("--output needs exactly one input, got %d", len(args))
	}

	jobs := make([]conversion, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, in := range args {
		out := output
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + ".mp4"
		}
		if out == in {
			return nil, fmt.Errorf("%s is already an .mp4 file", in)
		}
		if seen[out] {
			return nil, fmt.Errorf("two inputs would both write %s", out)
		}
		seen[out] = true
		jobs = append(jobs, conversion{in: in, out: out})
	}
	return jobs, nil
}

// convertAll runs every conversion with at most limit in flight. A failed
// file does not stop the others; the returned error counts failures.
func convertAll(ctx context.Context, jobs []conversion, limit int, convert func(ctx context.Context, in, out string) error, progress *ui.Progress) error {
	for _, j := range jobs {
		progress.Add(j.in)
	}
	progress.Start()

	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, j := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				progress.Update(j.in, ui.StatusFailed, gctx.Err())
				return nil
			}
			progress.Update(j.in, ui.StatusRunning, nil)
			if err := convert(gctx, j.in, j.out); err != nil {
				progress.Update(j.in, ui.StatusFailed, err)
				return nil
			}
			progress.Update(j.in, ui.StatusDone, nil)
			return nil
		})
	}
	_ = g.Wait()

	if failed := progress.Finish(); failed > 0 {
		return fmt.Errorf("%d of %d conversion(s) failed", failed, len(jobs))
	}
	return ctx.Err()
}
