// Package ffmpeg wraps the ffmpeg, ffprobe and ffplay binaries.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Default input and output of the conversion utility.
const (
	DefaultConvertInput  = "input.webm"
	DefaultConvertOutput = "output.mp4"
)

// CheckInstallation verifies that bin is installed and accessible.
// An empty bin checks "ffmpeg".
func CheckInstallation(bin string) error {
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.Command(bin, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s is not installed or not in PATH: %w", bin, err)
	}
	return nil
}

// Convert transcodes in to out as H.264/AAC, overwriting out.
func Convert(ctx context.Context, in, out string) error {
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("convert %s: %w", in, err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-loglevel", "error",
		"-i", in,
		"-c:v", "libx264",
		"-c:a", "aac",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to convert %s: %w: %s", in, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Duration returns the container duration reported by ffprobe.
func Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get video info: %w", err)
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Play plays an audio file through ffplay and returns when playback ends
// or ctx is cancelled.
func Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to play %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Input names one ffmpeg input device.
type Input struct {
	Format string // -f value, e.g. "v4l2"
	Device string // -i value, e.g. "/dev/video0"
}

// CaptureArgs builds the argument list for recording the given inputs as
// WebM (VP8/Opus) to stdout. Inputs with an empty Device are skipped.
func CaptureArgs(inputs ...Input) []string {
	return append(inputArgs(inputs),
		"-c:v", "libvpx",
		"-deadline", "realtime",
		"-b:v", "1M",
		"-c:a", "libopus",
		"-f", "webm",
		"pipe:1",
	)
}

// PreflightArgs builds the argument list for opening the given inputs briefly
// and discarding the result, to find out whether the devices can be used.
func PreflightArgs(inputs ...Input) []string {
	return append(inputArgs(inputs), "-t", "0.1", "-f", "null", "-")
}

func inputArgs(inputs []Input) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostats"}
	for _, in := range inputs {
		if in.Device == "" {
			continue
		}
		if in.Format != "" {
			args = append(args, "-f", in.Format)
		}
		args = append(args, "-i", in.Device)
	}
	return args
}
