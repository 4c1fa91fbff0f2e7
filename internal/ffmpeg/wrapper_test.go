package ffmpeg

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestCaptureArgsIncludesEachInput(t *testing.T) {
	args := CaptureArgs(
		Input{Format: "v4l2", Device: "/dev/video0"},
		Input{Format: "alsa", Device: "default"},
	)
	joined := strings.Join(args, " ")

	for _, want := range []string{"-f v4l2 -i /dev/video0", "-f alsa -i default", "-f webm pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("CaptureArgs = %q, want it to contain %q", joined, want)
		}
	}
}

func TestCaptureArgsSkipsEmptyDevice(t *testing.T) {
	args := CaptureArgs(
		Input{Format: "avfoundation", Device: "0:0"},
		Input{Format: "alsa", Device: ""},
	)
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "alsa") {
		t.Errorf("CaptureArgs = %q, should skip input without a device", joined)
	}
	if got := strings.Count(joined, "-i "); got != 1 {
		t.Errorf("input count = %d, want 1", got)
	}
}

func TestConvertMissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultConvertInput)
	err := Convert(context.Background(), missing, filepath.Join(t.TempDir(), DefaultConvertOutput))
	if err == nil {
		t.Fatal("Convert should fail for a missing input")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q should name the input file", err)
	}
}

func TestPreflightArgsDiscardsOutput(t *testing.T) {
	joined := strings.Join(PreflightArgs(Input{Format: "v4l2", Device: "/dev/video0"}), " ")

	if !strings.Contains(joined, "-f v4l2 -i /dev/video0") {
		t.Errorf("PreflightArgs = %q, want the video input", joined)
	}
	if !strings.HasSuffix(joined, "-t 0.1 -f null -") {
		t.Errorf("PreflightArgs = %q, want a short run to the null muxer", joined)
	}
	if strings.Contains(joined, "libvpx") {
		t.Errorf("PreflightArgs = %q, should not encode", joined)
	}
}
