package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeFFmpeg writes an executable shell script standing in for ffmpeg and
// returns its path. preflight runs for the device check (argument lists ending in
// "-f null -"); record runs for everything else. Skips on Windows.
func FakeFFmpeg(t *testing.T, preflight, record string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script ffmpeg needs a POSIX shell")
	}

	script := "#!/bin/sh\n" +
		"case \"$*\" in\n" +
		"*\"-f null -\")\n" + preflight + "\n;;\n" +
		"*)\n" + record + "\n;;\n" +
		"esac\n"

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake ffmpeg: %v", err)
	}
	return path
}
