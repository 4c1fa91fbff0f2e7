// Package testutil provides test helper utilities for podium tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfiguredProject returns file contents for a project whose endpoints
// point at baseURL.
func ConfiguredProject(baseURL string) map[string]string {
	return map[string]string{
		".podium/config.yaml": `version: 1
endpoints:
  transcribe: ` + baseURL + `/getlang
  score: ` + baseURL + `/qa
  synthesize: ` + baseURL + `/tts
  review: ` + baseURL + `/upload
http:
  timeout_seconds: 5
interview:
  question_count: 3
`,
	}
}

// EmptyProject returns an empty directory with no files.
func EmptyProject() map[string]string {
	return map[string]string{}
}
