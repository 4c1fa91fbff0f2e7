package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/podium-dev/podium/internal/cleanup"
)

// MediaType of every artifact.
const MediaType = "video/webm"

// Artifact is one finished, immutable recording.
type Artifact struct {
	Name       string
	MediaType  string
	Data       []byte
	CapturedAt time.Time
}

// NewArtifact names data after the capture time.
func NewArtifact(data []byte, capturedAt time.Time) *Artifact {
	return &Artifact{
		Name:       fmt.Sprintf("interview-recording-%d.webm", capturedAt.UnixMilli()),
		MediaType:  MediaType,
		Data:       data,
		CapturedAt: capturedAt,
	}
}

// Load reads a recording from disk. The capture time is the file's
// modification time.
func Load(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat recording: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return &Artifact{
		Name:       filepath.Base(path),
		MediaType:  MediaType,
		Data:       data,
		CapturedAt: info.ModTime(),
	}, nil
}

// Size is the artifact length in bytes.
func (a *Artifact) Size() int { return len(a.Data) }

// Save writes the artifact to dir/<timestamp>/<name> and returns the path.
func (a *Artifact) Save(dir string) (string, error) {
	sub := filepath.Join(dir, a.CapturedAt.Format(cleanup.TimestampLayout))
	if err := os.MkdirAll(sub, 0755); err != nil {
		return "", fmt.Errorf("creating recording directory: %w", err)
	}

	path := filepath.Join(sub, a.Name)
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("writing recording: %w", err)
	}
	return path, nil
}
