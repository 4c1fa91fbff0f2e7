// Package config handles reading and writing .podium/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .podium/config.yaml.
type Config struct {
	Version   int             `yaml:"version"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	HTTP      HTTPConfig      `yaml:"http"`
	Interview InterviewConfig `yaml:"interview"`
	Capture   CaptureConfig   `yaml:"capture"`
	Storage   StorageConfig   `yaml:"storage"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
}

// EndpointsConfig holds the URLs of the remote analysis services.
type EndpointsConfig struct {
	Transcribe string `yaml:"transcribe"`
	Score      string `yaml:"score"`
	Synthesize string `yaml:"synthesize"`
	Review     string `yaml:"review"`
}

// HTTPConfig controls outbound requests.
type HTTPConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// InterviewConfig controls question sampling.
type InterviewConfig struct {
	QuestionCount int      `yaml:"question_count"`
	Questions     []string `yaml:"questions,omitempty"` // overrides the built-in bank when set
}

// CaptureConfig describes how ffmpeg reaches the camera and microphone.
type CaptureConfig struct {
	FFmpeg      string `yaml:"ffmpeg"`
	VideoFormat string `yaml:"video_format"` // "v4l2" | "avfoundation" | "dshow"
	VideoDevice string `yaml:"video_device"`
	AudioFormat string `yaml:"audio_format"` // "alsa" | "pulse" | "" when muxed with video
	AudioDevice string `yaml:"audio_device"`
	ChunkBytes  int    `yaml:"chunk_bytes"`
}

// StorageConfig holds on-disk locations relative to the project directory.
type StorageConfig struct {
	RecordingsDir string `yaml:"recordings_dir"`
	Database      string `yaml:"database"`
	KeepRecording bool   `yaml:"keep_recordings"`
}

// CleanupConfig controls pruning of saved recordings.
type CleanupConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

// Dir is the name of the per-project state directory.
const Dir = ".podium"

const configFile = "config.yaml"

// ReadConfig reads .podium/config.yaml from the given directory.
// dir is the project root (not .podium/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, Dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to .podium/config.yaml in the given directory.
// Creates the .podium/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, Dir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
// The endpoints point at the analysis backend on localhost:5000.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Endpoints: EndpointsConfig{
			Transcribe: "http://localhost:5000/getlang",
			Score:      "http://localhost:5000/qa",
			Synthesize: "http://localhost:5000/tts",
			Review:     "http://localhost:5000/upload",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 120,
		},
		Interview: InterviewConfig{
			QuestionCount: 3,
		},
		Capture: defaultCapture(),
		Storage: StorageConfig{
			RecordingsDir: filepath.Join(Dir, "recordings"),
			Database:      filepath.Join(Dir, "history.db"),
			KeepRecording: true,
		},
		Cleanup: CleanupConfig{
			MaxAgeDays: 30,
		},
	}
}

func defaultCapture() CaptureConfig {
	c := CaptureConfig{
		FFmpeg:     "ffmpeg",
		ChunkBytes: 32 * 1024,
	}
	switch runtime.GOOS {
	case "darwin":
		c.VideoFormat = "avfoundation"
		c.VideoDevice = "0:0"
	case "windows":
		c.VideoFormat = "dshow"
		c.VideoDevice = "video=Integrated Camera:audio=Microphone"
	default:
		c.VideoFormat = "v4l2"
		c.VideoDevice = "/dev/video0"
		c.AudioFormat = "alsa"
		c.AudioDevice = "default"
	}
	return c
}

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	var errs []error
	if c.Endpoints.Transcribe == "" {
		errs = append(errs, errors.New("endpoints.transcribe is required"))
	}
	if c.Endpoints.Score == "" {
		errs = append(errs, errors.New("endpoints.score is required"))
	}
	if c.Endpoints.Synthesize == "" {
		errs = append(errs, errors.New("endpoints.synthesize is required"))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("http.timeout_seconds must be positive"))
	}
	if c.Interview.QuestionCount <= 0 {
		errs = append(errs, errors.New("interview.question_count must be positive"))
	}
	if c.Capture.ChunkBytes <= 0 {
		errs = append(errs, errors.New("capture.chunk_bytes must be positive"))
	}
	return errors.Join(errs...)
}
