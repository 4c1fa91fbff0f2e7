package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Interview.QuestionCount = 5
	cfg.Endpoints.Score = "http://scoring.internal/qa"

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Interview.QuestionCount != 5 {
		t.Errorf("QuestionCount: got %d, want 5", loaded.Interview.QuestionCount)
	}
	if loaded.Endpoints.Score != "http://scoring.internal/qa" {
		t.Errorf("Endpoints.Score: got %q, want %q", loaded.Endpoints.Score, "http://scoring.internal/qa")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestDefaultConfigSamplesThreeQuestions(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Interview.QuestionCount != 3 {
		t.Errorf("default QuestionCount: got %d, want 3", cfg.Interview.QuestionCount)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoints.Transcribe = ""
	cfg.HTTP.TimeoutSeconds = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "endpoints.transcribe") {
		t.Errorf("error %q should mention endpoints.transcribe", msg)
	}
	if !strings.Contains(msg, "http.timeout_seconds") {
		t.Errorf("error %q should mention http.timeout_seconds", msg)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := `version: 1
endpoints:
  score: http://example.test/qa
`
	configPath := filepath.Join(tmpDir, Dir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configPath, "config.yaml"), []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed on partial config: %v", err)
	}
	if cfg.Endpoints.Score != "http://example.test/qa" {
		t.Errorf("Endpoints.Score: got %q", cfg.Endpoints.Score)
	}
	if cfg.Endpoints.Transcribe != DefaultConfig().Endpoints.Transcribe {
		t.Errorf("Endpoints.Transcribe should keep default, got %q", cfg.Endpoints.Transcribe)
	}
	if cfg.Interview.QuestionCount != 3 {
		t.Errorf("QuestionCount should keep default, got %d", cfg.Interview.QuestionCount)
	}
}

func TestLoadAppliesDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	env := "PODIUM_SCORE_URL=http://dotenv.test/qa\nPODIUM_HTTP_TIMEOUT=7\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(env), 0644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Setenv(EnvScoreURL, "")
	t.Setenv(EnvHTTPTimeout, "")
	os.Unsetenv(EnvScoreURL)
	os.Unsetenv(EnvHTTPTimeout)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Endpoints.Score != "http://dotenv.test/qa" {
		t.Errorf("Endpoints.Score: got %q, want value from .env", cfg.Endpoints.Score)
	}
	if cfg.HTTP.TimeoutSeconds != 7 {
		t.Errorf("TimeoutSeconds: got %d, want 7", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadWithoutConfigOrEnv(t *testing.T) {
	t.Setenv(EnvTranscribeURL, "http://env.test/getlang")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Endpoints.Transcribe != "http://env.test/getlang" {
		t.Errorf("Endpoints.Transcribe: got %q", cfg.Endpoints.Transcribe)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	for _, v := range []string{"soon", "0", "-3"} {
		t.Setenv(EnvHTTPTimeout, v)

		_, err := Load(t.TempDir())
		if err == nil {
			t.Errorf("%s=%q: Load should fail", EnvHTTPTimeout, v)
			continue
		}
		if !strings.Contains(err.Error(), EnvHTTPTimeout) {
			t.Errorf("error %q should name %s", err, EnvHTTPTimeout)
		}
	}
}
