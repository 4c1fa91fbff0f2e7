// Package log provides structured event logging.
// This file appends JSON events to log.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventRecordingStarted = "recording_started"
	EventRecordingStopped = "recording_stopped"
	EventAnalysisStarted  = "analysis_started"
	EventAnalysisFailed   = "analysis_failed"
	EventFeedbackReceived = "feedback_received"
	EventQuestionAdvanced = "question_advanced"
	EventSessionComplete  = "session_complete"
	EventSessionRestarted = "session_restarted"
	EventSynthesisFailed  = "synthesis_failed"
	EventResultSuperseded = "result_superseded"
	EventDeviceFailed     = "device_failed"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time       time.Time              `json:"time"`
	Event      string                 `json:"event"`
	SessionID  string                 `json:"session,omitempty"`
	Question   string                 `json:"question,omitempty"`
	Index      int                    `json:"index,omitempty"`
	Total      int                    `json:"total,omitempty"`
	Generation uint64                 `json:"generation,omitempty"`
	Artifact   string                 `json:"artifact,omitempty"`
	Bytes      int                    `json:"bytes,omitempty"`
	Score      string                 `json:"score,omitempty"`
	Error      string                 `json:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .podium/log.jsonl inside dir.
// Creates the .podium/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	stateDir := filepath.Join(dir, ".podium")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .podium directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(stateDir, "log.jsonl"),
	}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}

// ForSession returns the events recorded for one session id, in order.
func (l *Logger) ForSession(id string) ([]LogEvent, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []LogEvent
	for _, e := range all {
		if e.SessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
