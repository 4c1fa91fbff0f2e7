// Package report summarises a finished (or abandoned) interview session.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/links"
	"github.com/podium-dev/podium/internal/log"
	"github.com/podium-dev/podium/internal/session"
)

// History is the part of the session store a report reads.
type History interface {
	GetSession(id string) (*session.Session, error)
	GetEntries(sessionID string) ([]session.Entry, error)
}

// Answer is one question of the report.
type Answer struct {
	Question      string
	Answered      bool
	Score         string
	Feedback      string
	MissingPoints string
	Suggestions   string
	Resources     string
}

// Report holds the aggregated results of one session.
type Report struct {
	SessionID    string
	Status       string
	CreatedAt    time.Time
	Answers      []Answer
	Answered     int
	AverageScore float64 // over answers with a numeric score
	Scored       int
	Attempts     int
	Failures     int
	Duration     time.Duration
}

// GenerateReport builds the report for sessionID from the history store and
// the event log. events may be nil. A missing event log is tolerated.
func GenerateReport(h History, events *log.Logger, sessionID string) (*Report, error) {
	sess, err := h.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	entries, err := h.GetEntries(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	r := &Report{
		SessionID: sess.ID,
		Status:    sess.Status,
		CreatedAt: sess.CreatedAt,
	}

	byIndex := make(map[int]session.Entry, len(entries))
	for _, e := range entries {
		byIndex[e.Index] = e
	}

	var total int
	for i, q := range sess.Questions {
		a := Answer{Question: q}
		if e, ok := byIndex[i]; ok {
			a.Answered = true
			a.Score = e.Score
			a.Feedback = e.Feedback
			a.MissingPoints = e.MissingPoints
			a.Suggestions = e.Suggestions
			a.Resources = e.Resources
			r.Answered++
			if v, ok := (analysis.Feedback{Score: e.Score}).ScoreValue(); ok {
				total += v
				r.Scored++
			}
		}
		r.Answers = append(r.Answers, a)
	}
	if r.Scored > 0 {
		r.AverageScore = float64(total) / float64(r.Scored)
	}

	if events != nil {
		evs, readErr := events.ForSession(sessionID)
		if readErr == nil && len(evs) > 0 {
			r.Duration = computeDuration(evs)
			for _, e := range evs {
				switch e.Event {
				case log.EventAnalysisStarted:
					r.Attempts++
				case log.EventAnalysisFailed:
					r.Failures++
				}
			}
		}
	}

	return r, nil
}

// FormatReport produces a markdown summary. Resource links are kept in
// "label <url>" form.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("# Interview Report\n\n")
	fmt.Fprintf(&b, "Session:   %s\n", r.SessionID)
	fmt.Fprintf(&b, "Status:    %s\n", r.Status)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Started:   %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "Answered:  %d of %d\n", r.Answered, len(r.Answers))
	if r.Scored > 0 {
		fmt.Fprintf(&b, "Average:   %.0f/100\n", r.AverageScore)
	}
	if r.Attempts > 0 {
		fmt.Fprintf(&b, "Attempts:  %d (%d failed)\n", r.Attempts, r.Failures)
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "Duration:  %s\n", formatDuration(r.Duration))
	}
	b.WriteString("\n")

	for i, a := range r.Answers {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, a.Question)
		if !a.Answered {
			b.WriteString("_Not answered._\n\n")
			continue
		}
		fmt.Fprintf(&b, "**Score:** %s\n\n", a.Score)
		writeField(&b, "Feedback", a.Feedback)
		writeField(&b, "Missing points", a.MissingPoints)
		writeField(&b, "Suggestions", a.Suggestions)
		writeField(&b, "Resources", links.Plain(a.Resources))
	}

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", label, strings.TrimSpace(value))
}

// WriteReport writes the formatted report to {dir}/report.md.
// Creates the directory if it does not exist.
func WriteReport(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, "report.md")
	if err := os.WriteFile(path, []byte(FormatReport(report)), 0644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}

// computeDuration spans the first session_started (or first event) to the
// session_complete event, or the last event when the session never finished.
func computeDuration(events []log.LogEvent) time.Duration {
	var start, end time.Time

	for _, e := range events {
		if start.IsZero() && !e.Time.IsZero() {
			start = e.Time
		}
		if !e.Time.IsZero() {
			end = e.Time
		}
		if e.Event == log.EventSessionComplete {
			end = e.Time
			break
		}
	}

	if start.IsZero() || end.IsZero() {
		return 0
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// formatDuration produces a human-readable duration string such as "5m 32s"
// or "1h 12m 5s". Sub-second durations are shown as "< 1s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
