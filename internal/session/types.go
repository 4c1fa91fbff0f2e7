// Package session provides SQLite-backed history of interview sessions.
package session

import "time"

// Session statuses.
const (
	StatusActive    = "active"
	StatusComplete  = "complete"
	StatusRestarted = "restarted"
)

// Session is one sampled set of questions.
type Session struct {
	ID        string
	Questions []string
	Status    string // active, complete, restarted
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is one answered question with its feedback.
type Entry struct {
	ID            int
	SessionID     string
	Index         int
	Question      string
	Score         string
	Feedback      string
	MissingPoints string
	Suggestions   string
	Resources     string
	CorrectAnswer string
	AnsweredAt    time.Time
}

// Summary provides a high-level view of a session for listing.
type Summary struct {
	ID        string
	Status    string
	Questions int
	Answered  int
	UpdatedAt time.Time
}
