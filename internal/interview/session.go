package interview

import (
	"fmt"
	"time"

	"github.com/podium-dev/podium/internal/analysis"
)

// State of the orchestrator.
type State int

const (
	AwaitingRecording State = iota
	Recording
	ReadyToSubmit
	Analyzing
	FeedbackReady
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingRecording:
		return "awaiting recording"
	case Recording:
		return "recording"
	case ReadyToSubmit:
		return "ready to submit"
	case Analyzing:
		return "analyzing"
	case FeedbackReady:
		return "feedback ready"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Entry is an answered question. Entries are never modified once recorded.
type Entry struct {
	Question   Question
	Feedback   analysis.Feedback
	AnsweredAt time.Time
}

// Session is the sampled questions and the answers recorded so far.
// Outside FeedbackReady, len(Entries) == Index.
type Session struct {
	ID        string
	Questions []Question
	Index     int
	Entries   []Entry
	Complete  bool
}

// NewSession starts a session over questions.
func NewSession(id string, questions []Question) *Session {
	s := &Session{}
	s.Reset(id, questions)
	return s
}

// Current returns the question being asked. ok is false once every
// question has been asked.
func (s *Session) Current() (q Question, ok bool) {
	if s.Index >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.Index], true
}

// Reset clears the session in place for a new set of questions.
func (s *Session) Reset(id string, questions []Question) {
	s.ID = id
	s.Questions = append([]Question(nil), questions...)
	s.Index = 0
	s.Entries = nil
	s.Complete = false
}

// clone returns a copy that shares no slices with s.
func (s *Session) clone() Session {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	c.Entries = append([]Entry(nil), s.Entries...)
	return c
}
