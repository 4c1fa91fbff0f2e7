// Package analysis sends recorded answers through the remote transcribe and
// score services.
package analysis

import (
	"errors"
	"strconv"
	"strings"
)

// Errors returned by the pipeline. Callers classify with errors.Is.
var (
	ErrTranscription     = errors.New("transcription failed")
	ErrNoTranscript      = errors.New("no speech was transcribed")
	ErrScoring           = errors.New("scoring failed")
	ErrReview            = errors.New("review failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// Feedback is the scoring service's verdict on one answer.
type Feedback struct {
	Score         string `json:"score"`
	Feedback      string `json:"feedback"`
	MissingPoints string `json:"missing_points"`
	Suggestions   string `json:"suggestions"`
	Resources     string `json:"resources"`
	CorrectAnswer string `json:"correct_answer"`
}

// ScoreValue interprets Score as a number in 0..100. Values such as "85",
// "85.5" and "85/100" are accepted.
func (f Feedback) ScoreValue() (int, bool) {
	s := strings.TrimSpace(f.Score)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return int(v + 0.5), true
}

// Weakness is one weak point of a whole-session review.
type Weakness struct {
	Weakness     string `json:"Weakness"`
	HowToImprove string `json:"How to improve"`
}

// Review is the whole-session assessment returned by the review service.
type Review struct {
	Summary    string     `json:"Summary"`
	Strengths  string     `json:"Strengths"`
	Weaknesses []Weakness `json:"Weaknesses"`
	Conclusion string     `json:"Conclusion"`
}
