package views

import (
	"strings"
	"testing"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/interview"
)

func TestRenderFeedback(t *testing.T) {
	out := RenderFeedback(analysis.Feedback{
		Score:         "85",
		Feedback:      "Clear structure.",
		MissingPoints: "No metrics.",
		Resources:     "See [Go docs](https://go.dev/doc).",
	}, 60)

	for _, want := range []string{"85/100", "Clear structure.", "Missing points", "https://go.dev/doc", "Go docs"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderFeedback missing %q:\n%q", want, out)
		}
	}
	if strings.Contains(out, "Suggestions") {
		t.Error("empty fields should be omitted")
	}
}

func TestRenderFeedbackNonNumericScore(t *testing.T) {
	out := RenderFeedback(analysis.Feedback{Score: "excellent"}, 40)
	if !strings.Contains(out, "excellent") {
		t.Errorf("score text lost: %q", out)
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(1, 3)
	if got := strings.Count(bar, "■"); got != 1 {
		t.Errorf("filled cells = %d, want 1", got)
	}
	if got := strings.Count(bar, "□"); got != 2 {
		t.Errorf("empty cells = %d, want 2", got)
	}
}

func TestViewShowsQuestion(t *testing.T) {
	m := NewInterviewModel(100, 30)
	s := interview.NewSession("s", []interview.Question{"Why Go?", "Why not?"})
	m.SetSnapshot(interview.Snapshot{
		State:   interview.AwaitingRecording,
		Session: *s,
		Current: "Why Go?",
	})

	view := m.View()
	for _, want := range []string{"Question 1 of 2", "Why Go?", "Press space to record"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewComplete(t *testing.T) {
	m := NewInterviewModel(100, 30)
	s := interview.NewSession("s", []interview.Question{"a", "b"})
	s.Index = 2
	s.Complete = true
	s.Entries = []interview.Entry{
		{Question: "a", Feedback: analysis.Feedback{Score: "80"}},
		{Question: "b", Feedback: analysis.Feedback{Score: "60"}},
	}
	m.SetSnapshot(interview.Snapshot{State: interview.Complete, Session: *s})

	if view := m.View(); !strings.Contains(view, "Average score: 70/100") {
		t.Errorf("view missing average:\n%s", view)
	}
}
