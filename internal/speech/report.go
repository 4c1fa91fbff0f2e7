// Package speech turns feedback into spoken audio through the synthesis
// service.
package speech

import (
	"strings"

	"github.com/podium-dev/podium/internal/analysis"
)

// FeedbackReport assembles the labelled text read back after an answer.
// Field order is fixed.
func FeedbackReport(fb analysis.Feedback) string {
	var b strings.Builder
	b.WriteString("Feedback: " + fb.Feedback + "\n")
	b.WriteString("Missing Points: " + fb.MissingPoints + "\n")
	b.WriteString("Suggestions: " + fb.Suggestions + "\n")
	b.WriteString("Correct Answer: " + fb.CorrectAnswer)
	return b.String()
}

// ReviewReport assembles the text read back after a whole-session review.
func ReviewReport(r analysis.Review) string {
	weak := make([]string, 0, len(r.Weaknesses))
	for _, w := range r.Weaknesses {
		weak = append(weak, w.Weakness+": "+w.HowToImprove)
	}

	var b strings.Builder
	b.WriteString("Summary: " + r.Summary + "\n")
	b.WriteString("Strengths: " + r.Strengths + "\n")
	b.WriteString("Weaknesses: " + strings.Join(weak, ". ") + "\n")
	b.WriteString("Conclusion: " + r.Conclusion)
	return b.String()
}
