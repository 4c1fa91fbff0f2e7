// Package views provides TUI view components for the Podium application.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/interview"
	"github.com/podium-dev/podium/internal/links"
	"github.com/podium-dev/podium/internal/tui"
)

// maxInterviewWidth is the maximum width for the interview box.
const maxInterviewWidth = 90

// feedbackHeight is the number of feedback lines visible at once.
const feedbackHeight = 12

// InterviewModel renders one orchestrator snapshot: the current question,
// the recording state and the latest feedback.
type InterviewModel struct {
	snap         interview.Snapshot
	preview      string
	notice       string
	recordingAt  time.Time
	now          time.Time
	playing      bool
	ctrlCPending bool

	spinner  spinner.Model
	feedback viewport.Model
	help     help.Model
	keys     tui.KeyMap

	shownEntries int
	width        int
	height       int
}

// NewInterviewModel creates an InterviewModel sized for the terminal.
func NewInterviewModel(width, height int) InterviewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = tui.TitleStyle

	m := InterviewModel{
		spinner:  s,
		feedback: viewport.New(0, feedbackHeight),
		help:     help.New(),
		keys:     tui.DefaultKeyMap,
	}
	m.SetSize(width, height)
	return m
}

// Init starts the spinner.
func (m InterviewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize adapts the layout to the terminal size.
func (m *InterviewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.feedback.Width = m.contentWidth()
	m.help.Width = m.contentWidth()
}

// SetSnapshot replaces the displayed state. The feedback pane is refilled
// whenever a new entry arrives or the session changes.
func (m *InterviewModel) SetSnapshot(s interview.Snapshot) {
	restarted := s.Session.ID != m.snap.Session.ID
	m.snap = s

	if restarted || len(s.Session.Entries) != m.shownEntries {
		m.shownEntries = len(s.Session.Entries)
		content := ""
		if e, ok := s.Latest(); ok {
			content = RenderFeedback(e.Feedback, m.contentWidth())
		}
		m.feedback.SetContent(content)
		m.feedback.GotoTop()
	}
}

// SetPreview sets the device indicator line.
func (m *InterviewModel) SetPreview(line string) { m.preview = line }

// SetNotice shows a one-line message under the status, or clears it.
func (m *InterviewModel) SetNotice(n string) { m.notice = n }

// SetRecordingStart marks when the current take began. Zero hides the timer.
func (m *InterviewModel) SetRecordingStart(t time.Time) {
	m.recordingAt = t
	m.now = t
}

// SetNow advances the recording timer.
func (m *InterviewModel) SetNow(t time.Time) { m.now = t }

// SetPlaying toggles the playback indicator.
func (m *InterviewModel) SetPlaying(p bool) { m.playing = p }

// SetCtrlCPending sets the Ctrl+C confirmation state.
func (m *InterviewModel) SetCtrlCPending(p bool) { m.ctrlCPending = p }

// Update handles spinner ticks, feedback scrolling and the help toggle.
func (m InterviewModel) Update(msg tea.Msg) (InterviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			var cmd tea.Cmd
			m.feedback, cmd = m.feedback.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View renders the interview view.
func (m InterviewModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Interview practice"))
	b.WriteString("  ")
	b.WriteString(m.preview)
	b.WriteString("\n\n")

	if m.snap.State == interview.Complete {
		b.WriteString(m.renderComplete())
	} else {
		b.WriteString(m.renderQuestion())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return tui.BoxStyle.Width(m.boxWidth()).Render(b.String())
}

func (m InterviewModel) renderQuestion() string {
	var b strings.Builder

	total := len(m.snap.Session.Questions)
	b.WriteString(ProgressBar(m.snap.Session.Index, total))
	b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  Question %d of %d", m.snap.Session.Index+1, total)))
	b.WriteString("\n\n")

	questionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E5E7EB")).
		Bold(true).
		Width(m.contentWidth())
	b.WriteString(questionStyle.Render(string(m.snap.Current)))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.snap.State == interview.FeedbackReady {
		b.WriteString("\n")
		b.WriteString(m.feedback.View())
		b.WriteString("\n")
		if !m.feedback.AtBottom() {
			b.WriteString(tui.DimStyle.Render("↓ more"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m InterviewModel) renderStatus() string {
	var line string
	switch m.snap.State {
	case interview.AwaitingRecording:
		line = tui.DimStyle.Render("Press space to record your answer.")
		if m.snap.Artifact != nil {
			line = tui.WarningStyle.Render("Previous take kept. ") +
				tui.DimStyle.Render("Enter to retry, d to discard, space to re-record.")
		}
	case interview.Recording:
		rec := " REC"
		if !m.recordingAt.IsZero() {
			elapsed := m.now.Sub(m.recordingAt).Truncate(time.Second)
			if elapsed < 0 {
				elapsed = 0
			}
			rec += " " + elapsed.String()
		}
		line = tui.LiveDot + tui.ErrorStyle.Render(rec) + tui.DimStyle.Render("  space to stop")
	case interview.ReadyToSubmit:
		size := 0
		if m.snap.Artifact != nil {
			size = m.snap.Artifact.Size()
		}
		line = tui.SuccessStyle.Render(fmt.Sprintf("Recorded %s. ", humanBytes(size))) +
			tui.DimStyle.Render("Enter to submit, d to discard, space to re-record.")
	case interview.Analyzing:
		line = m.spinner.View() + " Analyzing your answer..."
	case interview.FeedbackReady:
		hint := "n for next question, p to hear feedback"
		if m.playing {
			hint = "playing feedback, p to stop"
		}
		line = tui.Check + " " + tui.DimStyle.Render(hint)
	}

	var b strings.Builder
	b.WriteString(line)
	if m.snap.Err != nil {
		b.WriteString("\n")
		b.WriteString(tui.Cross + " " + tui.ErrorStyle.Render(m.snap.Err.Error()))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(tui.WarningStyle.Render(m.notice))
	}
	return b.String()
}

func (m InterviewModel) renderComplete() string {
	var b strings.Builder

	b.WriteString(tui.SuccessStyle.Render("Session complete"))
	b.WriteString("\n\n")

	var total, scored int
	for i, e := range m.snap.Session.Entries {
		score := e.Feedback.Score
		if v, ok := e.Feedback.ScoreValue(); ok {
			total += v
			scored++
			score = scoreStyle(v).Render(score)
		}
		b.WriteString(fmt.Sprintf("%s %d. %s  %s\n", tui.Check, i+1, truncate(string(e.Question), m.contentWidth()-12), score))
	}
	if scored > 0 {
		b.WriteString("\n")
		b.WriteString(tui.TitleStyle.Render(fmt.Sprintf("Average score: %d/100", total/scored)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("r to start a new session, p to hear the last feedback"))
	b.WriteString("\n")
	return b.String()
}

func (m InterviewModel) renderFooter() string {
	if m.ctrlCPending {
		return tui.WarningStyle.Render("Press Ctrl+C again to exit")
	}
	return m.help.View(m.keys)
}

func (m InterviewModel) boxWidth() int {
	w := maxInterviewWidth
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	return w
}

func (m InterviewModel) contentWidth() int {
	w := m.boxWidth() - 6
	if w < 20 {
		w = 20
	}
	return w
}

// RenderFeedback lays out one feedback record. Markdown links in the
// resources become terminal hyperlinks.
func RenderFeedback(fb analysis.Feedback, width int) string {
	var b strings.Builder

	score := fb.Score
	if v, ok := fb.ScoreValue(); ok {
		score = scoreStyle(v).Render(fmt.Sprintf("%d/100", v))
	}
	b.WriteString(tui.LabelStyle.Render("Score: ") + score + "\n")

	body := lipgloss.NewStyle().Width(width)
	field := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString("\n")
		b.WriteString(tui.LabelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(body.Render(value))
		b.WriteString("\n")
	}
	field("Feedback", fb.Feedback)
	field("Missing points", fb.MissingPoints)
	field("Suggestions", fb.Suggestions)
	field("Correct answer", fb.CorrectAnswer)
	field("Resources", links.Terminal(fb.Resources))

	return strings.TrimRight(b.String(), "\n")
}

// ProgressBar draws one cell per question.
func ProgressBar(index, total int) string {
	var b strings.Builder
	for i := 0; i < total; i++ {
		if i < index {
			b.WriteString(tui.ProgressFullStyle.Render("■"))
		} else {
			b.WriteString(tui.ProgressEmptyStyle.Render("□"))
		}
	}
	return b.String()
}

func scoreStyle(v int) lipgloss.Style {
	switch {
	case v >= 70:
		return tui.SuccessStyle
	case v >= 40:
		return tui.WarningStyle
	default:
		return tui.ErrorStyle
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
