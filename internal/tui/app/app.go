// Package app provides the main TUI application that drives an interview.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/podium-dev/podium/internal/ffmpeg"
	"github.com/podium-dev/podium/internal/interview"
	"github.com/podium-dev/podium/internal/tui"
	"github.com/podium-dev/podium/internal/tui/views"
)

// tickInterval is how often the snapshot is re-read. Device, recorder and
// analysis work completes on background goroutines.
const tickInterval = 200 * time.Millisecond

// App is the main TUI application. It owns no interview state: every key
// is forwarded to the orchestrator and the view is redrawn from its
// snapshot.
type App struct {
	orch    *interview.Orchestrator
	preview *tui.Preview
	view    views.InterviewModel
	keys    tui.KeyMap

	ctx    context.Context
	cancel context.CancelFunc

	play       func(ctx context.Context, path string) error
	playCancel context.CancelFunc
	playSeq    int

	width        int
	height       int
	ctrlCPending bool
}

// New creates an App around orch. preview should be the surface the
// orchestrator's capture controller was given.
func New(orch *interview.Orchestrator, preview *tui.Preview) *App {
	ctx, cancel := context.WithCancel(context.Background())
	if preview == nil {
		preview = tui.NewPreview()
	}
	a := &App{
		orch:    orch,
		preview: preview,
		view:    views.NewInterviewModel(0, 0),
		keys:    tui.DefaultKeyMap,
		ctx:     ctx,
		cancel:  cancel,
		play:    ffmpeg.Play,
	}
	a.refresh()
	return a
}

// Init starts the spinner and the refresh tick.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.view.Init(), tick())
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.view.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.CtrlC) {
			if a.ctrlCPending {
				a.shutdown()
				return a, tea.Quit
			}
			a.ctrlCPending = true
			a.view.SetCtrlCPending(true)
			return a, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})
		}
		return a.handleKey(msg)

	case tui.CtrlCResetMsg:
		a.ctrlCPending = false
		a.view.SetCtrlCPending(false)
		return a, nil

	case tui.TickMsg:
		a.view.SetNow(msg.Time)
		a.refresh()
		return a, tick()

	case tui.RecordingStartedMsg:
		if msg.Err == nil {
			a.view.SetRecordingStart(time.Now())
		}
		a.report(msg.Err)
		a.refresh()
		return a, nil

	case tui.RecordingStoppedMsg:
		a.view.SetRecordingStart(time.Time{})
		a.report(msg.Err)
		a.refresh()
		return a, nil

	case tui.FeedbackMsg:
		a.report(msg.Err)
		a.refresh()
		return a, nil

	case tui.PlaybackDoneMsg:
		if msg.Seq != a.playSeq {
			return a, nil
		}
		a.stopPlayback()
		a.report(msg.Err)
		return a, nil
	}

	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.view.SetNotice("")
	state := a.orch.State()

	switch {
	case key.Matches(msg, a.keys.Record):
		if state == interview.Recording {
			return a, a.stopRecording()
		}
		return a, a.startRecording()

	case key.Matches(msg, a.keys.Submit):
		return a, a.submit()

	case key.Matches(msg, a.keys.Discard):
		a.report(a.orch.DiscardRecording())
		a.refresh()
		return a, nil

	case key.Matches(msg, a.keys.Next):
		a.stopPlayback()
		a.report(a.orch.Advance())
		a.refresh()
		return a, nil

	case key.Matches(msg, a.keys.Restart):
		a.stopPlayback()
		a.orch.Restart()
		a.view.SetRecordingStart(time.Time{})
		a.refresh()
		return a, nil

	case key.Matches(msg, a.keys.Play):
		if a.playCancel != nil {
			a.stopPlayback()
			return a, nil
		}
		return a, a.speak()
	}

	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

// View renders the current application state.
func (a *App) View() string {
	content := a.view.View()
	if a.width == 0 || a.height == 0 {
		return content
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) startRecording() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return tui.RecordingStartedMsg{Err: a.orch.StartRecording(ctx)}
	}
}

func (a *App) stopRecording() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		art, err := a.orch.StopRecording(ctx)
		if err != nil {
			return tui.RecordingStoppedMsg{Err: err}
		}
		return tui.RecordingStoppedMsg{Bytes: art.Size()}
	}
}

func (a *App) submit() tea.Cmd {
	ctx := a.ctx
	gen := a.orch.Snapshot().Generation
	return func() tea.Msg {
		fb, err := a.orch.Submit(ctx)
		return tui.FeedbackMsg{Generation: gen, Feedback: fb, Err: err}
	}
}

func (a *App) speak() tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.playCancel = cancel
	a.playSeq++
	a.view.SetPlaying(true)
	seq, play := a.playSeq, a.play
	return func() tea.Msg {
		h, err := a.orch.SpeakFeedback(ctx)
		if err != nil {
			return tui.PlaybackDoneMsg{Seq: seq, Err: err}
		}
		if err := play(ctx, h.Path()); err != nil && ctx.Err() == nil {
			return tui.PlaybackDoneMsg{Seq: seq, Err: err}
		}
		return tui.PlaybackDoneMsg{Seq: seq}
	}
}

func (a *App) stopPlayback() {
	if a.playCancel != nil {
		a.playCancel()
		a.playCancel = nil
	}
	a.view.SetPlaying(false)
}

// shutdown cancels everything still running on behalf of the TUI. The
// orchestrator itself is closed by the caller.
func (a *App) shutdown() {
	a.stopPlayback()
	a.cancel()
}

func (a *App) refresh() {
	a.view.SetSnapshot(a.orch.Snapshot())
	a.view.SetPreview(a.preview.Render())
}

// report shows err as a notice unless the snapshot already carries it or
// it belongs to a superseded take.
func (a *App) report(err error) {
	if err == nil || errors.Is(err, interview.ErrSuperseded) || errors.Is(err, context.Canceled) {
		return
	}
	if snapErr := a.orch.Err(); snapErr != nil && errors.Is(err, snapErr) {
		return
	}
	a.view.SetNotice(err.Error())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tui.TickMsg{Time: t}
	})
}
