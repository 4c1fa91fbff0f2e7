package tui

import (
	"time"

	"github.com/podium-dev/podium/internal/analysis"
)

// ============================================================================
// Recording Messages
// ============================================================================

// RecordingStartedMsg reports the outcome of a start request.
type RecordingStartedMsg struct {
	Err error
}

// RecordingStoppedMsg reports the finished take.
type RecordingStoppedMsg struct {
	Bytes int
	Err   error
}

// TickMsg refreshes the snapshot and the recording timer.
type TickMsg struct {
	Time time.Time
}

// ============================================================================
// Analysis Messages
// ============================================================================

// FeedbackMsg carries the result of a submit. Generation identifies the
// take it belongs to.
type FeedbackMsg struct {
	Generation uint64
	Feedback   *analysis.Feedback
	Err        error
}

// ============================================================================
// Playback Messages
// ============================================================================

// PlaybackDoneMsg signals that playback ended or failed. Seq identifies
// the play request.
type PlaybackDoneMsg struct {
	Seq int
	Err error
}

// ============================================================================
// Control Messages
// ============================================================================

// CtrlCResetMsg resets the Ctrl+C confirmation state after timeout.
type CtrlCResetMsg struct{}
