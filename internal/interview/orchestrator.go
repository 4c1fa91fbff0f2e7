package interview

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/capture"
	"github.com/podium-dev/podium/internal/log"
	"github.com/podium-dev/podium/internal/recording"
	"github.com/podium-dev/podium/internal/session"
	"github.com/podium-dev/podium/internal/speech"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("not allowed right now")
	// ErrSuperseded is returned for a result that belongs to a recording
	// the user has since replaced or discarded. Session state is untouched.
	ErrSuperseded = errors.New("result superseded by a newer recording")
	// ErrNoFeedback is returned by SpeakFeedback before any answer is scored.
	ErrNoFeedback = errors.New("no feedback to read")
)

// Analyzer runs the transcribe then score pipeline.
type Analyzer interface {
	Run(ctx context.Context, a *recording.Artifact, question string) (*analysis.Feedback, error)
}

// Speaker turns report text into audio.
type Speaker interface {
	Synthesize(ctx context.Context, report string) (*speech.Handle, error)
}

// History persists sessions and answered entries.
type History interface {
	CreateSession(id string, questions []string) (*session.Session, error)
	AddEntry(e session.Entry) error
	SetStatus(id, status string) error
}

// EventLog receives lifecycle events.
type EventLog interface {
	Append(event log.LogEvent) error
}

// Options configures an Orchestrator. Controller and Analyzer are required.
type Options struct {
	Controller *capture.Controller
	Analyzer   Analyzer
	Speaker    Speaker
	History    History
	Events     EventLog
	Logger     *zap.Logger

	Bank  []Question
	Count int
	Rand  *rand.Rand

	// RecordingsDir, when set, receives a copy of every finished take.
	RecordingsDir string
}

// Orchestrator is the interview state machine. All methods are safe for
// concurrent use. Opening the device, finalizing a take, analysis and
// synthesis run outside the lock and are applied only if their generation
// is still current.
type Orchestrator struct {
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	state      State
	session    *Session
	rec        *recording.Session
	artifact   *recording.Artifact
	generation uint64
	cancel     context.CancelFunc
	handle     *speech.Handle
	err        error
	closed     bool
}

// New creates an Orchestrator with a freshly sampled session.
func New(opts Options) (*Orchestrator, error) {
	if opts.Controller == nil {
		return nil, errors.New("interview: controller is required")
	}
	if opts.Analyzer == nil {
		return nil, errors.New("interview: analyzer is required")
	}
	if len(opts.Bank) == 0 {
		opts.Bank = DefaultQuestionBank
	}
	if opts.Count <= 0 {
		opts.Count = DefaultQuestionCount
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		opts:    opts,
		logger:  logger,
		session: NewSession(uuid.NewString(), Sample(opts.Bank, opts.Count, opts.Rand)),
	}
	o.recordSession()
	o.emit(log.LogEvent{Event: log.EventSessionStarted, Total: len(o.session.Questions)})
	return o, nil
}

// StartRecording begins a new take. From ReadyToSubmit the held artifact is
// discarded; from Analyzing the in-flight analysis is superseded. A device
// failure leaves the orchestrator in AwaitingRecording, as does a recorder
// that dies before StopRecording.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case AwaitingRecording, ReadyToSubmit, Analyzing:
	default:
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("start recording while %s: %w", state, ErrInvalidTransition)
	}

	if o.state == Analyzing {
		o.emit(log.LogEvent{Event: log.EventResultSuperseded, Generation: o.generation})
	}
	o.supersede()
	o.artifact = nil
	o.err = nil
	o.state = AwaitingRecording
	gen := o.generation
	o.mu.Unlock()

	rec := recording.NewSession(o.opts.Controller, o.logger)
	err := rec.Start(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		if err == nil {
			_ = rec.Stop()
		}
		if o.closed {
			_ = o.opts.Controller.Release()
		}
		return ErrSuperseded
	}
	if err != nil {
		o.err = err
		o.emit(log.LogEvent{Event: log.EventDeviceFailed, Error: err.Error()})
		return err
	}

	o.rec = rec
	o.state = Recording
	o.emit(log.LogEvent{Event: log.EventRecordingStarted, Generation: gen})
	go o.watch(rec, gen)
	return nil
}

// watch surfaces a recorder that fails while the user is still answering.
func (o *Orchestrator) watch(rec *recording.Session, gen uint64) {
	if _, err := rec.Wait(context.Background()); err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.recorderFailed(rec, gen, err)
	}
}

// recorderFailed returns to AwaitingRecording after rec failed. A device
// failure also releases the stream so the camera indicator goes off.
// Caller holds o.mu.
func (o *Orchestrator) recorderFailed(rec *recording.Session, gen uint64, err error) {
	if gen != o.generation || o.rec != rec {
		return
	}
	o.rec = nil
	o.state = AwaitingRecording
	o.err = err
	o.emit(log.LogEvent{Event: log.EventDeviceFailed, Generation: gen, Error: err.Error()})

	if errors.Is(err, capture.ErrDeviceUnavailable) {
		if rerr := o.opts.Controller.Release(); rerr != nil {
			o.logger.Warn("releasing failed device", zap.Error(rerr))
		}
	}
}

// StopRecording ends the take and waits for the artifact.
func (o *Orchestrator) StopRecording(ctx context.Context) (*recording.Artifact, error) {
	o.mu.Lock()
	if o.state != Recording {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("stop recording while %s: %w", state, ErrInvalidTransition)
	}
	rec, gen := o.rec, o.generation
	if err := rec.Stop(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.mu.Unlock()

	a, err := rec.Wait(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		return nil, ErrSuperseded
	}
	if err != nil {
		if ctx.Err() == nil {
			o.recorderFailed(rec, gen, err)
		}
		o.err = err
		return nil, fmt.Errorf("finalize recording: %w", err)
	}

	o.rec = nil
	o.artifact = a
	o.state = ReadyToSubmit
	o.emit(log.LogEvent{
		Event:      log.EventRecordingStopped,
		Generation: gen,
		Artifact:   a.Name,
		Bytes:      a.Size(),
	})

	if o.opts.RecordingsDir != "" {
		if path, err := a.Save(o.opts.RecordingsDir); err != nil {
			o.logger.Warn("saving recording failed", zap.Error(err))
		} else {
			o.logger.Debug("recording saved", zap.String("path", path))
		}
	}
	return a, nil
}

// DiscardRecording drops the held artifact so the question can be
// re-recorded.
func (o *Orchestrator) DiscardRecording() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.artifact == nil || (o.state != ReadyToSubmit && o.state != AwaitingRecording) {
		return fmt.Errorf("discard while %s: %w", o.state, ErrInvalidTransition)
	}
	o.supersede()
	o.artifact = nil
	o.state = AwaitingRecording
	return nil
}

// Submit runs the analysis pipeline on the held artifact for the current
// question. It is allowed from ReadyToSubmit, or from AwaitingRecording
// when the artifact of a failed attempt is still held.
func (o *Orchestrator) Submit(ctx context.Context) (*analysis.Feedback, error) {
	o.mu.Lock()
	if o.artifact == nil || (o.state != ReadyToSubmit && o.state != AwaitingRecording) {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("submit while %s: %w", state, ErrInvalidTransition)
	}
	q, ok := o.session.Current()
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("submit with no question left: %w", ErrInvalidTransition)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.cancel = cancel
	o.state = Analyzing
	o.err = nil
	a, gen, index := o.artifact, o.generation, o.session.Index
	o.emit(log.LogEvent{Event: log.EventAnalysisStarted, Generation: gen, Index: index, Question: string(q)})
	o.mu.Unlock()

	started := time.Now()
	fb, err := o.opts.Analyzer.Run(runCtx, a, string(q))
	elapsed := time.Since(started)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation || o.state != Analyzing {
		o.logger.Debug("dropping superseded result", zap.Uint64("generation", gen), zap.Uint64("current", o.generation))
		return nil, ErrSuperseded
	}
	o.cancel = nil

	if err != nil {
		o.state = AwaitingRecording
		o.err = err
		o.emit(log.LogEvent{
			Event:      log.EventAnalysisFailed,
			Generation: gen,
			Index:      index,
			Error:      err.Error(),
			DurationMs: elapsed.Milliseconds(),
		})
		return nil, err
	}

	entry := Entry{Question: q, Feedback: *fb, AnsweredAt: time.Now()}
	o.session.Entries = append(o.session.Entries, entry)
	o.artifact = nil
	o.state = FeedbackReady
	o.emit(log.LogEvent{
		Event:      log.EventFeedbackReceived,
		Generation: gen,
		Index:      index,
		Question:   string(q),
		Score:      fb.Score,
		DurationMs: elapsed.Milliseconds(),
	})
	o.recordEntry(index, entry)

	out := *fb
	return &out, nil
}

// Advance moves past the answered question, completing the session after
// the last one.
func (o *Orchestrator) Advance() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != FeedbackReady {
		return fmt.Errorf("advance while %s: %w", o.state, ErrInvalidTransition)
	}

	o.session.Index++
	if o.session.Index >= len(o.session.Questions) {
		o.session.Complete = true
		o.state = Complete
		o.emit(log.LogEvent{Event: log.EventSessionComplete, Total: len(o.session.Entries)})
		o.setStatus(session.StatusComplete)
		return nil
	}

	o.state = AwaitingRecording
	q, _ := o.session.Current()
	o.emit(log.LogEvent{Event: log.EventQuestionAdvanced, Index: o.session.Index, Question: string(q)})
	return nil
}

// Restart resamples the questions and clears all answers. Any take or
// analysis in progress is abandoned; the device stream is kept.
func (o *Orchestrator) Restart() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.supersede()
	if o.rec != nil {
		if err := o.rec.Stop(); err != nil {
			o.logger.Debug("stopping abandoned recorder", zap.Error(err))
		}
		o.rec = nil
	}
	if !o.session.Complete {
		o.setStatus(session.StatusRestarted)
	}

	prev := o.session.ID
	o.session.Reset(uuid.NewString(), Sample(o.opts.Bank, o.opts.Count, o.opts.Rand))
	o.artifact = nil
	o.err = nil
	o.state = AwaitingRecording

	o.recordSession()
	o.emit(log.LogEvent{
		Event: log.EventSessionRestarted,
		Total: len(o.session.Questions),
		Data:  map[string]interface{}{"previous": prev},
	})
}

// SpeakFeedback synthesizes the most recent feedback. The previous audio
// handle is released first. Failures do not change session state.
func (o *Orchestrator) SpeakFeedback(ctx context.Context) (*speech.Handle, error) {
	o.mu.Lock()
	if o.opts.Speaker == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: no synthesis endpoint configured", speech.ErrSynthesis)
	}
	if len(o.session.Entries) == 0 {
		o.mu.Unlock()
		return nil, ErrNoFeedback
	}
	fb := o.session.Entries[len(o.session.Entries)-1].Feedback
	prev := o.handle
	o.handle = nil
	o.mu.Unlock()

	if err := prev.Release(); err != nil {
		o.logger.Warn("releasing audio failed", zap.Error(err))
	}

	h, err := o.opts.Speaker.Synthesize(ctx, speech.FeedbackReport(fb))
	if err != nil {
		o.mu.Lock()
		o.emit(log.LogEvent{Event: log.EventSynthesisFailed, Error: err.Error()})
		o.mu.Unlock()
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle != nil {
		_ = o.handle.Release()
	}
	o.handle = h
	return h, nil
}

// Snapshot is a consistent view of the orchestrator for display.
type Snapshot struct {
	State      State
	Session    Session
	Current    Question
	Artifact   *recording.Artifact
	Generation uint64
	Err        error
	Tracks     []string
}

// Latest returns the most recent entry, if any.
func (s Snapshot) Latest() (Entry, bool) {
	if len(s.Session.Entries) == 0 {
		return Entry{}, false
	}
	return s.Session.Entries[len(s.Session.Entries)-1], true
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		State:      o.state,
		Session:    o.session.clone(),
		Artifact:   o.artifact,
		Generation: o.generation,
		Err:        o.err,
	}
	snap.Current, _ = o.session.Current()
	for _, t := range o.opts.Controller.Tracks() {
		snap.Tracks = append(snap.Tracks, t.Kind())
	}
	return snap
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the last error surfaced to the user, cleared by the next
// successful action.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Close abandons in-progress work, deletes synthesized audio and releases
// the device.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.supersede()
	if o.rec != nil {
		_ = o.rec.Stop()
		o.rec = nil
	}
	h := o.handle
	o.handle = nil
	o.mu.Unlock()

	return errors.Join(h.Release(), o.opts.Controller.Release())
}

// supersede invalidates any result still in flight. Caller holds o.mu.
func (o *Orchestrator) supersede() {
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// emit stamps event with the session id and appends it. Caller holds o.mu.
func (o *Orchestrator) emit(event log.LogEvent) {
	if o.opts.Events == nil {
		return
	}
	event.SessionID = o.session.ID
	if err := o.opts.Events.Append(event); err != nil {
		o.logger.Warn("appending event failed", zap.String("event", event.Event), zap.Error(err))
	}
}

func (o *Orchestrator) recordSession() {
	if o.opts.History == nil {
		return
	}
	qs := make([]string, len(o.session.Questions))
	for i, q := range o.session.Questions {
		qs[i] = string(q)
	}
	if _, err := o.opts.History.CreateSession(o.session.ID, qs); err != nil {
		o.logger.Warn("recording session failed", zap.Error(err))
	}
}

func (o *Orchestrator) recordEntry(index int, e Entry) {
	if o.opts.History == nil {
		return
	}
	err := o.opts.History.AddEntry(session.Entry{
		SessionID:     o.session.ID,
		Index:         index,
		Question:      string(e.Question),
		Score:         e.Feedback.Score,
		Feedback:      e.Feedback.Feedback,
		MissingPoints: e.Feedback.MissingPoints,
		Suggestions:   e.Feedback.Suggestions,
		Resources:     e.Feedback.Resources,
		CorrectAnswer: e.Feedback.CorrectAnswer,
		AnsweredAt:    e.AnsweredAt,
	})
	if err != nil {
		o.logger.Warn("recording entry failed", zap.Error(err))
	}
}

func (o *Orchestrator) setStatus(status string) {
	if o.opts.History == nil {
		return
	}
	if err := o.opts.History.SetStatus(o.session.ID, status); err != nil {
		o.logger.Warn("updating session status failed", zap.Error(err))
	}
}
