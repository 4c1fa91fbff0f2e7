package interview_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/capture"
	"github.com/podium-dev/podium/internal/interview"
	"github.com/podium-dev/podium/internal/log"
	"github.com/podium-dev/podium/internal/session"
	"github.com/podium-dev/podium/internal/speech"
	"github.com/podium-dev/podium/internal/testutil"
)

type harness struct {
	dev     *testutil.FakeDevice
	backend *testutil.FakeBackend
	ctrl    *capture.Controller
	events  *log.Logger
	history *session.Store
	orch    *interview.Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	dev := testutil.NewFakeDevice()
	dev.Script([]byte("webm-"), []byte("answer"))
	b := testutil.NewFakeBackend(t)

	events, err := log.NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	history, err := session.NewStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = history.Close() })

	ctrl := capture.NewController(dev, nil)
	o, err := interview.New(interview.Options{
		Controller: ctrl,
		Analyzer: analysis.NewClient(analysis.Config{
			TranscribeURL: b.URL("/getlang"),
			ScoreURL:      b.URL("/qa"),
			Timeout:       5 * time.Second,
		}, nil),
		Speaker: speech.NewSynthesizer(b.URL("/tts"), 5*time.Second, nil),
		History: history,
		Events:  events,
		Rand:    rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })

	return &harness{dev: dev, backend: b, ctrl: ctrl, events: events, history: history, orch: o}
}

func (h *harness) record(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.orch.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if _, err := h.orch.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if got := h.orch.State(); got != interview.ReadyToSubmit {
		t.Fatalf("State after StopRecording = %v, want %v", got, interview.ReadyToSubmit)
	}
}

func checkEntryInvariant(t *testing.T, snap interview.Snapshot) {
	t.Helper()
	entries, index := len(snap.Session.Entries), snap.Session.Index
	if entries > len(snap.Session.Questions) {
		t.Errorf("entries = %d exceeds questions = %d", entries, len(snap.Session.Questions))
	}
	want := index
	if snap.State == interview.FeedbackReady {
		want = index + 1
	}
	if entries != want {
		t.Errorf("in %v: entries = %d, index = %d", snap.State, entries, index)
	}
}

func TestThreeQuestionSessionCompletes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h.record(t)
		checkEntryInvariant(t, h.orch.Snapshot())

		fb, err := h.orch.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		if fb.Score != "85" {
			t.Errorf("Score = %q, want 85", fb.Score)
		}
		snap := h.orch.Snapshot()
		if snap.State != interview.FeedbackReady {
			t.Fatalf("State = %v, want %v", snap.State, interview.FeedbackReady)
		}
		checkEntryInvariant(t, snap)
		if snap.Session.Complete {
			t.Error("session should not be complete before advancing")
		}

		if err := h.orch.Advance(); err != nil {
			t.Fatalf("Advance %d failed: %v", i, err)
		}
		checkEntryInvariant(t, h.orch.Snapshot())
	}

	snap := h.orch.Snapshot()
	if !snap.Session.Complete || snap.State != interview.Complete {
		t.Errorf("after third advance: complete = %v, state = %v", snap.Session.Complete, snap.State)
	}
	if len(snap.Session.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(snap.Session.Entries))
	}
	if snap.Session.Index != len(snap.Session.Questions) {
		t.Errorf("index = %d, want %d", snap.Session.Index, len(snap.Session.Questions))
	}

	// Each question was scored in the sampled order.
	asked := h.backend.Questions()
	for i, q := range snap.Session.Questions {
		if asked[i] != string(q) {
			t.Errorf("question %d scored as %q, want %q", i, asked[i], q)
		}
	}

	if err := h.orch.Advance(); !errors.Is(err, interview.ErrInvalidTransition) {
		t.Errorf("Advance after completion = %v, want ErrInvalidTransition", err)
	}

	stored, err := h.history.GetEntries(snap.Session.ID)
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored entries = %d, want 3", len(stored))
	}
	sess, err := h.history.GetSession(snap.Session.ID)
	if err != nil || sess == nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if sess.Status != session.StatusComplete {
		t.Errorf("stored status = %q, want %q", sess.Status, session.StatusComplete)
	}
}

func TestScoringFailureThenResubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.SetScore(http.StatusInternalServerError, "")

	h.record(t)
	_, err := h.orch.Submit(ctx)
	if !errors.Is(err, analysis.ErrScoring) {
		t.Fatalf("Submit = %v, want ErrScoring", err)
	}

	snap := h.orch.Snapshot()
	if snap.State != interview.AwaitingRecording {
		t.Errorf("State = %v, want %v", snap.State, interview.AwaitingRecording)
	}
	if len(snap.Session.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(snap.Session.Entries))
	}
	if !errors.Is(h.orch.Err(), analysis.ErrScoring) {
		t.Errorf("Err = %v, want the scoring failure surfaced", h.orch.Err())
	}

	h.backend.SetScore(http.StatusOK, testutil.FeedbackJSON("85"))
	if _, err := h.orch.Submit(ctx); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}

	snap = h.orch.Snapshot()
	if len(snap.Session.Entries) != 1 {
		t.Errorf("entries = %d, want exactly 1", len(snap.Session.Entries))
	}
	if h.backend.TranscribeCalls() != 2 {
		t.Errorf("transcribe calls = %d, want 2 (full pipeline re-issued)", h.backend.TranscribeCalls())
	}
	if h.orch.Err() != nil {
		t.Errorf("Err = %v, want nil after success", h.orch.Err())
	}
}

func TestEmptyRecordingReportsNoTranscript(t *testing.T) {
	h := newHarness(t)
	h.dev.Script() // nothing captured

	h.record(t)
	snap := h.orch.Snapshot()
	if snap.Artifact == nil || snap.Artifact.Size() != 0 {
		t.Fatalf("artifact = %+v, want an empty artifact", snap.Artifact)
	}

	_, err := h.orch.Submit(context.Background())
	if !errors.Is(err, analysis.ErrNoTranscript) {
		t.Fatalf("Submit = %v, want ErrNoTranscript", err)
	}
	if h.backend.TranscribeCalls() != 1 || h.backend.ScoreCalls() != 0 {
		t.Errorf("calls: transcribe = %d, score = %d, want 1 and 0",
			h.backend.TranscribeCalls(), h.backend.ScoreCalls())
	}
	if h.orch.State() != interview.AwaitingRecording {
		t.Errorf("State = %v, want %v", h.orch.State(), interview.AwaitingRecording)
	}
}

func TestNewRecordingSupersedesInFlightAnalysis(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	arrived, release := h.backend.HoldTranscribe()
	defer release()

	h.record(t)
	type result struct {
		fb  *analysis.Feedback
		err error
	}
	done := make(chan result, 1)
	go func() {
		fb, err := h.orch.Submit(ctx)
		done <- result{fb, err}
	}()

	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("transcribe request never arrived")
	}
	if h.orch.State() != interview.Analyzing {
		t.Fatalf("State = %v, want %v", h.orch.State(), interview.Analyzing)
	}

	if err := h.orch.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording during analysis failed: %v", err)
	}
	release()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded Submit never returned")
	}
	if !errors.Is(res.err, interview.ErrSuperseded) {
		t.Fatalf("first Submit = %v, want ErrSuperseded", res.err)
	}

	snap := h.orch.Snapshot()
	if snap.State != interview.Recording {
		t.Errorf("State = %v, want %v (untouched by the late result)", snap.State, interview.Recording)
	}
	if len(snap.Session.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(snap.Session.Entries))
	}

	// The current generation still completes normally.
	if _, err := h.orch.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if _, err := h.orch.Submit(ctx); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if got := len(h.orch.Snapshot().Session.Entries); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
}

func TestDeviceDenialLeavesNoStream(t *testing.T) {
	h := newHarness(t)
	h.dev.Deny(errors.New("permission denied"))

	err := h.orch.StartRecording(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("StartRecording = %v, want ErrDeviceUnavailable", err)
	}

	snap := h.orch.Snapshot()
	if snap.State != interview.AwaitingRecording {
		t.Errorf("State = %v, want %v", snap.State, interview.AwaitingRecording)
	}
	if len(snap.Tracks) != 0 {
		t.Errorf("tracks = %v, want none", snap.Tracks)
	}
	if h.ctrl.Held() {
		t.Error("no stream should be held")
	}
	if !errors.Is(snap.Err, capture.ErrDeviceUnavailable) {
		t.Errorf("snapshot Err = %v, want the device failure", snap.Err)
	}

	h.dev.Allow()
	h.record(t)
}

func TestRestartFromAnyState(t *testing.T) {
	ctx := context.Background()
	setups := map[string]func(t *testing.T, h *harness){
		"awaiting recording": func(t *testing.T, h *harness) {},
		"recording": func(t *testing.T, h *harness) {
			if err := h.orch.StartRecording(ctx); err != nil {
				t.Fatalf("StartRecording failed: %v", err)
			}
		},
		"ready to submit": func(t *testing.T, h *harness) { h.record(t) },
		"feedback ready": func(t *testing.T, h *harness) {
			h.record(t)
			if _, err := h.orch.Submit(ctx); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
		},
		"second question": func(t *testing.T, h *harness) {
			h.record(t)
			if _, err := h.orch.Submit(ctx); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if err := h.orch.Advance(); err != nil {
				t.Fatalf("Advance failed: %v", err)
			}
		},
		"complete": func(t *testing.T, h *harness) {
			for i := 0; i < 3; i++ {
				h.record(t)
				if _, err := h.orch.Submit(ctx); err != nil {
					t.Fatalf("Submit failed: %v", err)
				}
				if err := h.orch.Advance(); err != nil {
					t.Fatalf("Advance failed: %v", err)
				}
			}
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			setup(t, h)
			before := h.orch.Snapshot().Session.ID

			h.orch.Restart()

			snap := h.orch.Snapshot()
			if snap.State != interview.AwaitingRecording {
				t.Errorf("State = %v, want %v", snap.State, interview.AwaitingRecording)
			}
			if snap.Session.Index != 0 || len(snap.Session.Entries) != 0 || snap.Session.Complete {
				t.Errorf("session not reset: index = %d, entries = %d, complete = %v",
					snap.Session.Index, len(snap.Session.Entries), snap.Session.Complete)
			}
			if len(snap.Session.Questions) != interview.DefaultQuestionCount {
				t.Errorf("questions = %d, want %d", len(snap.Session.Questions), interview.DefaultQuestionCount)
			}
			if snap.Artifact != nil {
				t.Error("artifact should be discarded")
			}
			if snap.Session.ID == before {
				t.Error("restart should start a new session id")
			}
			if h.dev.Opens() > 1 {
				t.Errorf("device opened %d times, want the stream reused", h.dev.Opens())
			}
		})
	}
}

func TestRestartDuringAnalysis(t *testing.T) {
	h := newHarness(t)
	arrived, release := h.backend.HoldTranscribe()
	defer release()

	h.record(t)
	done := make(chan error, 1)
	go func() {
		_, err := h.orch.Submit(context.Background())
		done <- err
	}()
	<-arrived

	h.orch.Restart()
	release()

	if err := <-done; !errors.Is(err, interview.ErrSuperseded) {
		t.Fatalf("Submit = %v, want ErrSuperseded", err)
	}
	snap := h.orch.Snapshot()
	if snap.State != interview.AwaitingRecording || len(snap.Session.Entries) != 0 {
		t.Errorf("state = %v, entries = %d after restart", snap.State, len(snap.Session.Entries))
	}
}

func TestStartRecordingRejectedWhileFeedbackShown(t *testing.T) {
	h := newHarness(t)
	h.record(t)
	if _, err := h.orch.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	err := h.orch.StartRecording(context.Background())
	if !errors.Is(err, interview.ErrInvalidTransition) {
		t.Errorf("StartRecording = %v, want ErrInvalidTransition", err)
	}
	if h.orch.State() != interview.FeedbackReady {
		t.Errorf("State = %v, want %v", h.orch.State(), interview.FeedbackReady)
	}
}

func TestDiscardRecording(t *testing.T) {
	h := newHarness(t)
	h.record(t)

	if err := h.orch.DiscardRecording(); err != nil {
		t.Fatalf("DiscardRecording failed: %v", err)
	}
	if h.orch.State() != interview.AwaitingRecording {
		t.Errorf("State = %v, want %v", h.orch.State(), interview.AwaitingRecording)
	}
	if _, err := h.orch.Submit(context.Background()); !errors.Is(err, interview.ErrInvalidTransition) {
		t.Errorf("Submit after discard = %v, want ErrInvalidTransition", err)
	}
}

func TestSpeakFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.orch.SpeakFeedback(ctx); !errors.Is(err, interview.ErrNoFeedback) {
		t.Errorf("SpeakFeedback before feedback = %v, want ErrNoFeedback", err)
	}

	h.record(t)
	if _, err := h.orch.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	first, err := h.orch.SpeakFeedback(ctx)
	if err != nil {
		t.Fatalf("SpeakFeedback failed: %v", err)
	}
	second, err := h.orch.SpeakFeedback(ctx)
	if err != nil {
		t.Fatalf("second SpeakFeedback failed: %v", err)
	}
	if _, err := os.Stat(first.Path()); !os.IsNotExist(err) {
		t.Error("previous audio should be released before a new request")
	}
	if _, err := os.Stat(second.Path()); err != nil {
		t.Errorf("current audio missing: %v", err)
	}

	h.backend.SetSynthesisStatus(http.StatusInternalServerError)
	if _, err := h.orch.SpeakFeedback(ctx); !errors.Is(err, speech.ErrSynthesis) {
		t.Errorf("SpeakFeedback = %v, want ErrSynthesis", err)
	}
	if h.orch.State() != interview.FeedbackReady {
		t.Errorf("State = %v, synthesis failure should not change it", h.orch.State())
	}
}

func TestCloseReleasesDevice(t *testing.T) {
	h := newHarness(t)
	h.record(t)

	if err := h.orch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h.ctrl.Held() {
		t.Error("stream should be released on Close")
	}
	for _, tr := range h.dev.Stream().Tracks() {
		if tr.Live() {
			t.Errorf("%s track still live", tr.Kind())
		}
	}
}

func TestEventsAreLogged(t *testing.T) {
	h := newHarness(t)
	h.record(t)
	if _, err := h.orch.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	events, err := h.events.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := []string{
		log.EventSessionStarted,
		log.EventRecordingStarted,
		log.EventRecordingStopped,
		log.EventAnalysisStarted,
		log.EventFeedbackReceived,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, e := range events {
		if e.Event != want[i] {
			t.Errorf("event %d = %q, want %q", i, e.Event, want[i])
		}
		if e.SessionID == "" {
			t.Errorf("event %d has no session id", i)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecorderDeviceFailureReleasesStream(t *testing.T) {
	h := newHarness(t)
	h.dev.FailRecording(fmt.Errorf("%w: Permission denied", capture.ErrDeviceUnavailable))

	if err := h.orch.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	waitFor(t, "awaiting recording", func() bool {
		return h.orch.State() == interview.AwaitingRecording
	})

	snap := h.orch.Snapshot()
	if !errors.Is(snap.Err, capture.ErrDeviceUnavailable) {
		t.Errorf("snapshot Err = %v, want the device failure", snap.Err)
	}
	if snap.Artifact != nil {
		t.Error("a failed take should leave no artifact")
	}
	if h.ctrl.Held() {
		t.Error("no stream should be held after the recorder failed")
	}
	if _, err := h.orch.StopRecording(context.Background()); !errors.Is(err, interview.ErrInvalidTransition) {
		t.Errorf("StopRecording = %v, want ErrInvalidTransition", err)
	}

	h.dev.FailRecording(nil)
	h.record(t)
}

func TestDeviceOpenDoesNotBlockSnapshot(t *testing.T) {
	h := newHarness(t)
	release := h.dev.Hold()
	defer release()

	started := make(chan error, 1)
	go func() { started <- h.orch.StartRecording(context.Background()) }()
	waitFor(t, "device open", func() bool { return h.dev.Waiting() == 1 })

	snapped := make(chan interview.State, 1)
	go func() { snapped <- h.orch.Snapshot().State }()
	select {
	case st := <-snapped:
		if st != interview.AwaitingRecording {
			t.Errorf("State while opening = %v, want %v", st, interview.AwaitingRecording)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while the device was opening")
	}

	h.orch.Restart()
	release()

	if err := <-started; !errors.Is(err, interview.ErrSuperseded) {
		t.Fatalf("StartRecording = %v, want ErrSuperseded", err)
	}
	if got := h.orch.State(); got != interview.AwaitingRecording {
		t.Errorf("State = %v, want %v", got, interview.AwaitingRecording)
	}
	h.record(t)
}
