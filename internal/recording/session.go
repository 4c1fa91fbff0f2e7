// Package recording turns a held device stream into one finished artifact
// per take.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/capture"
)

// State of a recording Session.
type State int

const (
	Idle State = iota
	Recording
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrFinished         = errors.New("recording already finished")
	ErrNotStarted       = errors.New("recording not started")
)

// Session records exactly one take. It borrows the controller's stream and
// never closes it.
type Session struct {
	controller *capture.Controller
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	state    State
	sink     capture.Sink
	chunks   []capture.Chunk
	done     chan struct{}
	artifact *Artifact
	err      error
}

// NewSession creates an idle Session. A nil logger disables diagnostics.
func NewSession(controller *capture.Controller, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		controller: controller,
		logger:     logger,
		now:        time.Now,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires a stream if none is held and begins collecting chunks.
// Device failures wrap capture.ErrDeviceUnavailable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Recording:
		return ErrAlreadyRecording
	case Stopped:
		return ErrFinished
	}

	s.chunks = nil
	s.artifact = nil
	s.err = nil

	stream, err := s.controller.Acquire(ctx)
	if err != nil {
		return err
	}
	sink, err := stream.Record(ctx)
	if err != nil {
		return fmt.Errorf("open recorder: %w", err)
	}

	s.sink = sink
	s.done = make(chan struct{})
	s.state = Recording
	go s.collect(sink, s.done)

	s.logger.Debug("recording started")
	return nil
}

// Stop signals end of capture and returns without waiting. Finalization
// happens when the sink drains; use Wait for the artifact.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
		return ErrNotStarted
	case Stopped:
		return nil
	}

	s.state = Stopped
	if err := s.sink.Stop(); err != nil {
		return fmt.Errorf("stop recorder: %w", err)
	}
	return nil
}

// Wait blocks until the recording is finalized and returns the artifact.
// A recorder that failed yields its error and no artifact; device failures
// wrap capture.ErrDeviceUnavailable.
func (s *Session) Wait(ctx context.Context) (*Artifact, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil, ErrNotStarted
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact, s.err
}

func (s *Session) collect(sink capture.Sink, done chan struct{}) {
	for c := range sink.Chunks() {
		s.mu.Lock()
		s.chunks = append(s.chunks, c)
		s.mu.Unlock()
	}
	sinkErr := sink.Err()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sinkErr != nil {
		s.err = sinkErr
		s.chunks = nil
		s.state = Stopped
		close(done)
		s.logger.Warn("recorder failed", zap.Error(sinkErr))
		return
	}

	// Arrival order may differ from emission order.
	sort.SliceStable(s.chunks, func(i, j int) bool {
		return s.chunks[i].Seq < s.chunks[j].Seq
	})
	size := 0
	for _, c := range s.chunks {
		size += len(c.Data)
	}
	data := make([]byte, 0, size)
	for _, c := range s.chunks {
		data = append(data, c.Data...)
	}

	s.artifact = NewArtifact(data, s.now())
	s.chunks = nil
	s.state = Stopped
	close(done)

	s.logger.Debug("recording finalized",
		zap.String("artifact", s.artifact.Name),
		zap.Int("bytes", size),
	)
}
