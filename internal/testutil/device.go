package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/podium-dev/podium/internal/capture"
)

// FakeDevice is a scriptable capture.Device.
type FakeDevice struct {
	mu       sync.Mutex
	denyErr  error
	opens    int
	chunks   [][]byte
	reversed bool
	recErr   error
	gate     chan struct{}
	waiting  int
	stream   *FakeStream
}

// NewFakeDevice returns a device that grants audio+video and records
// nothing until Script is called.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{}
}

// Deny makes subsequent Open calls fail with err.
func (d *FakeDevice) Deny(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.denyErr = err
}

// Allow undoes Deny.
func (d *FakeDevice) Allow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.denyErr = nil
}

// Script sets the chunks every following recording emits.
func (d *FakeDevice) Script(chunks ...[]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chunks = chunks
}

// DeliverReversed makes sinks deliver chunks in reverse emission order.
func (d *FakeDevice) DeliverReversed(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reversed = v
}

// FailRecording makes following recorders exit at once with err, before
// emitting anything, as ffmpeg does when it cannot open the camera.
// A nil err restores normal recording.
func (d *FakeDevice) FailRecording(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recErr = err
}

// Hold makes Open block until the returned function is called.
func (d *FakeDevice) Hold() (release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gate := make(chan struct{})
	d.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Waiting reports how many Open calls are blocked by Hold.
func (d *FakeDevice) Waiting() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}

// Opens reports how many streams were opened.
func (d *FakeDevice) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Stream returns the most recently opened stream.
func (d *FakeDevice) Stream() *FakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream
}

// Open implements capture.Device.
func (d *FakeDevice) Open(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	gate := d.gate
	if gate != nil {
		d.waiting++
	}
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		d.mu.Lock()
		d.waiting--
		d.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.denyErr != nil {
		return nil, d.denyErr
	}

	d.opens++
	s := &FakeStream{device: d}
	if c.Video {
		s.tracks = append(s.tracks, newFakeTrack(capture.KindVideo))
	}
	if c.Audio {
		s.tracks = append(s.tracks, newFakeTrack(capture.KindAudio))
	}
	d.stream = s
	return s, nil
}

func (d *FakeDevice) script() ([][]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.chunks))
	copy(out, d.chunks)
	return out, d.reversed, d.recErr
}

// FakeTrack is a capture.Track that records whether it was stopped.
type FakeTrack struct {
	kind string
	mu   sync.Mutex
	live bool
}

func newFakeTrack(kind string) *FakeTrack {
	return &FakeTrack{kind: kind, live: true}
}

func (t *FakeTrack) Kind() string { return t.kind }

func (t *FakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = false
}

func (t *FakeTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// FakeStream is the capture.Stream handed out by FakeDevice.
type FakeStream struct {
	device *FakeDevice
	tracks []capture.Track

	mu      sync.Mutex
	closes  int
	records int
}

func (s *FakeStream) Tracks() []capture.Track {
	out := make([]capture.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Record returns a sink that emits the device's scripted chunks on Stop.
func (s *FakeStream) Record(ctx context.Context) (capture.Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return nil, errors.New("stream closed")
	}
	s.records++

	chunks, reversed, recErr := s.device.script()
	if recErr != nil {
		k := &FakeSink{err: recErr, out: make(chan capture.Chunk)}
		k.once.Do(func() { close(k.out) })
		return k, nil
	}
	return &FakeSink{
		chunks:   chunks,
		reversed: reversed,
		out:      make(chan capture.Chunk, len(chunks)),
	}, nil
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Closes reports how many times Close was called.
func (s *FakeStream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Records reports how many sinks were opened.
func (s *FakeStream) Records() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// FakeSink emits its chunks asynchronously once stopped.
type FakeSink struct {
	chunks   [][]byte
	reversed bool
	err      error
	out      chan capture.Chunk
	once     sync.Once
}

func (k *FakeSink) Chunks() <-chan capture.Chunk { return k.out }

func (k *FakeSink) Err() error { return k.err }

func (k *FakeSink) Stop() error {
	k.once.Do(func() {
		go func() {
			defer close(k.out)
			n := len(k.chunks)
			for i := 0; i < n; i++ {
				seq := i
				if k.reversed {
					seq = n - 1 - i
				}
				k.out <- capture.Chunk{Seq: seq, Data: k.chunks[seq]}
			}
		}()
	})
	return nil
}

// FakeSurface is a capture.Surface that remembers whether a stream is bound.
type FakeSurface struct {
	mu     sync.Mutex
	stream capture.Stream
}

func (f *FakeSurface) Attach(s capture.Stream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stream = s
}

func (f *FakeSurface) Detach() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stream = nil
}

// Attached reports whether a stream is bound.
func (f *FakeSurface) Attached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream != nil
}
