// Package capture acquires and holds the camera/microphone stream used for
// recording answers.
package capture

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when the platform denies or lacks the
// requested camera or microphone.
var ErrDeviceUnavailable = errors.New("camera or microphone unavailable")

// Track kinds.
const (
	KindAudio = "audio"
	KindVideo = "video"
)

// Constraints selects which devices a Stream must carry.
type Constraints struct {
	Audio bool
	Video bool
}

// AudioVideo is the combined request used for interview answers.
var AudioVideo = Constraints{Audio: true, Video: true}

// Track is one live device feed within a Stream.
type Track interface {
	Kind() string
	Stop()
	Live() bool
}

// Chunk is one encoded media slice. Seq is the order in which the platform
// emitted it, starting at 0.
type Chunk struct {
	Seq  int
	Data []byte
}

// Sink receives encoded chunks for one recording.
type Sink interface {
	// Chunks is closed once the recording has been finalized.
	Chunks() <-chan Chunk
	// Stop signals end of capture and returns without waiting for
	// finalization.
	Stop() error
	// Err reports why the recorder failed. Valid once Chunks is closed;
	// nil for a take that finished normally.
	Err() error
}

// Stream is a held device stream.
type Stream interface {
	Tracks() []Track
	Record(ctx context.Context) (Sink, error)
	Close() error
}

// Device opens streams from the platform.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Surface displays a live preview of a stream.
type Surface interface {
	Attach(s Stream)
	Detach()
}
