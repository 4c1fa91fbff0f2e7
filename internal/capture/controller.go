package capture

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Controller owns at most one device stream. The camera/mic indicator is
// on exactly while Held reports true.
type Controller struct {
	device      Device
	constraints Constraints
	logger      *zap.Logger

	mu      sync.Mutex
	stream  Stream
	surface Surface
}

// NewController creates a Controller that requests combined audio and video
// from device. A nil logger disables diagnostics.
func NewController(device Device, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		device:      device,
		constraints: AudioVideo,
		logger:      logger,
	}
}

// Acquire returns the held stream, opening one if none is held.
// Platform failures are wrapped with ErrDeviceUnavailable and not retried.
func (c *Controller) Acquire(ctx context.Context) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return c.stream, nil
	}

	s, err := c.device.Open(ctx, c.constraints)
	if err != nil {
		c.logger.Warn("device acquisition failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	c.stream = s
	c.logger.Debug("device stream acquired", zap.Int("tracks", len(s.Tracks())))
	if c.surface != nil {
		c.surface.Attach(s)
	}
	return s, nil
}

// AttachPreview binds the held stream to surface. The surface is remembered
// so that a later Acquire attaches to it as well. No-op for a nil surface.
func (c *Controller) AttachPreview(surface Surface) {
	if surface == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.surface = surface
	if c.stream != nil {
		surface.Attach(c.stream)
	}
}

// Release stops every track, closes the stream and detaches the preview.
// Safe to call repeatedly and when nothing was acquired.
func (c *Controller) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	for _, t := range c.stream.Tracks() {
		t.Stop()
	}
	err := c.stream.Close()
	c.stream = nil

	if c.surface != nil {
		c.surface.Detach()
	}
	c.logger.Debug("device stream released")

	if err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

// Held reports whether a stream is currently held.
func (c *Controller) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Tracks returns the tracks of the held stream, or nil when none is held.
func (c *Controller) Tracks() []Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil
	}
	return c.stream.Tracks()
}
