package capture_test

import (
	"context"
	"errors"
	"testing"

	"github.com/podium-dev/podium/internal/capture"
	"github.com/podium-dev/podium/internal/testutil"
)

func TestAcquireIsIdempotent(t *testing.T) {
	dev := testutil.NewFakeDevice()
	c := capture.NewController(dev, nil)

	first, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	second, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if first != second {
		t.Error("second Acquire should return the held stream")
	}
	if dev.Opens() != 1 {
		t.Errorf("Opens = %d, want 1", dev.Opens())
	}
	if len(c.Tracks()) != 2 {
		t.Errorf("Tracks = %d, want 2 (audio+video)", len(c.Tracks()))
	}
}

func TestAcquireDenied(t *testing.T) {
	dev := testutil.NewFakeDevice()
	dev.Deny(errors.New("permission denied"))
	c := capture.NewController(dev, nil)

	_, err := c.Acquire(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Acquire error = %v, want ErrDeviceUnavailable", err)
	}
	if c.Held() {
		t.Error("no stream should be held after denial")
	}
	if len(c.Tracks()) != 0 {
		t.Errorf("Tracks = %d, want 0", len(c.Tracks()))
	}
}

func TestReleaseStopsTracksAndDetaches(t *testing.T) {
	dev := testutil.NewFakeDevice()
	c := capture.NewController(dev, nil)
	surface := &testutil.FakeSurface{}
	c.AttachPreview(surface)

	if _, err := c.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !surface.Attached() {
		t.Fatal("surface should be attached after Acquire")
	}
	tracks := c.Tracks()

	if err := c.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	for _, tr := range tracks {
		if tr.Live() {
			t.Errorf("%s track still live after Release", tr.Kind())
		}
	}
	if surface.Attached() {
		t.Error("surface should be detached after Release")
	}
	if c.Held() {
		t.Error("Held should be false after Release")
	}
	if dev.Stream().Closes() != 1 {
		t.Errorf("stream Closes = %d, want 1", dev.Stream().Closes())
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	c := capture.NewController(testutil.NewFakeDevice(), nil)
	if err := c.Release(); err != nil {
		t.Fatalf("Release without Acquire failed: %v", err)
	}
	if err := c.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
}

func TestAttachPreviewWithoutStreamIsNoop(t *testing.T) {
	c := capture.NewController(testutil.NewFakeDevice(), nil)
	surface := &testutil.FakeSurface{}

	c.AttachPreview(surface)

	if surface.Attached() {
		t.Error("surface should not be attached when no stream is held")
	}
}
