package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/config"
	"github.com/podium-dev/podium/internal/ffmpeg"
)

// Default timings. A recorder gets stopGrace to flush after "q" before it
// is killed; a device preflight gets preflightTimeout to open the inputs.
const (
	stopGrace        = 5 * time.Second
	preflightTimeout = 10 * time.Second
)

// FFmpegDevice captures the camera and microphone through the ffmpeg binary.
// Zero fields fall back to defaults; a nil Logger discards diagnostics.
type FFmpegDevice struct {
	Bin        string
	Video      ffmpeg.Input
	Audio      ffmpeg.Input
	ChunkBytes int
	StopGrace  time.Duration
	Logger     *zap.Logger
}

// NewFFmpegDevice builds a device from the capture section of the config.
func NewFFmpegDevice(cfg config.CaptureConfig, logger *zap.Logger) *FFmpegDevice {
	return &FFmpegDevice{
		Bin:        cfg.FFmpeg,
		Video:      ffmpeg.Input{Format: cfg.VideoFormat, Device: cfg.VideoDevice},
		Audio:      ffmpeg.Input{Format: cfg.AudioFormat, Device: cfg.AudioDevice},
		ChunkBytes: cfg.ChunkBytes,
		Logger:     logger,
	}
}

// Open checks the configured devices with a short ffmpeg run and returns a
// stream carrying the requested tracks. No recorder runs until Record.
func (d *FFmpegDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Audio && !c.Video {
		return nil, errors.New("no tracks requested")
	}

	bin := d.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	s := &ffmpegStream{
		bin:        bin,
		chunkBytes: d.ChunkBytes,
		grace:      d.StopGrace,
		logger:     d.Logger,
	}
	if s.chunkBytes <= 0 {
		s.chunkBytes = 32 * 1024
	}
	if s.grace <= 0 {
		s.grace = stopGrace
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if c.Video {
		if err := checkNode(d.Video.Device); err != nil {
			return nil, fmt.Errorf("video device: %w", err)
		}
		s.inputs = append(s.inputs, d.Video)
		s.tracks = append(s.tracks, newTrack(KindVideo))
	}
	if c.Audio {
		// Some platforms mux audio into the video input.
		if d.Audio.Device != "" {
			if err := checkNode(d.Audio.Device); err != nil {
				return nil, fmt.Errorf("audio device: %w", err)
			}
			s.inputs = append(s.inputs, d.Audio)
		}
		s.tracks = append(s.tracks, newTrack(KindAudio))
	}

	if err := preflight(ctx, bin, s.inputs); err != nil {
		return nil, err
	}
	return s, nil
}

// checkNode verifies device paths under /dev. Other specs (avfoundation
// indexes, ALSA names) are left to the preflight.
func checkNode(device string) error {
	if !strings.HasPrefix(device, "/dev/") {
		return nil
	}
	if _, err := os.Stat(device); err != nil {
		return err
	}
	return nil
}

// preflight opens the inputs for a fraction of a second. Permission prompts and
// busy or missing devices show up here rather than mid-take.
func preflight(ctx context.Context, bin string, inputs []ffmpeg.Input) error {
	configured := false
	for _, in := range inputs {
		if in.Device != "" {
			configured = true
		}
	}
	if !configured {
		return errors.New("no capture device configured")
	}

	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, ffmpeg.PreflightArgs(inputs...)...).CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("checking devices: %w", ctx.Err())
	}
	return withDetail(fmt.Errorf("checking devices: %w", err), string(out))
}

// withDetail appends the last line ffmpeg printed, which names the failure.
func withDetail(err error, output string) error {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, last)
}

type ffmpegTrack struct {
	kind string
	live atomic.Bool
}

func newTrack(kind string) *ffmpegTrack {
	t := &ffmpegTrack{kind: kind}
	t.live.Store(true)
	return t
}

func (t *ffmpegTrack) Kind() string { return t.kind }
func (t *ffmpegTrack) Stop()        { t.live.Store(false) }
func (t *ffmpegTrack) Live() bool   { return t.live.Load() }

type ffmpegStream struct {
	bin        string
	inputs     []ffmpeg.Input
	tracks     []Track
	chunkBytes int
	grace      time.Duration
	logger     *zap.Logger

	mu     sync.Mutex
	active *ffmpegSink
	closed bool
}

func (s *ffmpegStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Record starts an ffmpeg process encoding the stream to WebM.
// The process outlives ctx; it ends on Sink.Stop or Close.
func (s *ffmpegStream) Record(ctx context.Context) (Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("stream closed")
	}
	if s.active != nil && !s.active.finished() {
		return nil, errors.New("stream already recording")
	}

	cmd := exec.Command(s.bin, ffmpeg.CaptureArgs(s.inputs...)...)
	cmd.WaitDelay = s.grace
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	sink := &ffmpegSink{
		cmd:    cmd,
		stdin:  stdin,
		chunks: make(chan Chunk, 16),
		done:   make(chan struct{}),
		grace:  s.grace,
	}
	s.active = sink

	go sink.pump(stdout, s.chunkBytes, &stderr, s.logger)

	s.logger.Debug("ffmpeg recorder started", zap.Int("pid", cmd.Process.Pid))
	return sink, nil
}

func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, t := range s.tracks {
		t.Stop()
	}
	if s.active != nil && !s.active.finished() {
		return s.active.kill()
	}
	return nil
}

type ffmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	chunks chan Chunk
	done   chan struct{}
	grace  time.Duration

	stopped  atomic.Bool
	stopOnce sync.Once
	err      error
}

func (k *ffmpegSink) Chunks() <-chan Chunk { return k.chunks }

// Err waits for the recorder to exit and reports how it ended.
func (k *ffmpegSink) Err() error {
	<-k.done
	return k.err
}

// Stop asks ffmpeg to finish the file. The chunk channel closes once the
// process has flushed and exited.
func (k *ffmpegSink) Stop() error {
	var err error
	k.stopOnce.Do(func() {
		k.stopped.Store(true)
		_, werr := io.WriteString(k.stdin, "q")
		_ = k.stdin.Close()
		if werr != nil && !k.finished() {
			// stdin is gone but the process is not; end it the hard way.
			err = k.kill()
			return
		}
		go func() {
			select {
			case <-k.done:
			case <-time.After(k.grace):
				_ = k.kill()
			}
		}()
	})
	return err
}

func (k *ffmpegSink) finished() bool {
	select {
	case <-k.done:
		return true
	default:
		return false
	}
}

func (k *ffmpegSink) kill() error {
	if k.cmd.Process == nil {
		return nil
	}
	if err := k.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill ffmpeg: %w", err)
	}
	return nil
}

func (k *ffmpegSink) pump(r io.Reader, size int, stderr *strings.Builder, logger *zap.Logger) {
	seq := 0
	var readErr error
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			k.chunks <- Chunk{Seq: seq, Data: buf[:n]}
			seq++
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				readErr = err
				_ = k.kill()
			}
			break
		}
	}

	waitErr := k.cmd.Wait()
	k.err = k.outcome(seq, readErr, waitErr, stderr.String(), logger)
	close(k.chunks)
	close(k.done)
}

// outcome decides what a finished recorder means for the take. A recorder
// that produced nothing could not use the devices; one that was killed after
// Stop still leaves a usable file.
func (k *ffmpegSink) outcome(chunks int, readErr, waitErr error, stderr string, logger *zap.Logger) error {
	switch {
	case readErr != nil:
		return fmt.Errorf("reading recorder output: %w", readErr)
	case waitErr == nil:
		logger.Debug("ffmpeg recorder finished", zap.Int("chunks", chunks))
		return nil
	case chunks == 0:
		return withDetail(fmt.Errorf("%w: recorder exited: %w", ErrDeviceUnavailable, waitErr), stderr)
	case k.stopped.Load():
		logger.Warn("ffmpeg recorder did not exit cleanly",
			zap.Error(waitErr),
			zap.String("stderr", strings.TrimSpace(stderr)),
			zap.Int("chunks", chunks),
		)
		return nil
	default:
		return withDetail(fmt.Errorf("recorder exited: %w", waitErr), stderr)
	}
}
