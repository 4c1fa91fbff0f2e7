package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrSynthesis is returned when the synthesis service rejects a report.
var ErrSynthesis = errors.New("speech synthesis failed")

// DefaultTimeout bounds a synthesis request.
const DefaultTimeout = 120 * time.Second

// Synthesizer converts report text into audio.
type Synthesizer struct {
	url    string
	http   *resty.Client
	logger *zap.Logger
}

// NewSynthesizer creates a Synthesizer posting to url. Audio is written to
// the system temp dir. A zero timeout uses DefaultTimeout.
func NewSynthesizer(url string, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		url:    url,
		http:   resty.New().SetTimeout(timeout),
		logger: logger,
	}
}

// Synthesize uploads report as form field "report" and stores the audio in
// a new Handle. Previous handles are not released.
func (s *Synthesizer) Synthesize(ctx context.Context, report string) (*Handle, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"report": report}).
		Post(s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", ErrSynthesis, resp.Status())
	}

	audio := resp.Body()
	if strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json") {
		// Failures come back as {"Error": "..."} with a 200 status.
		var body struct {
			Error string `json:"Error"`
		}
		if err := json.Unmarshal(audio, &body); err == nil && body.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrSynthesis, body.Error)
		}
		return nil, fmt.Errorf("%w: expected audio, got JSON", ErrSynthesis)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrSynthesis)
	}

	f, err := os.CreateTemp("", "podium-speech-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("close audio file: %w", err)
	}

	s.logger.Debug("synthesized report",
		zap.Int("chars", len(report)),
		zap.Int("bytes", len(audio)),
		zap.String("path", f.Name()),
	)
	return &Handle{path: f.Name(), size: len(audio)}, nil
}

// Handle is a transient local audio file.
type Handle struct {
	path string
	size int

	once sync.Once
	err  error
}

// Path returns the audio file location.
func (h *Handle) Path() string { return h.path }

// Size returns the audio length in bytes.
func (h *Handle) Size() int { return h.size }

// Release deletes the audio file. Safe to call more than once.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.err = fmt.Errorf("remove audio file: %w", err)
		}
	})
	return h.err
}
