package analysis

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/recording"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 120 * time.Second

// Config holds the analysis endpoints.
type Config struct {
	TranscribeURL string
	ScoreURL      string
	ReviewURL     string
	Timeout       time.Duration
}

// Client runs the transcribe and score stages against remote services.
// It performs no retries.
type Client struct {
	config Config
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a Client. A zero Timeout uses DefaultTimeout and a nil
// logger disables diagnostics.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: cfg,
		http:   resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

// Transcribe uploads the artifact as form field "video" and returns the
// transcript text.
func (c *Client) Transcribe(ctx context.Context, a *recording.Artifact) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("video", a.Name, bytes.NewReader(a.Data)).
		Post(c.config.TranscribeURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: %s", ErrTranscription, resp.Status())
	}

	text, err := decodeTranscript(resp.Body())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	c.logger.Debug("transcribed answer",
		zap.String("artifact", a.Name),
		zap.Int("bytes", len(a.Data)),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", resp.Time()),
	)
	return text, nil
}

// Score sends the transcript and question and decodes the feedback.
func (c *Client) Score(ctx context.Context, transcript, question string) (*Feedback, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"user_answer": transcript,
			"question":    question,
		}).
		Post(c.config.ScoreURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", ErrScoring, resp.Status())
	}

	fb, err := DecodeFeedback(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}

	c.logger.Debug("scored answer",
		zap.String("question", question),
		zap.String("score", fb.Score),
		zap.Duration("elapsed", resp.Time()),
	)
	return fb, nil
}

// Run transcribes the artifact and scores the transcript against question.
// An empty transcript returns ErrNoTranscript without contacting the
// scoring service.
func (c *Client) Run(ctx context.Context, a *recording.Artifact, question string) (*Feedback, error) {
	text, err := c.Transcribe(ctx, a)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTranscript
	}
	return c.Score(ctx, text, question)
}

// Review uploads a whole recording for a session-level assessment.
func (c *Client) Review(ctx context.Context, a *recording.Artifact) (*Review, error) {
	if c.config.ReviewURL == "" {
		return nil, fmt.Errorf("%w: no review endpoint configured", ErrReview)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("video", a.Name, bytes.NewReader(a.Data)).
		Post(c.config.ReviewURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReview, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", ErrReview, resp.Status())
	}

	r, err := DecodeReview(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReview, err)
	}
	return r, nil
}
