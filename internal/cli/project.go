// project.go opens the stores and clients every command shares.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/podium-dev/podium/internal/analysis"
	"github.com/podium-dev/podium/internal/capture"
	"github.com/podium-dev/podium/internal/config"
	"github.com/podium-dev/podium/internal/interview"
	"github.com/podium-dev/podium/internal/log"
	"github.com/podium-dev/podium/internal/session"
	"github.com/podium-dev/podium/internal/speech"
)

// project is an opened working directory.
type project struct {
	dir     string
	cfg     *config.Config
	logger  *zap.Logger
	events  *log.Logger
	history *session.Store
}

// openProject loads config and .env from the working directory and opens
// the diagnostic log, the event log and the history store.
func openProject() (*project, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return openProjectAt(dir)
}

func openProjectAt(dir string) (*project, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	logger, err := log.NewDiagnostic(dir, Verbose())
	if err != nil {
		return nil, fmt.Errorf("opening diagnostic log: %w", err)
	}

	events, err := log.NewLogger(dir)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	p := &project{dir: dir, cfg: cfg, logger: logger, events: events}

	history, err := session.NewStore(p.path(cfg.Storage.Database))
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening history: %w", err)
	}
	p.history = history

	logger.Debug("project opened", zap.String("dir", dir))
	return p, nil
}

// Close releases the history store and flushes the diagnostic log.
func (p *project) Close() error {
	err := p.history.Close()
	_ = p.logger.Sync()
	return err
}

// path resolves a configured path against the project directory.
func (p *project) path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

func (p *project) timeout() time.Duration {
	return time.Duration(p.cfg.HTTP.TimeoutSeconds) * time.Second
}

func (p *project) analysisClient() *analysis.Client {
	return analysis.NewClient(analysis.Config{
		TranscribeURL: p.cfg.Endpoints.Transcribe,
		ScoreURL:      p.cfg.Endpoints.Score,
		ReviewURL:     p.cfg.Endpoints.Review,
		Timeout:       p.timeout(),
	}, p.logger)
}

func (p *project) synthesizer() *speech.Synthesizer {
	return speech.NewSynthesizer(p.cfg.Endpoints.Synthesize, p.timeout(), p.logger)
}

// newOrchestrator wires the capture device, the analysis and speech
// clients and the stores into an interview. surface receives the live
// preview; it may be nil.
func (p *project) newOrchestrator(device capture.Device, surface capture.Surface) (*interview.Orchestrator, error) {
	if device == nil {
		device = capture.NewFFmpegDevice(p.cfg.Capture, p.logger)
	}
	ctrl := capture.NewController(device, p.logger)
	if surface != nil {
		ctrl.AttachPreview(surface)
	}

	opts := interview.Options{
		Controller: ctrl,
		Analyzer:   p.analysisClient(),
		Speaker:    p.synthesizer(),
		History:    p.history,
		Events:     p.events,
		Logger:     p.logger,
		Bank:       interview.Bank(p.cfg.Interview.Questions),
		Count:      p.cfg.Interview.QuestionCount,
	}
	if p.cfg.Storage.KeepRecording {
		opts.RecordingsDir = p.path(p.cfg.Storage.RecordingsDir)
	}

	o, err := interview.New(opts)
	if err != nil {
		return nil, errors.Join(err, ctrl.Release())
	}
	return o, nil
}
