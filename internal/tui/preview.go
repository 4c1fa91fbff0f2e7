package tui

import (
	"strings"
	"sync"

	"github.com/podium-dev/podium/internal/capture"
)

// Preview is the terminal stand-in for a live video element. It shows
// whether a stream is attached and which tracks are still live.
type Preview struct {
	mu     sync.Mutex
	stream capture.Stream
}

// NewPreview returns a detached preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Attach implements capture.Surface.
func (p *Preview) Attach(s capture.Stream) {
	p.mu.Lock()
	p.stream = s
	p.mu.Unlock()
}

// Detach implements capture.Surface.
func (p *Preview) Detach() {
	p.mu.Lock()
	p.stream = nil
	p.mu.Unlock()
}

// Live reports whether a stream is attached.
func (p *Preview) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil
}

// Render draws the indicator line, e.g. "● live  video audio".
func (p *Preview) Render() string {
	p.mu.Lock()
	s := p.stream
	p.mu.Unlock()

	if s == nil {
		return IdleDot + DimStyle.Render(" camera off")
	}

	var kinds []string
	for _, t := range s.Tracks() {
		if t.Live() {
			kinds = append(kinds, t.Kind())
		}
	}
	if len(kinds) == 0 {
		return IdleDot + DimStyle.Render(" no live tracks")
	}
	return LiveDot + " live  " + DimStyle.Render(strings.Join(kinds, " "))
}
