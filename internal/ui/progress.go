// Package ui provides terminal output components for podium's
// non-interactive commands.
// This file implements the progress display shown while jobs such as
// conversions run concurrently.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// JobStatus represents the execution status of a single job.
type JobStatus int

const (
	StatusPending JobStatus = iota // Waiting for a worker
	StatusRunning                  // Currently running
	StatusDone                     // Finished successfully
	StatusFailed                   // Finished with an error
)

// JobState holds the display state of a single job.
type JobState struct {
	Name    string
	Status  JobStatus
	Elapsed time.Duration
	Err     error
}

// Progress manages a live-updating progress view. It is safe for use from
// multiple goroutines.
type Progress struct {
	mu          sync.Mutex
	out         io.Writer
	title       string
	jobs        []*JobState
	index       map[string]int
	started     bool
	isTTY       bool
	linesDrawn  int
	startTimes  map[string]time.Time
	lastPrinted map[string]JobStatus // non-TTY
}

// NewProgress creates a Progress writing to stdout.
func NewProgress(title string) *Progress {
	return NewProgressTo(os.Stdout, title, term.IsTerminal(int(os.Stdout.Fd())))
}

// NewProgressTo creates a Progress writing to out. tty selects in-place
// redraws instead of one line per transition.
func NewProgressTo(out io.Writer, title string, tty bool) *Progress {
	return &Progress{
		out:         out,
		title:       title,
		index:       make(map[string]int),
		startTimes:  make(map[string]time.Time),
		lastPrinted: make(map[string]JobStatus),
		isTTY:       tty,
	}
}

// Add registers a job. Names must be unique.
func (p *Progress) Add(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.index[name] = len(p.jobs)
	p.jobs = append(p.jobs, &JobState{Name: name})
}

// Start draws the initial display.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = true
	p.render()
}

// Update records a job's new status. err is kept for StatusFailed.
func (p *Progress) Update(name string, status JobStatus, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.index[name]
	if !ok {
		return
	}

	job := p.jobs[idx]
	job.Status = status
	job.Err = err

	switch status {
	case StatusRunning:
		p.startTimes[name] = time.Now()
	case StatusDone, StatusFailed:
		if start, ok := p.startTimes[name]; ok {
			job.Elapsed = time.Since(start)
		}
	}

	if p.started {
		p.render()
	}
}

// Finish prints a summary line and returns the number of failed jobs.
func (p *Progress) Finish() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY && p.linesDrawn > 0 {
		fmt.Fprint(p.out, "\n")
	}

	done, failed := 0, 0
	for _, j := range p.jobs {
		switch j.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		}
	}

	fmt.Fprintf(p.out, "Done: %d/%d completed", done, len(p.jobs))
	if failed > 0 {
		fmt.Fprintf(p.out, ", %d failed", failed)
	}
	fmt.Fprintln(p.out)
	return failed
}

func (p *Progress) render() {
	if !p.isTTY {
		p.renderPlain()
		return
	}
	p.renderTTY()
}

// renderTTY redraws every line in place using ANSI cursor movement.
func (p *Progress) renderTTY() {
	if p.linesDrawn > 0 {
		fmt.Fprintf(p.out, "\033[%dA", p.linesDrawn)
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("\033[2K\033[1m%s\033[0m\n", p.title))
	buf.WriteString("\033[2K\n")
	for _, job := range p.jobs {
		buf.WriteString("\033[2K")
		buf.WriteString(formatJobLine(job, p.startTimes))
		buf.WriteString("\n")
	}

	fmt.Fprint(p.out, buf.String())
	p.linesDrawn = len(p.jobs) + 2
}

// renderPlain prints only status transitions, for CI and pipes.
func (p *Progress) renderPlain() {
	for _, job := range p.jobs {
		if job.Status == StatusPending {
			continue
		}
		if prev, seen := p.lastPrinted[job.Name]; seen && prev == job.Status {
			continue
		}
		fmt.Fprintln(p.out, formatJobLinePlain(job))
		p.lastPrinted[job.Name] = job.Status
	}
}

func formatJobLine(job *JobState, startTimes map[string]time.Time) string {
	name := job.Name
	if len(name) > 45 {
		name = "..." + name[len(name)-42:]
	}
	return fmt.Sprintf("  %s %s  %s", statusIcon(job.Status), name, statusDetail(job, startTimes))
}

func formatJobLinePlain(job *JobState) string {
	var status string
	switch job.Status {
	case StatusPending:
		status = "PENDING"
	case StatusRunning:
		status = "RUNNING"
	case StatusDone:
		status = fmt.Sprintf("DONE [%s]", formatDuration(job.Elapsed))
	case StatusFailed:
		status = "FAILED"
		if job.Err != nil {
			status += ": " + job.Err.Error()
		}
	}
	return fmt.Sprintf("[%s] %s", status, job.Name)
}

func statusIcon(status JobStatus) string {
	switch status {
	case StatusDone:
		return "\033[32m✅\033[0m" // green checkmark
	case StatusRunning:
		return "\033[33m⏳\033[0m" // yellow hourglass
	case StatusFailed:
		return "\033[31m❌\033[0m" // red X
	default:
		return "\033[90m○\033[0m" // dim circle
	}
}

func statusDetail(job *JobState, startTimes map[string]time.Time) string {
	switch job.Status {
	case StatusDone:
		return fmt.Sprintf("\033[90m[%s]\033[0m", formatDuration(job.Elapsed))
	case StatusRunning:
		return fmt.Sprintf("\033[33m[%s]\033[0m", formatDuration(time.Since(startTimes[job.Name])))
	case StatusFailed:
		if job.Err != nil {
			return fmt.Sprintf("\033[31m[%s]\033[0m", job.Err)
		}
		return "\033[31m[failed]\033[0m"
	default:
		return "\033[90m[pending]\033[0m"
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
