package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress while checking many snapshots.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
}

// NewProgressReporter returns a bar on w when w is a terminal and a no-op
// reporter otherwise, so piped output stays clean.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if !IsTerminal(w) {
		return nopProgress{}
	}
	return NewSimpleProgress(w)
}

type nopProgress struct{}

func (nopProgress) Start(int64)  {}
func (nopProgress) Update(int64) {}
func (nopProgress) Finish()      {}

// SimpleProgress is a single-line text progress bar.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
}

// NewSimpleProgress creates a progress bar writing to w.
func NewSimpleProgress(w io.Writer) *SimpleProgress {
	return &SimpleProgress{writer: w}
}

// Start initializes the bar with the total number of snapshots.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()

	p.render()
}

// Update sets the number of snapshots checked so far.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

// Finish completes the bar and ends the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total) * 100
	barWidth := 40
	filled := int(float64(barWidth) * percent / 100)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rChecking: [%s] %.1f%% (%d/%d) %.1f snapshots/s",
		bar, percent, p.current, p.total, rate)
}
