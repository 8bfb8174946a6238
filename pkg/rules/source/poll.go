package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"retailmedia-hq/guardrail/pkg/rules"
)

// Poller pulls a GitSource on an interval and reports catalogs from new
// commits.
type Poller struct {
	src      *GitSource
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	lastHead string
}

// NewPoller creates a poller. A non-positive interval uses one minute.
func NewPoller(src *GitSource, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		src:      src,
		interval: interval,
		logger:   logger,
		lastHead: src.Head(),
	}
}

// Run blocks until ctx is cancelled, calling onChange with the catalog of
// each newly pulled commit. Pull, parse and onChange errors are logged; the
// previous catalog stays in effect and the commit is retried on the next poll.
func (p *Poller) Run(ctx context.Context, onChange func(*rules.Catalog) error) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.Info("rule schema poller started",
		"source", p.src.Describe(),
		"interval", p.interval.String(),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("rule schema poller stopped")
			return nil
		case <-ticker.C:
			if err := p.Poll(ctx, onChange); err != nil {
				p.logger.Error("rule schema poll failed", "source", p.src.Describe(), "error", err)
			}
		}
	}
}

// Poll pulls once and calls onChange when HEAD moved.
func (p *Poller) Poll(ctx context.Context, onChange func(*rules.Catalog) error) error {
	catalog, err := p.src.Load(ctx)
	head := p.src.Head()
	if err != nil {
		return err
	}

	p.mu.Lock()
	changed := head != p.lastHead
	p.mu.Unlock()
	if !changed {
		return nil
	}

	p.logger.Info("rule schema commit detected",
		"from_sha", shortSHA(p.lastHead),
		"to_sha", shortSHA(head),
	)
	if err := onChange(catalog); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastHead = head
	p.mu.Unlock()
	return nil
}
