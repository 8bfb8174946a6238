package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes expired entries from a store on a cron schedule.
type Pruner struct {
	store    Store
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	onPrune func(deleted int64)
}

// NewPruner creates a pruner. schedule is a standard five-field cron
// expression such as "*/15 * * * *"; an empty schedule disables pruning.
func NewPruner(store Store, schedule string, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "capability.cache.pruner"),
	}
}

// Start schedules pruning until ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping")
		return nil
	}
	if p.running {
		return fmt.Errorf("pruner already running")
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("cache pruner started", "schedule", p.schedule)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// RunOnce prunes immediately and returns the number of deleted entries.
func (p *Pruner) RunOnce(ctx context.Context) int64 {
	deleted, err := p.store.Prune(ctx)
	if err != nil {
		p.logger.Error("cache pruning failed", "error", err)
		return 0
	}
	if p.onPrune != nil {
		p.onPrune(deleted)
	}
	if deleted > 0 {
		p.logger.Info("cache pruning completed", "deleted_count", deleted)
	} else {
		p.logger.Debug("cache pruning completed, nothing expired")
	}
	return deleted
}

// OnPrune registers fn to receive the count of every successful prune. It
// must be called before Start.
func (p *Pruner) OnPrune(fn func(deleted int64)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPrune = fn
}

// Stop stops the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("cache pruner stopped")
}

// NextRun returns the next scheduled prune, if any.
func (p *Pruner) NextRun() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}
