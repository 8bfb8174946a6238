package httpcap

import (
	"context"
	"net/http"
	"time"
)

// StartHealthChecker polls Config.HealthURL until ctx is cancelled or the
// provider is closed. It does nothing when no health URL is configured.
func (p *Provider) StartHealthChecker(ctx context.Context) {
	if p.c.cfg.HealthURL == "" {
		return
	}
	p.c.healthCheckStarted = true
	go p.runHealthChecker(ctx)
}

func (p *Provider) runHealthChecker(ctx context.Context) {
	c := p.c
	defer close(c.healthCheckStopped)

	interval := c.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("health checker started", "provider", c.cfg.Name, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := p.HealthCheck(checkCtx)
			cancel()
			if err != nil {
				c.logger.Error("health check failed", "provider", c.cfg.Name, "error", err)
			}

			if h := c.snapshot(); !h.IsHealthy {
				ticker.Reset(calculateBackoff(h.ConsecutiveFailures, interval))
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

// HealthCheck performs one synchronous check against the health URL.
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.c.do(ctx, "health", http.MethodGet, p.c.cfg.HealthURL, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// calculateBackoff grows the polling interval with consecutive failures, up
// to ten times the base interval and never beyond five minutes.
func calculateBackoff(consecutiveFailures int, base time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return base
	}
	multiplier := 1 << min(consecutiveFailures, 4)
	if multiplier > 10 {
		multiplier = 10
	}
	backoff := base * time.Duration(multiplier)
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	return backoff
}
