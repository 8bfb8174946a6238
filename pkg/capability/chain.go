package capability

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultCallTimeout bounds each provider call in a Chain.
const DefaultCallTimeout = 10 * time.Second

// Chain tries providers in order and returns the first successful answer.
// Providers answering ErrUnsupported are skipped without being counted as
// failures.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCallTimeout sets the per-provider call timeout.
func WithCallTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the telemetry observer.
func WithObserver(o Observer) ChainOption {
	return func(c *Chain) {
		c.observer = o
	}
}

// NewChain creates a chain over providers, tried in the given order.
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: append([]Provider(nil), providers...),
		timeout:   DefaultCallTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// DetectPeople implements Capabilities.
func (c *Chain) DetectPeople(ctx context.Context, img Image) (PeopleResult, error) {
	return callChain(ctx, c, OpDetectPeople, func(ctx context.Context, p Provider) (PeopleResult, error) {
		return p.DetectPeople(ctx, img)
	})
}

// VerifyLockup implements Capabilities.
func (c *Chain) VerifyLockup(ctx context.Context, img Image, kind LockupKind) (LockupResult, error) {
	return callChain(ctx, c, OpVerifyLockup, func(ctx context.Context, p Provider) (LockupResult, error) {
		return p.VerifyLockup(ctx, img, kind)
	})
}

// AnalyzePackshots implements Capabilities.
func (c *Chain) AnalyzePackshots(ctx context.Context, img Image) (PackshotResult, error) {
	return callChain(ctx, c, OpAnalyzePackshots, func(ctx context.Context, p Provider) (PackshotResult, error) {
		return p.AnalyzePackshots(ctx, img)
	})
}

// CheckEntailment implements Capabilities.
func (c *Chain) CheckEntailment(ctx context.Context, premise, hypothesis string) (EntailmentResult, error) {
	return callChain(ctx, c, OpCheckEntailment, func(ctx context.Context, p Provider) (EntailmentResult, error) {
		return p.CheckEntailment(ctx, premise, hypothesis)
	})
}

func callChain[T any](ctx context.Context, c *Chain, op string, fn func(context.Context, Provider) (T, error)) (T, error) {
	var zero T
	var errs []error

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		res, err := fn(callCtx, p)
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()

		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if c.observer != nil {
			c.observer.ObserveCapabilityCall(p.Name(), op, err == nil, time.Since(start).Seconds())
		}
		if err == nil {
			return res, nil
		}
		if timedOut {
			err = &TimeoutError{Provider: p.Name(), Operation: op, Timeout: c.timeout}
		}

		c.logger.Warn("capability provider failed, trying next",
			"provider", p.Name(),
			"operation", op,
			"error", err,
		)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return zero, ErrUnavailable
	}
	return zero, errors.Join(append([]error{ErrUnavailable}, errs...)...)
}
