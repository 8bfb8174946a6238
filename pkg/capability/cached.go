package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"
)

// ResultStore persists encoded capability results. Implementations live in the
// cache subpackage.
type ResultStore interface {
	// Get returns the stored value and whether it was found and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached memoizes successful results of an inner Capabilities. Failures are not
// cached. Store errors are logged and the call falls through to the inner set.
type Cached struct {
	inner    Capabilities
	store    ResultStore
	ttl      time.Duration
	logger   *slog.Logger
	observer Observer
}

// NewCached wraps inner. A nil logger uses slog.Default().
func NewCached(inner Capabilities, store ResultStore, ttl time.Duration, logger *slog.Logger, observer Observer) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, store: store, ttl: ttl, logger: logger, observer: observer}
}

// DetectPeople implements Capabilities.
func (c *Cached) DetectPeople(ctx context.Context, img Image) (PeopleResult, error) {
	return cachedCall(ctx, c, OpDetectPeople, Key(OpDetectPeople, img.Data), func() (PeopleResult, error) {
		return c.inner.DetectPeople(ctx, img)
	})
}

// VerifyLockup implements Capabilities.
func (c *Cached) VerifyLockup(ctx context.Context, img Image, kind LockupKind) (LockupResult, error) {
	return cachedCall(ctx, c, OpVerifyLockup, Key(OpVerifyLockup, []byte(kind), img.Data), func() (LockupResult, error) {
		return c.inner.VerifyLockup(ctx, img, kind)
	})
}

// AnalyzePackshots implements Capabilities.
func (c *Cached) AnalyzePackshots(ctx context.Context, img Image) (PackshotResult, error) {
	return cachedCall(ctx, c, OpAnalyzePackshots, Key(OpAnalyzePackshots, img.Data), func() (PackshotResult, error) {
		return c.inner.AnalyzePackshots(ctx, img)
	})
}

// CheckEntailment implements Capabilities.
func (c *Cached) CheckEntailment(ctx context.Context, premise, hypothesis string) (EntailmentResult, error) {
	return cachedCall(ctx, c, OpCheckEntailment, Key(OpCheckEntailment, []byte(premise), []byte(hypothesis)), func() (EntailmentResult, error) {
		return c.inner.CheckEntailment(ctx, premise, hypothesis)
	})
}

// Key derives the cache key of an operation from its inputs.
func Key(op string, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(op))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write(p)
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil))
}

func cachedCall[T any](ctx context.Context, c *Cached, op, key string, fn func() (T, error)) (T, error) {
	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("capability cache read failed", "operation", op, "error", err)
	} else if ok {
		var res T
		if err := json.Unmarshal(data, &res); err == nil {
			c.observe(op, true)
			return res, nil
		}
	}
	c.observe(op, false)

	res, err := fn()
	if err != nil {
		return res, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("capability cache write failed", "operation", op, "error", err)
		}
	}
	return res, nil
}

func (c *Cached) observe(op string, hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(op, hit)
	}
}
