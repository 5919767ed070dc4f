// internal/github/ratelimit.go
package github

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"showcase-sync/internal/model"
)

// RateLimitStore persists rate-limit snapshots between process runs.
type RateLimitStore interface {
	SaveRateLimit(ctx context.Context, rl model.RateLimit) error
	LoadRateLimit(ctx context.Context) (model.RateLimit, error)
}

// RateTracker keeps the most recent rate-limit snapshot. Updates arrive
// from concurrent responses; last write wins, which is acceptable since the
// snapshot is advisory.
type RateTracker struct {
	mu      sync.Mutex
	current model.RateLimit
	store   RateLimitStore
	logger  *slog.Logger
}

// NewRateTracker creates a tracker. The store may be nil, in which case
// snapshots are held in memory only.
func NewRateTracker(store RateLimitStore, logger *slog.Logger) *RateTracker {
	t := &RateTracker{store: store, logger: logger}
	if store != nil {
		if rl, err := store.LoadRateLimit(context.Background()); err == nil {
			t.current = rl
		}
	}
	return t
}

// Observe records a snapshot taken from a response and persists it.
func (t *RateTracker) Observe(ctx context.Context, rl model.RateLimit) {
	t.mu.Lock()
	t.current = rl
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveRateLimit(ctx, rl); err != nil {
			t.logger.Warn("Failed to persist rate limit state", "error", err)
		}
	}
}

// Current returns the last observed snapshot.
func (t *RateTracker) Current() model.RateLimit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// FetchRateLimit pulls a fresh quota from the API. On failure it falls back
// to the last observed snapshot.
func (c *Client) FetchRateLimit(ctx context.Context) model.RateLimit {
	limits, resp, err := c.gh.RateLimit.Get(ctx)
	c.trackRate(ctx, resp)
	if err != nil {
		c.logger.Warn("Failed to fetch rate limit, using last known state", "error", err)
		if c.rates != nil {
			return c.rates.Current()
		}
		return model.RateLimit{}
	}

	core := limits.GetCore()
	rl := model.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Used:      core.Limit - core.Remaining,
		ResetAt:   core.Reset.Time,
		UpdatedAt: time.Now(),
	}
	if c.rates != nil {
		c.rates.Observe(ctx, rl)
	}
	return rl
}
