// Package ratelimit paces outbound page requests per host.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per host so a single publisher is never
// hit faster than perSecond, while different hosts proceed independently.
type HostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	perSecond rate.Limit
	waits     int
}

// NewHostLimiter returns a limiter allowing perSecond requests per host.
// A non-positive rate disables pacing.
func NewHostLimiter(perSecond float64) *HostLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &HostLimiter{
		limiters:  make(map[string]*rate.Limiter),
		perSecond: limit,
	}
}

// Wait blocks until a request to rawURL's host may proceed.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}

	limiter := h.forHost(u.Host)
	if limiter.Tokens() < 1 {
		slog.Debug("Waiting for host rate limit", "host", u.Host)
	}
	return limiter.Wait(ctx)
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.waits++
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(h.perSecond, 1)
		h.limiters[host] = limiter
	}
	return limiter
}

// GetStats returns current limiter statistics. An unpaced limiter reports
// a per_second of 0.
func (h *HostLimiter) GetStats() map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	perSecond := float64(h.perSecond)
	if h.perSecond == rate.Inf {
		perSecond = 0
	}
	return map[string]interface{}{
		"hosts":      len(h.limiters),
		"requests":   h.waits,
		"per_second": perSecond,
	}
}
