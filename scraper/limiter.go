package scraper

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter keeps one token bucket per host so the wiki and the
// marketplace each get their own request ceiling.
type hostLimiter struct {
	limit rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// newHostLimiter allows rps requests per second per host. rps <= 0 disables limiting.
func newHostLimiter(rps float64) *hostLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &hostLimiter{
		limit:    limit,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be contacted again or ctx is done.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	if h.limit == rate.Inf {
		return ctx.Err()
	}
	return h.limiterFor(host).Wait(ctx)
}

func (h *hostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, 1)
		h.limiters[host] = l
	}
	return l
}
