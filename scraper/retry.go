package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
)

type retryManager struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
	metrics    *Metrics

	mu           sync.Mutex
	totalRetries int
}

func newRetryManager(cfg *config.Config, metrics *Metrics) *retryManager {
	return &retryManager{
		maxRetries: cfg.MaxRetries,
		base:       cfg.RetryBackoff,
		max:        cfg.RetryBackoffMax,
		metrics:    metrics,
	}
}

// Allow reports whether another attempt may follow the given zero-based attempt.
func (rm *retryManager) Allow(attempt int) bool {
	return attempt < rm.maxRetries
}

// Wait sleeps for the backoff of the given one-based retry, counting it.
func (rm *retryManager) Wait(ctx context.Context, retry int) error {
	rm.mu.Lock()
	rm.totalRetries++
	rm.mu.Unlock()
	rm.metrics.IncRetries()

	timer := time.NewTimer(rm.backoff(retry))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (rm *retryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rm.base
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if rm.max > 0 && delay > rm.max {
		delay = rm.max
	}
	return delay
}

func (rm *retryManager) TotalRetries() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.totalRetries
}
