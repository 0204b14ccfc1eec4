package urlcheck

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostPacer spaces consecutive requests to the same host, independent
// of the worker pool width, so probes never concentrate load on one
// origin. Each host gets its own rate limiter with a burst of one.
type hostPacer struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

func newHostPacer(interval time.Duration) *hostPacer {
	return &hostPacer{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host's minimum inter-request interval has
// elapsed or the context ends.
func (p *hostPacer) Wait(ctx context.Context, host string) error {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(p.interval), 1)
		p.limiters[host] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}
