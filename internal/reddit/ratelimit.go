package reddit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter applies a per-host request budget so that switching
// between the oauth and public endpoints tracks each host's limit
// independently.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newHostLimiter(requestsPerSecond float64, burst int) *hostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// wait blocks until the host's limiter admits one request or the
// context is cancelled.
func (l *hostLimiter) wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	l.mu.Lock()
	limiter, ok := l.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[parsed.Host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
