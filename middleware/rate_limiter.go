package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type endpointLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitTransport bounds the outbound request rate per endpoint, so a
// burst of searches cannot starve accept/cancel calls. Requests wait for
// a token rather than failing; the context deadline still applies while
// waiting.
type RateLimitTransport struct {
	Next  http.RoundTripper
	Rate  rate.Limit
	Burst int

	mu       sync.Mutex
	limiters map[string]*endpointLimiter
	cleanup  sync.Once
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.cleanup.Do(func() { go t.cleanupLimiters() })

	limiter := t.getLimiter(routeLabel(req.URL.Path))
	if err := limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next().RoundTrip(req)
}

func (t *RateLimitTransport) getLimiter(endpoint string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limiters == nil {
		t.limiters = make(map[string]*endpointLimiter)
	}

	v, exists := t.limiters[endpoint]
	if !exists {
		r := t.Rate
		if r == 0 {
			r = 5
		}
		burst := t.Burst
		if burst == 0 {
			burst = 10
		}
		limiter := rate.NewLimiter(r, burst)
		t.limiters[endpoint] = &endpointLimiter{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (t *RateLimitTransport) cleanupLimiters() {
	for {
		time.Sleep(time.Minute)
		t.mu.Lock()
		for endpoint, v := range t.limiters {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(t.limiters, endpoint)
			}
		}
		t.mu.Unlock()
	}
}

func (t *RateLimitTransport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}
