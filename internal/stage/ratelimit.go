package stage

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/httppipe"
	"github.com/menezmethod/mwpipe/pipe"
)

var rateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mwpipe",
	Name:      "ratelimit_rejections_total",
	Help:      "Total requests rejected by the rate limiter.",
})

// RateLimiter implements a per-key token bucket rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // maximum tokens
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the given refill rate and burst
// size. It starts a goroutine that evicts idle buckets until Close is called.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rps,
		burst:   burst,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(5*time.Minute, 10*time.Minute)
	return rl
}

// Limit returns the burst size, the maximum number of requests a key can
// make at once.
func (rl *RateLimiter) Limit() int {
	return rl.burst
}

// Close stops the background cleanup.
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}

// Allow checks whether the key has tokens available and consumes one if so.
// It returns the remaining token count and whether the request is allowed.
func (rl *RateLimiter) Allow(key string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	// Refill tokens based on elapsed time.
	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens = math.Min(float64(rl.burst), b.tokens+elapsed*rl.rate)
	b.lastSeen = now

	if b.tokens < 1 {
		return 0, false
	}

	b.tokens--
	return int(b.tokens), true
}

// evict removes buckets not seen since cutoff.
func (rl *RateLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) cleanup(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evict(rl.now().Add(-idle))
		}
	}
}

// RateLimit enforces per-key limits using the API key Auth stored in
// Params. Requests over the limit receive a 429 with rate limit headers.
// Requests without a key in Params pass through unlimited.
func RateLimit(rl *RateLimiter) httppipe.HandlerFunc {
	return func(ctx context.Context, r *http.Request, params pipe.Params, next httppipe.Next) (httppipe.Outcome, error) {
		key := params.String(KeyAPIKey)
		if key == "" {
			return next(ctx)
		}

		remaining, ok := rl.Allow(key)
		if !ok {
			rateLimitRejections.Inc()
			resp := httppipe.Error(apierror.RateLimited())
			resp.Header.Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit()))
			resp.Header.Set("X-RateLimit-Remaining", "0")
			resp.Header.Set("Retry-After", "1")
			return httppipe.Respond(resp), nil
		}

		out, err := next(ctx)
		if resp, ok := out.Response(); ok && resp != nil {
			if resp.Header == nil {
				resp.Header = http.Header{}
			}
			resp.Header.Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit()))
			resp.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		return out, err
	}
}
