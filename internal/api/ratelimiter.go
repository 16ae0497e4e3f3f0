package api

import (
	"net"
	"net/http"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-client limiter table; it is reset when full.
const maxTrackedClients = 4096

type rateLimiter interface {
	Allow(r *http.Request) bool
}

// clientLimiter keeps one token bucket per remote host.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	clients *xsync.Map[string, *rate.Limiter]
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
		clients: xsync.NewMap[string, *rate.Limiter](),
	}
}

func (l *clientLimiter) Allow(r *http.Request) bool {
	if l == nil || l.clients == nil {
		return true
	}

	key := clientKey(r)
	limiter, ok := l.clients.Load(key)
	if !ok {
		if l.clients.Size() >= maxTrackedClients {
			l.clients.Clear()
		}
		limiter, _ = l.clients.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	}
	return limiter.Allow()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
