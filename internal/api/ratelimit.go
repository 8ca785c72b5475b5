package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter applies a token bucket per authenticated caller. Requests
// without a caller fall back to the connection's remote address.
type rateLimiter struct {
	perSecond float64
	burst     int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		perSecond: perSecond,
		burst:     burst,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := clientID(r)
		if caller, ok := callerFrom(r.Context()); ok {
			id = "caller:" + string(caller)
		}
		if !l.allow(id) {
			writeJSONError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), 0)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *rateLimiter) allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	v, ok := l.visitors[id]
	if !ok {
		l.prune(now)
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.perSecond), l.burst)}
		l.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *rateLimiter) prune(now time.Time) {
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, id)
		}
	}
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
