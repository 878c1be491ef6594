package spacetraveling

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter rate-limits requests per IP address with a token bucket each.
type IPLimiter struct {
	mu      sync.Mutex
	entries map[string]*ipEntry
	rate    rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewIPLimiter creates an IPLimiter allowing perSecond requests with the given
// burst. Buckets unused for idle are dropped.
func NewIPLimiter(perSecond float64, burst int, idle time.Duration) *IPLimiter {
	l := &IPLimiter{
		entries: make(map[string]*ipEntry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(time.Now().Add(-l.idle))
		case <-l.stop:
			return
		}
	}
}

func (l *IPLimiter) sweep(cutoff time.Time) {
	l.mu.Lock()
	for ip, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, ip)
		}
	}
	l.mu.Unlock()
}

// Allow reports whether ip may make another request now and spends a token if so.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	e, ok := l.entries[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *IPLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				retryAfter := max(int(1.0/float64(l.rate)), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
