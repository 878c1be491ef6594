package spacetraveling

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestIPLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewIPLimiter(0.001, 2, time.Minute)
	defer limiter.Close()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestIPLimiterRefills(t *testing.T) {
	limiter := NewIPLimiter(20, 1, time.Minute)
	defer limiter.Close()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(100 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestIPLimiterIsPerIP(t *testing.T) {
	limiter := NewIPLimiter(0.001, 1, time.Minute)
	defer limiter.Close()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after burst")
	}
}

func TestIPLimiterSweepDropsIdle(t *testing.T) {
	limiter := NewIPLimiter(0.001, 1, time.Minute)
	defer limiter.Close()

	limiter.Allow("203.0.113.40")
	limiter.sweep(time.Now().Add(time.Second))

	limiter.mu.Lock()
	n := len(limiter.entries)
	limiter.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle entry to be swept, got %d", n)
	}
	if !limiter.Allow("203.0.113.40") {
		t.Fatalf("expected a fresh bucket after sweep")
	}
}

func TestIPLimiterMiddleware(t *testing.T) {
	limiter := NewIPLimiter(0.001, 1, time.Minute)
	defer limiter.Close()

	e := echo.New()
	e.POST("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, limiter.Middleware())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}
