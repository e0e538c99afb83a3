package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_CapPerWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter("auth", 5, 15*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("10.0.0.1")
		assert.True(t, ok, "request %d", i+1)
	}
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 15*time.Minute, wait)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "other clients have their own window")
}

func TestIPRateLimiter_NoRefillInsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l := NewIPRateLimiter("auth", 5, 15*time.Minute)
	l.now = func() time.Time { return now }

	allowed := 0
	for i := 0; i < 5; i++ {
		if ok, _ := l.Allow("10.0.0.1"); ok {
			allowed++
		}
	}
	for _, d := range []time.Duration{3 * time.Minute, 6 * time.Minute, 9 * time.Minute, 12 * time.Minute, 15*time.Minute - time.Second} {
		now = start.Add(d)
		if ok, _ := l.Allow("10.0.0.1"); ok {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)

	_, wait := l.Allow("10.0.0.1")
	assert.Equal(t, time.Second, wait)
}

func TestIPRateLimiter_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter("auth", 2, 15*time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	ok, _ := l.Allow("10.0.0.1")
	assert.False(t, ok)

	now = now.Add(15 * time.Minute)
	for i := 0; i < 2; i++ {
		ok, _ = l.Allow("10.0.0.1")
		assert.True(t, ok)
	}
	ok, _ = l.Allow("10.0.0.1")
	assert.False(t, ok)
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter("api", 100, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.3")

	assert.Len(t, l.visitors, 1)
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter("auth", 1, time.Hour)
	l.now = func() time.Time { return now }
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "192.0.2.1:5000"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	now = now.Add(20 * time.Minute)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, RateLimitMessage, w.Body.String())
	assert.Equal(t, "2400", w.Header().Get("Retry-After"))
}
