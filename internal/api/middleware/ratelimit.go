package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/edvin/hostpanel/internal/api/response"
)

// RateLimitMessage is the plain-text body of a 429 response.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// visitor is one client's current window.
type visitor struct {
	start time.Time
	count int
}

// IPRateLimiter allows each client IP at most max requests per fixed
// window. A client's window opens with its first request and the count
// resets once the window has fully elapsed.
type IPRateLimiter struct {
	name   string
	max    int
	window time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(name string, max int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		name:     name,
		max:      max,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow counts one request for ip. When the request is over the limit it
// returns false along with the time left until the window resets.
func (l *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		l.sweep(now)
	}
	v, ok := l.visitors[ip]
	if !ok || now.Sub(v.start) >= l.window {
		v = &visitor{start: now}
		l.visitors[ip] = v
	}
	if v.count >= l.max {
		return false, v.start.Add(l.window).Sub(now)
	}
	v.count++
	return true, 0
}

// sweep forgets clients whose window has expired.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.start) >= l.window {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests over the limit with a plain-text 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(clientIP(r))
		if !ok {
			rateLimited.WithLabelValues(l.name).Inc()
			w.Header().Set("Retry-After", retryAfter(wait))
			response.WriteText(w, http.StatusTooManyRequests, RateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP uses RemoteAddr, which chi's RealIP middleware has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(wait time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(wait.Seconds()))))
}
