package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig holds write rate limiting configuration.
type RateLimitConfig struct {
	MaxWrites int           // Maximum writes per window (default: 120)
	Window    time.Duration // Sliding window length (default: 1 minute)
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
// Two instances ticking every 500ms stay well under it.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxWrites: 120,
		Window:    time.Minute,
	}
}

// rateLimiter implements a per-IP sliding window rate limiter.
type rateLimiter struct {
	mu     sync.Mutex
	config RateLimitConfig
	now    func() time.Time

	// writes tracks timestamps of accepted writes per IP
	writes map[string][]time.Time
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.MaxWrites <= 0 {
		config.MaxWrites = defaults.MaxWrites
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}

	return &rateLimiter{
		config: config,
		now:    time.Now,
		writes: make(map[string][]time.Time),
	}
}

// checkResult represents the result of a rate limit check.
type checkResult struct {
	Allowed    bool
	RetryAfter time.Duration // How long until the client can retry
	Count      int           // Writes in the window, including this one if allowed
}

// check records a write for ip if it is within the limit.
func (rl *rateLimiter) check(ip string) checkResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := prune(rl.writes[ip], now.Add(-rl.config.Window))
	rl.writes[ip] = recent

	if len(recent) >= rl.config.MaxWrites {
		// The oldest write in the window is the next to expire
		retryAfter := recent[0].Add(rl.config.Window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return checkResult{
			Allowed:    false,
			RetryAfter: retryAfter,
			Count:      len(recent),
		}
	}

	rl.writes[ip] = append(recent, now)
	return checkResult{Allowed: true, Count: len(recent) + 1}
}

// cleanup removes IPs with no writes inside the window.
// Should be called periodically.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.config.Window)
	for ip, timestamps := range rl.writes {
		if recent := prune(timestamps, windowStart); len(recent) == 0 {
			delete(rl.writes, ip)
		} else {
			rl.writes[ip] = recent
		}
	}
}

// tracked returns the number of IPs with state.
func (rl *rateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.writes)
}

// prune drops timestamps at or before windowStart. Timestamps are in
// ascending order.
func prune(timestamps []time.Time, windowStart time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && !timestamps[i].After(windowStart) {
		i++
	}
	return timestamps[i:]
}

// extractIP extracts the client IP from the request.
// It checks X-Forwarded-For and X-Real-IP headers first (for reverse proxy scenarios),
// then falls back to the remote address.
func extractIP(r *http.Request) string {
	// X-Forwarded-For can be "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
