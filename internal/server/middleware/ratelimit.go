package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/server/cache"
	"github.com/agentstation/modelcast/internal/server/response"
)

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	counters *cache.Cache
	limit    int
	window   time.Duration
	logger   *zerolog.Logger
}

// NewRateLimiter allows limit requests per minute per client IP.
func NewRateLimiter(limit int, logger *zerolog.Logger) *RateLimiter {
	return NewRateLimiterWindow(limit, time.Minute, logger)
}

// NewRateLimiterWindow allows limit requests per window per client IP.
func NewRateLimiterWindow(limit int, window time.Duration, logger *zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counters: cache.New(window, 2*window),
		limit:    limit,
		window:   window,
		logger:   logger,
	}
}

// allow counts one request from ip and reports whether it is within the limit.
func (rl *RateLimiter) allow(ip string) bool {
	return rl.counters.Increment(ip, rl.window) <= rl.limit
}

// clientIP returns the first X-Forwarded-For entry or the remote host.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects requests over the limit with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !rl.allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(rl.window.Seconds()))))
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
