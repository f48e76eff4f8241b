// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/holomush/authcore/internal/observability"
)

// RateLimiterConfig configures per-IP limiting.
type RateLimiterConfig struct {
	// Rate is the sustained number of requests per second.
	Rate rate.Limit
	// Burst is how many requests may arrive at once.
	Burst int
	// CleanupInterval is how often idle entries are dropped. An entry is
	// idle after two intervals without a request.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns one request per second with a burst of
// five, swept every five minutes.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            1,
		Burst:           5,
		CleanupInterval: 5 * time.Minute,
	}
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per client IP. It runs a background sweep
// until Stop is called.
type RateLimiter struct {
	cfg     RateLimiterConfig
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimitLogger sets the logger for rejected requests.
func WithRateLimitLogger(logger *slog.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// WithRateLimitMetrics counts rejected requests on m.
func WithRateLimitMetrics(m *observability.Metrics) RateLimiterOption {
	return func(rl *RateLimiter) { rl.metrics = m }
}

// NewRateLimiter creates a RateLimiter and starts its sweep.
func NewRateLimiter(cfg RateLimiterConfig, opts ...RateLimiterOption) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimiterConfig().CleanupInterval
	}
	rl := &RateLimiter{
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go rl.cleanupLoop()
	return rl
}

// Stop ends the background sweep and waits for it. It is safe to call more
// than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	<-rl.done
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.limiter(ip).Allow() {
				rl.logger.WarnContext(r.Context(), "rate limit exceeded", "ip", ip, "path", r.URL.Path)
				if rl.metrics != nil {
					rl.metrics.RateLimited.WithLabelValues(r.URL.Path).Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl.cfg.Rate)))
				writeJSON(w, http.StatusTooManyRequests, errorBody{
					Error: http.StatusText(http.StatusTooManyRequests),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = rl.now()
	return entry.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	defer close(rl.done)
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	idle := 2 * rl.cfg.CleanupInterval
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > idle {
			delete(rl.limiters, ip)
		}
	}
}

// clientIP returns the host part of RemoteAddr. Forwarding headers are not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 || limit == rate.Inf {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limit))))
}
