// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	"github.com/holomush/authcore/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.RemoteAddr = remoteAddr
	return r
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5, Burst: 2, CleanupInterval: time.Minute},
		WithRateLimitMetrics(m))
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	for i := range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:1234"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5678"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too Many Requests"}`, rec.Body.String())
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimited.WithLabelValues("/auth/login")), 0)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	first := httptest.NewRecorder()
	h.ServeHTTP(first, requestFrom("10.0.0.1:1"))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, requestFrom("10.0.0.2:1"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_ForwardedHeadersAreIgnored(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
		r := requestFrom("10.0.0.1:1")
		r.Header.Set("X-Forwarded-For", spoofed)
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	now = now.Add(90 * time.Minute)
	rl.limiter("10.0.0.2")
	now = now.Add(time.Hour)

	rl.cleanup()

	assert.Equal(t, 1, rl.Len())
	rl.mu.Lock()
	_, kept := rl.limiters["10.0.0.2"]
	rl.mu.Unlock()
	assert.True(t, kept)
}

func TestRateLimiter_StopEndsSweep(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Millisecond})
	time.Sleep(5 * time.Millisecond)
	rl.Stop()
	rl.Stop()
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(5))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 10, retryAfterSeconds(0.1))
	assert.Equal(t, 1, retryAfterSeconds(rate.Inf))
	assert.Equal(t, 1, retryAfterSeconds(0))
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP(requestFrom("10.0.0.1:443")))
	assert.Equal(t, "::1", clientIP(requestFrom("[::1]:443")))
	assert.Equal(t, "pipe", clientIP(requestFrom("pipe")))
}
