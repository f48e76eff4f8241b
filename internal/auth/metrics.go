// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records authentication outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Operations       *prometheus.CounterVec
	EnumerationDelay prometheus.Histogram
	TokensIssued     prometheus.Counter
	TokensRefreshed  prometheus.Counter
	TokensRevoked    prometheus.Counter
}

// NewMetrics creates and registers the auth collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authcore_auth_operations_total",
				Help: "Total number of auth operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		EnumerationDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authcore_enumeration_delay_seconds",
			Help:    "Time spent in the anti-enumeration delay before an identity failure",
			Buckets: []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 6},
		}),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_tokens_issued_total",
			Help: "Total number of token pairs issued",
		}),
		TokensRefreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_tokens_refreshed_total",
			Help: "Total number of access tokens rotated by refresh",
		}),
		TokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_tokens_revoked_total",
			Help: "Total number of sessions revoked by logout",
		}),
	}

	reg.MustRegister(m.Operations, m.EnumerationDelay, m.TokensIssued, m.TokensRefreshed, m.TokensRevoked)
	return m
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = PublicCode(err)
		if result == "" {
			result = "error"
		}
	}
	m.Operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) observeDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.EnumerationDelay.Observe(d.Seconds())
}

func (m *Metrics) incIssued() {
	if m != nil {
		m.TokensIssued.Inc()
	}
}

func (m *Metrics) incRefreshed() {
	if m != nil {
		m.TokensRefreshed.Inc()
	}
}

func (m *Metrics) incRevoked() {
	if m != nil {
		m.TokensRevoked.Inc()
	}
}
