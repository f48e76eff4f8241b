// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"math/rand/v2"
	"time"
)

// Anti-enumeration delay bounds.
const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 5 * time.Second
)

// Delayer pauses before an identity-revealing failure is returned.
type Delayer interface {
	// Delay blocks for an implementation-chosen duration or until ctx is
	// done, and returns how long it actually waited.
	Delay(ctx context.Context) time.Duration
}

// RandomDelayer waits a duration drawn uniformly from [Min, Max].
type RandomDelayer struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomDelayer returns a RandomDelayer using the default bounds.
func NewRandomDelayer() *RandomDelayer {
	return &RandomDelayer{Min: DefaultMinDelay, Max: DefaultMaxDelay}
}

// Next samples the next delay without waiting.
func (d *RandomDelayer) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1) //nolint:gosec // timing jitter, not key material
}

// Delay waits for a sampled duration. A cancelled context cuts the wait short.
func (d *RandomDelayer) Delay(ctx context.Context) time.Duration {
	start := time.Now()
	timer := time.NewTimer(d.Next())
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return time.Since(start)
}

// NoDelay is a Delayer that returns immediately.
type NoDelay struct{}

// Delay returns immediately.
func (NoDelay) Delay(context.Context) time.Duration { return 0 }
