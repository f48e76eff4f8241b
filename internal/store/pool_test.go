// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/pkg/errutil"
)

func TestConnect_MalformedURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", DefaultConnectOptions())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestConnect_GivesUpAfterRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := ConnectOptions{
		Attempts: 2,
		Backoff:  10 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	_, err := Connect(ctx, "postgres://authcore@127.0.0.1:1/authcore?connect_timeout=1", opts)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	errutil.AssertErrorContext(t, err, "attempts", 3)
}

func TestConnect_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := ConnectOptions{Attempts: 100, Backoff: time.Hour}
	start := time.Now()
	_, err := Connect(ctx, "postgres://authcore@127.0.0.1:1/authcore", opts)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaultConnectOptions(t *testing.T) {
	opts := DefaultConnectOptions()
	assert.Equal(t, uint64(5), opts.Attempts)
	assert.Equal(t, time.Second, opts.Backoff)
	assert.NotNil(t, opts.Logger)
}
