// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherClient_Current(t *testing.T) {
	var gotPath, gotFormat string
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		_, _ = w.Write([]byte("  Paris: Clear +18°C \n"))
	})

	report, err := NewWeatherClient(srv.URL+"/", 0).Current(context.Background(), " Paris ")
	require.NoError(t, err)
	assert.Equal(t, "Paris: Clear +18°C", report)
	assert.Equal(t, "/Paris", gotPath)
	assert.Equal(t, "%l: %C %t", gotFormat)
}

func TestWeatherClient_Errors(t *testing.T) {
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/empty":
			w.WriteHeader(http.StatusOK)
		}
	})
	client := NewWeatherClient(srv.URL, 0)

	_, err := client.Current(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoCity)

	_, err = client.Current(context.Background(), "down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = client.Current(context.Background(), "empty")
	assert.Error(t, err)
}

func TestWeatherClient_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewWeatherClient(srv.URL, 0).Current(ctx, "Oslo")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWeatherClient_RateLimited(t *testing.T) {
	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	client := NewWeatherClient(srv.URL, 0.5)

	_, err := client.Current(context.Background(), "Rome")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = client.Current(ctx, "Rome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
