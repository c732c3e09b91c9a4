package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVideoAdapter(t *testing.T, attempts int, handler http.HandlerFunc) *VideoAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a, err := NewVideoAdapter("rw-test", server.URL, server.Client(), fastRetry(attempts))
	require.NoError(t, err)
	return a
}

func TestNewVideoAdapterRequiresKey(t *testing.T) {
	_, err := NewVideoAdapter("  ", "http://localhost", nil, fastRetry(1))
	require.Error(t, err)
}

func TestVideoAdapterGenerates(t *testing.T) {
	a := newVideoAdapter(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generations", r.URL.Path)
		assert.Equal(t, "Key rw-test", r.Header.Get("Authorization"))

		var body generationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultVideoDuration*24, body.NumFrames)
		assert.Equal(t, 50, body.NumSteps)
		assert.InDelta(t, 17.5, body.GuidanceScale, 0.001)
		assert.Equal(t, 1024, body.Width)
		assert.Equal(t, 576, body.Height)
		assert.Contains(t, body.Prompt, "Harvest Moon")

		w.Write([]byte(`{"artifacts":[{"uri":"https://cdn.example/video.mp4"}]}`))
	})

	res := a.Invoke(context.Background(), VideoInput{Title: "Harvest Moon", Description: "A village celebrates"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://cdn.example/video.mp4", res.Payload.URL)
	assert.Equal(t, "video/mp4", res.Payload.ContentType)
}

func TestVideoAdapterAuthFailureIsPermanent(t *testing.T) {
	var calls atomic.Int32
	a := newVideoAdapter(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	res := a.Invoke(context.Background(), VideoInput{Title: "t", Description: "d"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "authentication failed")
	assert.Equal(t, int32(1), calls.Load())
}

func TestVideoAdapterRateLimitIsRetried(t *testing.T) {
	var calls atomic.Int32
	a := newVideoAdapter(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	res := a.Invoke(context.Background(), VideoInput{Title: "t", Description: "d"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "rate limit")
	assert.Equal(t, int32(3), calls.Load())
}

func TestVideoAdapterMissingArtifacts(t *testing.T) {
	var calls atomic.Int32
	a := newVideoAdapter(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"artifacts":[]}`))
	})

	res := a.Invoke(context.Background(), VideoInput{Title: "t", Description: "d"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid response format")
	assert.Equal(t, int32(1), calls.Load())
}
