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

func newElevenLabsServer(t *testing.T, handler http.HandlerFunc) *ElevenLabsClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewElevenLabsClient("xi-test", server.URL, server.Client())
	require.NoError(t, err)
	return client
}

func TestElevenLabsClientRequiresKey(t *testing.T) {
	_, err := NewElevenLabsClient("", "http://localhost", nil)
	require.Error(t, err)
}

func TestElevenLabsProbe(t *testing.T) {
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voices", r.URL.Path)
		if r.Header.Get("xi-api-key") != "xi-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"voices":[]}`))
	})

	require.NoError(t, client.Probe(context.Background()))
}

func TestElevenLabsProbeRejectedKey(t *testing.T) {
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})

	err := client.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAudioAdapterNarrates(t *testing.T) {
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/text-to-speech/"+elevenLabsVoices["josh"], r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))

		var body speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Once upon a time", body.Text)
		assert.Equal(t, elevenLabsModel, body.ModelID)
		assert.InDelta(t, 0.75, body.VoiceSettings.Stability, 0.001)
		assert.True(t, body.VoiceSettings.UseSpeakerBoost)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	})

	a := NewAudioAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), AudioInput{Text: "Once upon a time", Voice: "josh"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []byte("ID3-audio"), res.Payload.Data)
	assert.Equal(t, "audio/mpeg", res.Payload.ContentType)
	assert.Equal(t, "Josh", res.Payload.Voice)
}

func TestAudioAdapterUnknownVoiceFallsBackToDefault(t *testing.T) {
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech/"+elevenLabsVoices["bella"], r.URL.Path)
		w.Write([]byte("audio"))
	})

	a := NewAudioAdapter(client, fastRetry(1))
	res := a.Invoke(context.Background(), AudioInput{Text: "hello", Voice: "Morgan"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, DefaultVoice, res.Payload.Voice)
}

func TestAudioAdapterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("audio"))
	})

	a := NewAudioAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), AudioInput{Text: "hello"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAudioAdapterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	})

	a := NewAudioAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), AudioInput{Text: "hello"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAudioAdapterRejectsEmptyText(t *testing.T) {
	a := NewAudioAdapter(nil, fastRetry(1))
	assert.False(t, a.IsAvailable())

	res := a.Invoke(context.Background(), AudioInput{Text: ""})
	assert.False(t, res.Success)
}

func TestSoundtrackAdapterUsesAntoni(t *testing.T) {
	client := newElevenLabsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech/"+elevenLabsVoices["antoni"], r.URL.Path)

		var body speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Text, "african drums")
		assert.Contains(t, body.Text, "celebratory and joyful")

		w.Write([]byte("track"))
	})

	a := NewSoundtrackAdapter(client, fastRetry(1))
	res := a.Invoke(context.Background(), SoundtrackInput{Region: "Africa", Theme: "Festivals", Title: "Harvest"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "african drums", res.Payload.Style)
	assert.Equal(t, "celebratory and joyful", res.Payload.Mood)
	assert.Equal(t, "Antoni", res.Payload.Voice)
}

func TestMusicalContext(t *testing.T) {
	tests := []struct {
		region, theme string
		style, mood   string
	}{
		{"Asia", "Traditions", "traditional asian", "ceremonial and dignified"},
		{"Europe", "Music", "classical orchestra", "rhythmic and melodic"},
		{"Americas", "Food", "indigenous flutes", "warm and inviting"},
		{"Oceania", "Folklore", "didgeridoo ambient", "mysterious and enchanting"},
		{"Middle East", "Art", "world music", "creative and flowing"},
		{"", "", "world music", "neutral and balanced"},
	}

	for _, tt := range tests {
		t.Run(tt.region+"/"+tt.theme, func(t *testing.T) {
			style, mood := MusicalContext(tt.region, tt.theme)
			assert.Equal(t, tt.style, style)
			assert.Equal(t, tt.mood, mood)
		})
	}
}
