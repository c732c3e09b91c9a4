package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/templui/storyloom/internal/capability"
)

const (
	providerElevenLabs   = "elevenlabs"
	elevenLabsModel      = "eleven_multilingual_v2"
	maxErrorBodyLength   = 300
	defaultAudioMimeType = "audio/mpeg"
)

// elevenLabsVoices maps the supported voice names to ElevenLabs voice IDs.
var elevenLabsVoices = map[string]string{
	"bella":  "EXAVITQu4vr4xnSDxMaL",
	"antoni": "ErXwobaYiN019PkySvjV",
	"arnold": "VR6AewLTigWG4xSOukaG",
	"adam":   "pNInz6obpgDQGcFmaJgB",
	"domi":   "AZnzlk1XvdvUeBnXmlld",
	"elli":   "MF3mGyEYCl7XYWbV9V5O",
	"josh":   "TxGEqnHWrfWFTfGW9XjX",
}

// VoiceNames lists the voices offered to users.
var VoiceNames = []string{"Bella", "Antoni", "Arnold", "Adam", "Domi", "Elli", "Josh"}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabsClient calls the ElevenLabs text-to-speech REST API.
type ElevenLabsClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewElevenLabsClient(apiKey, baseURL string, httpClient *http.Client) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("ELEVENLABS_API_KEY not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ElevenLabsClient{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

// Probe lists voices to verify the key is accepted.
func (c *ElevenLabsClient) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &capability.ProviderError{Provider: providerElevenLabs, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providerStatusError(providerElevenLabs, resp)
	}
	return nil
}

// Speak converts text to speech with the given voice ID.
func (c *ElevenLabsClient) Speak(ctx context.Context, voiceID, text string) ([]byte, string, error) {
	body, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: voiceSettings{
			Stability:       0.75,
			SimilarityBoost: 0.75,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, "", capability.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", capability.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", defaultAudioMimeType)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &capability.ProviderError{Provider: providerElevenLabs, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", providerStatusError(providerElevenLabs, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &capability.ProviderError{Provider: providerElevenLabs, Err: err}
	}
	if len(data) == 0 {
		return nil, "", errEmptyResponse
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultAudioMimeType
	}
	return data, contentType, nil
}

// providerStatusError builds a ProviderError from a non-2xx response, keeping a prefix of the body.
func providerStatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
	return &capability.ProviderError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
