package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

const (
	providerRunway       = "runwayml"
	DefaultVideoDuration = 15
	maxVideoDuration     = 60
	videoFramesPerSecond = 24
)

type VideoInput struct {
	Title       string
	Description string
	// Duration in seconds, DefaultVideoDuration when zero.
	Duration int
}

type VideoOutput struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

type generationRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	NumFrames      int     `json:"num_frames"`
	NumSteps       int     `json:"num_steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

type generationResponse struct {
	Artifacts []struct {
		URI string `json:"uri"`
	} `json:"artifacts"`
}

// VideoAdapter generates short clips with the RunwayML generations API.
type VideoAdapter struct {
	capability.Base
	http    *http.Client
	baseURL string
	apiKey  string
	retry   capability.RetryPolicy
}

func NewVideoAdapter(apiKey, baseURL string, httpClient *http.Client, retry capability.RetryPolicy) (*VideoAdapter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("RUNWAY_API_KEY not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &VideoAdapter{
		Base:    capability.NewBase(capability.Video, true),
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		retry:   retry,
	}, nil
}

func (a *VideoAdapter) Invoke(ctx context.Context, in VideoInput) capability.Result[VideoOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.generate(ctx, in))
}

func (a *VideoAdapter) generate(ctx context.Context, in VideoInput) capability.Result[VideoOutput] {
	if !a.IsAvailable() {
		return capability.Fail[VideoOutput](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Description) == "" {
		return capability.Failf[VideoOutput]("video prompt is empty")
	}

	duration := in.Duration
	if duration <= 0 {
		duration = DefaultVideoDuration
	}
	duration = min(duration, maxVideoDuration)

	payload := generationRequest{
		Prompt:        fmt.Sprintf("%s\n\nDescription: %s", in.Title, truncate(in.Description, 2000)),
		NumFrames:     duration * videoFramesPerSecond,
		NumSteps:      50,
		GuidanceScale: 17.5,
		Width:         1024,
		Height:        576,
	}

	var url string
	attempts, err := a.retry.Do(ctx, a.Name(), func(ctx context.Context) error {
		var err error
		url, err = a.request(ctx, payload)
		return err
	})
	if err != nil {
		slog.Error("video generation failed", "error", err, "title", in.Title, "attempts", attempts)
		return capability.Failf[VideoOutput]("video generation failed: %s", videoErrorMessage(err))
	}

	slog.Info("video generated", "title", in.Title, "duration", duration, "attempts", attempts)
	return capability.OK(VideoOutput{URL: url, ContentType: "video/mp4"})
}

func (a *VideoAdapter) request(ctx context.Context, payload generationRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", capability.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return "", capability.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Key "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", &capability.ProviderError{Provider: providerRunway, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", providerStatusError(providerRunway, resp)
	}

	var result generationResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return "", capability.Permanent(fmt.Errorf("invalid response format: %w", err))
	}
	if len(result.Artifacts) == 0 || result.Artifacts[0].URI == "" {
		return "", capability.Permanent(errors.New("invalid response format: no artifacts"))
	}

	return result.Artifacts[0].URI, nil
}

func videoErrorMessage(err error) string {
	var providerErr *capability.ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.StatusCode {
		case http.StatusUnauthorized:
			return "invalid API key or authentication failed"
		case http.StatusTooManyRequests:
			return "rate limit exceeded, please try again later"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
