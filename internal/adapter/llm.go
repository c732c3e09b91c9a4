// Package adapter implements the capabilities backed by external providers
// (OpenAI, ElevenLabs, RunwayML, S3) and the local export formats.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"github.com/templui/storyloom/internal/capability"
)

const providerOpenAI = "openai"

var errEmptyResponse = errors.New("empty response from provider")

// ChatClient is the subset of *openai.Client the adapters use.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// NewOpenAIClient builds a client for the OpenAI API or a compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) (ChatClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return openai.NewClientWithConfig(config), nil
}

// ProbeOpenAI lists models to verify the key is accepted.
func ProbeOpenAI(ctx context.Context, client ChatClient) error {
	_, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("openai probe failed: %w", openAIError(err))
	}
	return nil
}

// openAIError converts go-openai errors into ProviderError so the retry policy can classify them.
func openAIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &capability.ProviderError{
			Provider:   providerOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &capability.ProviderError{
			Provider:   providerOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	return &capability.ProviderError{Provider: providerOpenAI, Err: err}
}

type chatRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// llm runs chat completions under a retry policy.
type llm struct {
	client ChatClient
	model  string
	retry  capability.RetryPolicy
}

func newLLM(client ChatClient, model string, retry capability.RetryPolicy) llm {
	if model == "" {
		model = openai.GPT4o
	}
	return llm{client: client, model: model, retry: retry}
}

// complete returns the content of the first choice.
func (l llm) complete(ctx context.Context, name capability.Name, req chatRequest) (string, error) {
	request := openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	_, err := l.retry.Do(ctx, name, func(ctx context.Context) error {
		resp, err := l.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return openAIError(err)
		}
		if len(resp.Choices) == 0 {
			return errEmptyResponse
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return errEmptyResponse
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
