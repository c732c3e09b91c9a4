package adapter

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func imageResponse(url string) openai.ImageResponse {
	return openai.ImageResponse{
		Data: []openai.ImageResponseDataInner{{URL: url, RevisedPrompt: "revised"}},
	}
}

func TestImageAdapterGeneratesIllustration(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateImage", mock.Anything, mock.MatchedBy(func(req openai.ImageRequest) bool {
		return req.Model == openai.CreateImageModelDallE3 &&
			req.Size == openai.CreateImageSize1024x1024 &&
			req.Quality == openai.CreateImageQualityHD &&
			req.Style == openai.CreateImageStyleNatural &&
			strings.HasPrefix(req.Prompt, "A lantern festival") &&
			strings.Contains(req.Prompt, "cultural sensitivity")
	})).Return(imageResponse("https://images.example/1.png"), nil)

	a := NewImageAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), ImageInput{Prompt: "A lantern festival", Style: "natural"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://images.example/1.png", res.Payload.URL)
	assert.Equal(t, "revised", res.Payload.RevisedPrompt)
}

func TestImageAdapterUnknownStyleFallsBackToVivid(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateImage", mock.Anything, mock.MatchedBy(func(req openai.ImageRequest) bool {
		return req.Style == openai.CreateImageStyleVivid
	})).Return(imageResponse("https://images.example/2.png"), nil)

	a := NewImageAdapter(client, fastRetry(1))
	res := a.Invoke(context.Background(), ImageInput{Prompt: "market", Style: "watercolor"})

	require.True(t, res.Success, res.Error)
	client.AssertExpectations(t)
}

func TestImageAdapterTruncatesPrompt(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateImage", mock.Anything, mock.MatchedBy(func(req openai.ImageRequest) bool {
		return len(req.Prompt) <= maxImagePromptLength
	})).Return(imageResponse("https://images.example/3.png"), nil)

	a := NewImageAdapter(client, fastRetry(1))
	res := a.Invoke(context.Background(), ImageInput{Prompt: strings.Repeat("word ", 400)})

	require.True(t, res.Success, res.Error)
	client.AssertExpectations(t)
}

func TestImageAdapterSmallSizeUsesDallE2(t *testing.T) {
	req := imageRequest("scene", "vivid", openai.CreateImageSize512x512)
	assert.Equal(t, openai.CreateImageModelDallE2, req.Model)
	assert.Empty(t, req.Style)
	assert.Empty(t, req.Quality)
}

func TestImageAdapterPermanentFailureIsNotRetried(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateImage", mock.Anything, mock.Anything).
		Return(openai.ImageResponse{}, &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"})

	a := NewImageAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), ImageInput{Prompt: "market"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid api key")
	client.AssertNumberOfCalls(t, "CreateImage", 1)
}

func TestImageAdapterTransientFailureIsRetried(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateImage", mock.Anything, mock.Anything).
		Return(openai.ImageResponse{}, &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"})

	a := NewImageAdapter(client, fastRetry(3))
	res := a.Invoke(context.Background(), ImageInput{Prompt: "market"})

	assert.False(t, res.Success)
	client.AssertNumberOfCalls(t, "CreateImage", 3)
}

func TestImageAdapterRejectsEmptyPrompt(t *testing.T) {
	client := &mockChatClient{}
	a := NewImageAdapter(client, fastRetry(3))

	res := a.Invoke(context.Background(), ImageInput{Prompt: "   "})

	assert.False(t, res.Success)
	client.AssertNotCalled(t, "CreateImage", mock.Anything, mock.Anything)
}

func TestImageAdapterUnavailableWithoutClient(t *testing.T) {
	a := NewImageAdapter(nil, fastRetry(3))

	assert.False(t, a.IsAvailable())
	res := a.Invoke(context.Background(), ImageInput{Prompt: "market"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
