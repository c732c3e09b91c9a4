package adapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/templui/storyloom/internal/capability"
)

const (
	ImageStyleVivid   = openai.CreateImageStyleVivid
	ImageStyleNatural = openai.CreateImageStyleNatural

	maxImagePromptLength = 1000
	illustrationPreamble = "Create a high-quality, detailed illustration with cultural sensitivity " +
		"and authentic representation. Use rich colors and meaningful symbols " +
		"relevant to the story's context. Focus on artistic composition " +
		"and cultural accuracy."
)

type ImageInput struct {
	Prompt string
	Style  string
	// Size defaults to 1024x1024. Smaller sizes are rendered with DALL-E 2, which has no style or quality options.
	Size string
	// Raw skips the illustration preamble.
	Raw bool
}

type ImageOutput struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageAdapter renders illustrations with DALL-E.
type ImageAdapter struct {
	capability.Base
	client ChatClient
	retry  capability.RetryPolicy
}

func NewImageAdapter(client ChatClient, retry capability.RetryPolicy) *ImageAdapter {
	return &ImageAdapter{
		Base:   capability.NewBase(capability.Image, client != nil),
		client: client,
		retry:  retry,
	}
}

func (a *ImageAdapter) Invoke(ctx context.Context, in ImageInput) capability.Result[ImageOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.generate(ctx, in))
}

func (a *ImageAdapter) generate(ctx context.Context, in ImageInput) capability.Result[ImageOutput] {
	if !a.IsAvailable() {
		return capability.Fail[ImageOutput](capability.ErrUnavailable)
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return capability.Failf[ImageOutput]("image prompt is empty")
	}
	if !in.Raw {
		prompt = enhanceImagePrompt(prompt)
	}

	req := imageRequest(prompt, in.Style, in.Size)

	var out ImageOutput
	attempts, err := a.retry.Do(ctx, a.Name(), func(ctx context.Context) error {
		resp, err := a.client.CreateImage(ctx, req)
		if err != nil {
			return openAIError(err)
		}
		if len(resp.Data) == 0 || resp.Data[0].URL == "" {
			return errEmptyResponse
		}
		out = ImageOutput{URL: resp.Data[0].URL, RevisedPrompt: resp.Data[0].RevisedPrompt}
		return nil
	})
	if err != nil {
		slog.Error("image generation failed", "error", err, "attempts", attempts)
		return capability.Failf[ImageOutput]("image generation failed: %v", err)
	}

	slog.Info("image generated", "attempts", attempts, "size", req.Size)
	return capability.OK(out)
}

func enhanceImagePrompt(prompt string) string {
	return truncate(prompt+" "+illustrationPreamble, maxImagePromptLength)
}

func imageRequest(prompt, style, size string) openai.ImageRequest {
	if size != "" && size != openai.CreateImageSize1024x1024 {
		return openai.ImageRequest{
			Prompt:         prompt,
			Model:          openai.CreateImageModelDallE2,
			N:              1,
			Size:           size,
			ResponseFormat: openai.CreateImageResponseFormatURL,
		}
	}

	return openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityHD,
		Style:          imageStyle(style),
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}
}

func imageStyle(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case "":
		return ImageStyleVivid
	case ImageStyleVivid, ImageStyleNatural:
		return s
	default:
		slog.Warn("unknown image style, using default", "requested", style, "substituted", ImageStyleVivid)
		return ImageStyleVivid
	}
}
