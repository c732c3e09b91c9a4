package app

import (
	"context"
	"net/http"
	"time"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/config"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/storage"
)

const probeTimeout = 10 * time.Second

// registerCapabilities fills the registry from configuration.
// Missing credentials or failed probes leave the capability unavailable; startup never fails here.
func registerCapabilities(ctx context.Context, cfg *config.Config, registry *capability.Registry, store storage.Storage, storeErr error, parser *markdown.Parser) {
	retry := retryPolicy(cfg, cfg.CapabilityTimeout)
	httpClient := &http.Client{}

	// OpenAI backs the text and image capabilities
	openai, openaiErr := adapter.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if openaiErr == nil && cfg.CapabilityProbe {
		openaiErr = probe(ctx, func(ctx context.Context) error { return adapter.ProbeOpenAI(ctx, openai) })
	}
	withOpenAI := func(build func(client adapter.ChatClient) capability.Capability) capability.Factory {
		return func(context.Context) (capability.Capability, error) {
			if openaiErr != nil {
				return nil, openaiErr
			}
			return build(openai), nil
		}
	}

	registry.Register(ctx, capability.Image, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewImageAdapter(c, retry)
	}))
	registry.Register(ctx, capability.Tag, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewTagAdapter(c, cfg.OpenAIChatModel, retry)
	}))
	registry.Register(ctx, capability.Story, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewStoryAdapter(c, cfg.OpenAIChatModel, retry)
	}))
	registry.Register(ctx, capability.CulturalContext, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewCulturalContextAdapter(c, cfg.OpenAIChatModel, retry)
	}))
	registry.Register(ctx, capability.Sensitivity, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewSensitivityAdapter(c, cfg.OpenAIChatModel, retry)
	}))
	images, _ := capability.Lookup[capability.Invoker[adapter.ImageInput, adapter.ImageOutput]](registry, capability.Image)
	registry.Register(ctx, capability.Storyboard, withOpenAI(func(c adapter.ChatClient) capability.Capability {
		return adapter.NewStoryboardAdapter(c, cfg.OpenAIChatModel, retry, images)
	}))

	// ElevenLabs backs narration and soundtracks
	elevenlabs, elevenErr := adapter.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL, httpClient)
	if elevenErr == nil && cfg.CapabilityProbe {
		elevenErr = probe(ctx, elevenlabs.Probe)
	}
	registry.Register(ctx, capability.Audio, func(context.Context) (capability.Capability, error) {
		if elevenErr != nil {
			return nil, elevenErr
		}
		return adapter.NewAudioAdapter(elevenlabs, retry), nil
	})
	registry.Register(ctx, capability.Soundtrack, func(context.Context) (capability.Capability, error) {
		if elevenErr != nil {
			return nil, elevenErr
		}
		return adapter.NewSoundtrackAdapter(elevenlabs, retry), nil
	})

	registry.Register(ctx, capability.Video, func(context.Context) (capability.Capability, error) {
		video, err := adapter.NewVideoAdapter(cfg.RunwayAPIKey, cfg.RunwayBaseURL, httpClient, retryPolicy(cfg, cfg.VideoTimeout))
		if err != nil {
			return nil, err
		}
		return video, nil
	})

	registry.Register(ctx, capability.Storage, func(context.Context) (capability.Capability, error) {
		if store == nil {
			if storeErr != nil {
				return nil, storeErr
			}
			return nil, storage.ErrNotConfigured
		}
		return adapter.NewStorageAdapter(store, retry), nil
	})

	registry.Register(ctx, capability.Export, func(context.Context) (capability.Capability, error) {
		return adapter.NewExportAdapter(parser), nil
	})
}

func retryPolicy(cfg *config.Config, timeout time.Duration) capability.RetryPolicy {
	return capability.RetryPolicy{
		MaxAttempts:    cfg.CapabilityMaxAttempts,
		BaseDelay:      cfg.CapabilityBaseDelay,
		MaxDelay:       cfg.CapabilityMaxDelay,
		Jitter:         cfg.CapabilityJitter,
		AttemptTimeout: timeout,
	}
}

func probe(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return fn(ctx)
}
