package adapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

const DefaultVoice = "Bella"

type AudioInput struct {
	Text  string
	Voice string
}

type AudioOutput struct {
	Data        []byte
	ContentType string
	Voice       string
}

// AudioAdapter narrates text with ElevenLabs.
type AudioAdapter struct {
	capability.Base
	client *ElevenLabsClient
	retry  capability.RetryPolicy
}

func NewAudioAdapter(client *ElevenLabsClient, retry capability.RetryPolicy) *AudioAdapter {
	return &AudioAdapter{
		Base:   capability.NewBase(capability.Audio, client != nil),
		client: client,
		retry:  retry,
	}
}

func (a *AudioAdapter) Invoke(ctx context.Context, in AudioInput) capability.Result[AudioOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.narrate(ctx, in))
}

func (a *AudioAdapter) narrate(ctx context.Context, in AudioInput) capability.Result[AudioOutput] {
	if !a.IsAvailable() {
		return capability.Fail[AudioOutput](capability.ErrUnavailable)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return capability.Failf[AudioOutput]("no text provided")
	}

	voice, voiceID := resolveVoice(in.Voice)

	out, attempts, err := speak(ctx, a.client, a.retry, a.Name(), voiceID, text)
	if err != nil {
		slog.Error("audio generation failed", "error", err, "voice", voice, "attempts", attempts)
		return capability.Failf[AudioOutput]("audio generation failed: %v", err)
	}

	out.Voice = voice
	slog.Info("audio generated", "voice", voice, "bytes", len(out.Data), "attempts", attempts)
	return capability.OK(out)
}

// resolveVoice maps a voice name to its ID, falling back to the default voice.
func resolveVoice(name string) (string, string) {
	if name == "" {
		return DefaultVoice, elevenLabsVoices[strings.ToLower(DefaultVoice)]
	}
	if id, ok := elevenLabsVoices[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonicalVoice(name), id
	}
	slog.Warn("unknown voice, using default", "requested", name, "substituted", DefaultVoice)
	return DefaultVoice, elevenLabsVoices[strings.ToLower(DefaultVoice)]
}

func canonicalVoice(name string) string {
	for _, v := range VoiceNames {
		if strings.EqualFold(v, strings.TrimSpace(name)) {
			return v
		}
	}
	return name
}

func speak(ctx context.Context, client *ElevenLabsClient, retry capability.RetryPolicy, name capability.Name, voiceID, text string) (AudioOutput, int, error) {
	var out AudioOutput
	attempts, err := retry.Do(ctx, name, func(ctx context.Context) error {
		data, contentType, err := client.Speak(ctx, voiceID, text)
		if err != nil {
			return err
		}
		out = AudioOutput{Data: data, ContentType: contentType}
		return nil
	})
	return out, attempts, err
}
