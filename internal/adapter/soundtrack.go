package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

const soundtrackVoice = "Antoni"

var regionStyles = map[string]string{
	"Asia":     "traditional asian",
	"Africa":   "african drums",
	"Europe":   "classical orchestra",
	"Americas": "indigenous flutes",
	"Oceania":  "didgeridoo ambient",
}

var themeMoods = map[string]string{
	"Traditions": "ceremonial and dignified",
	"Festivals":  "celebratory and joyful",
	"Food":       "warm and inviting",
	"Art":        "creative and flowing",
	"Music":      "rhythmic and melodic",
	"Folklore":   "mysterious and enchanting",
}

type SoundtrackInput struct {
	Region string
	Theme  string
	Title  string
}

type SoundtrackOutput struct {
	AudioOutput
	Style string
	Mood  string
}

// SoundtrackAdapter renders a background track matched to a story's region and theme.
type SoundtrackAdapter struct {
	capability.Base
	client *ElevenLabsClient
	retry  capability.RetryPolicy
}

func NewSoundtrackAdapter(client *ElevenLabsClient, retry capability.RetryPolicy) *SoundtrackAdapter {
	return &SoundtrackAdapter{
		Base:   capability.NewBase(capability.Soundtrack, client != nil),
		client: client,
		retry:  retry,
	}
}

func (a *SoundtrackAdapter) Invoke(ctx context.Context, in SoundtrackInput) capability.Result[SoundtrackOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.compose(ctx, in))
}

func (a *SoundtrackAdapter) compose(ctx context.Context, in SoundtrackInput) capability.Result[SoundtrackOutput] {
	if !a.IsAvailable() {
		return capability.Fail[SoundtrackOutput](capability.ErrUnavailable)
	}

	style, mood := MusicalContext(in.Region, in.Theme)
	voice, voiceID := resolveVoice(soundtrackVoice)

	audio, attempts, err := speak(ctx, a.client, a.retry, a.Name(), voiceID, soundtrackPrompt(style, mood, in.Title))
	if err != nil {
		slog.Error("soundtrack generation failed", "error", err, "region", in.Region, "theme", in.Theme, "attempts", attempts)
		return capability.Failf[SoundtrackOutput]("soundtrack generation failed: %v", err)
	}
	audio.Voice = voice

	slog.Info("soundtrack generated", "style", style, "mood", mood, "bytes", len(audio.Data))
	return capability.OK(SoundtrackOutput{AudioOutput: audio, Style: style, Mood: mood})
}

// MusicalContext picks the musical style for a region and the mood for a theme.
func MusicalContext(region, theme string) (string, string) {
	style, ok := regionStyles[region]
	if !ok {
		style = "world music"
	}
	mood, ok := themeMoods[theme]
	if !ok {
		mood = "neutral and balanced"
	}
	return style, mood
}

func soundtrackPrompt(style, mood, title string) string {
	var b strings.Builder
	b.WriteString("<speak><break time='500ms'/><prosody rate='slow' pitch='+0st'>")
	fmt.Fprintf(&b, "♪ Creating %s music that feels %s", style, mood)
	if title = strings.TrimSpace(title); title != "" {
		fmt.Fprintf(&b, " for the story %q", title)
	}
	b.WriteString(". Using traditional instruments and natural harmonies. " +
		"The melody should be gentle and suitable for storytelling background. " +
		"Starting with soft notes, building gradually, keeping the volume moderate and the pace steady. ♪")
	b.WriteString("</prosody><break time='500ms'/></speak>")
	return b.String()
}
