package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

type StoryInput struct {
	Title    string
	Theme    string
	Region   string
	Keywords []string
}

type StoryOutput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"image_prompt"`
}

// StoryAdapter drafts a cultural story and a matching illustration prompt.
type StoryAdapter struct {
	capability.Base
	llm llm
}

func NewStoryAdapter(client ChatClient, model string, retry capability.RetryPolicy) *StoryAdapter {
	return &StoryAdapter{
		Base: capability.NewBase(capability.Story, client != nil),
		llm:  newLLM(client, model, retry),
	}
}

func (a *StoryAdapter) Invoke(ctx context.Context, in StoryInput) capability.Result[StoryOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.write(ctx, in))
}

func (a *StoryAdapter) write(ctx context.Context, in StoryInput) capability.Result[StoryOutput] {
	if !a.IsAvailable() {
		return capability.Fail[StoryOutput](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Region) == "" {
		return capability.Failf[StoryOutput]("region is required")
	}

	subject := strings.TrimSpace(in.Title)
	if subject == "" {
		subject = "a cultural tradition"
	}
	prompt := fmt.Sprintf("Create an engaging cultural story about %s themed around %s from the %s region. "+
		"The story should be respectful, authentic and culturally sensitive, and include traditional elements, "+
		"customs or beliefs relevant to the region. The story should be between 300-500 words.",
		subject, orDefault(in.Theme, "traditions"), in.Region)
	if len(in.Keywords) > 0 {
		prompt += fmt.Sprintf(" Weave in these elements: %s.", strings.Join(in.Keywords, ", "))
	}
	prompt += ` Respond with a JSON object {"title": "...", "content": "...", "image_prompt": "..."} where ` +
		`image_prompt is a vivid, culturally appropriate visual description for an illustration.`

	content, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System:      "You are a cultural storyteller specializing in authentic, respectful narratives from different regions.",
		User:        prompt,
		Temperature: 0.7,
		JSON:        true,
	})
	if err != nil {
		slog.Error("story generation failed", "error", err)
		return capability.Failf[StoryOutput]("story generation failed: %v", err)
	}

	var out StoryOutput
	err = json.Unmarshal([]byte(content), &out)
	if err != nil || strings.TrimSpace(out.Content) == "" {
		slog.Error("story generation returned invalid JSON", "error", err)
		return capability.Failf[StoryOutput]("story generation returned an invalid response")
	}
	if out.Title == "" {
		out.Title = in.Title
	}

	return capability.OK(out)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
