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

const maxSuggestedTags = 8

type TagInput struct {
	Title   string
	Content string
	Region  string
}

// TagAdapter suggests cultural tags for a story.
type TagAdapter struct {
	capability.Base
	llm llm
}

func NewTagAdapter(client ChatClient, model string, retry capability.RetryPolicy) *TagAdapter {
	return &TagAdapter{
		Base: capability.NewBase(capability.Tag, client != nil),
		llm:  newLLM(client, model, retry),
	}
}

func (a *TagAdapter) Invoke(ctx context.Context, in TagInput) capability.Result[[]string] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.suggest(ctx, in))
}

func (a *TagAdapter) suggest(ctx context.Context, in TagInput) capability.Result[[]string] {
	if !a.IsAvailable() {
		return capability.Fail[[]string](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Content) == "" {
		return capability.Failf[[]string]("no content provided")
	}

	content, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System: "You are a cultural tagging expert.",
		User: fmt.Sprintf("Analyze this story from %s titled %q and suggest relevant cultural tags.\n\n"+
			"Story: %s\n\n"+
			"Return a JSON object {\"tags\": [...]} with at most %d short tag names focusing on "+
			"traditional practices, cultural symbols, customs and rituals, regional specialties and historical references.",
			in.Region, in.Title, truncate(in.Content, 1500), maxSuggestedTags),
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		slog.Error("tag suggestion failed", "error", err)
		return capability.Failf[[]string]("tag suggestion failed: %v", err)
	}

	tags, err := parseTags(content)
	if err != nil {
		slog.Error("tag suggestion returned invalid JSON", "error", err)
		return capability.Failf[[]string]("tag suggestion failed: %v", err)
	}

	return capability.OK(tags)
}

// parseTags reads {"tags": [...]}, lowercasing, dropping blanks and duplicates, capped at maxSuggestedTags.
func parseTags(content string) ([]string, error) {
	var payload struct {
		Tags []string `json:"tags"`
	}
	err := json.Unmarshal([]byte(content), &payload)
	if err != nil {
		return nil, fmt.Errorf("invalid tag response: %w", err)
	}

	seen := make(map[string]bool)
	tags := make([]string, 0, len(payload.Tags))
	for _, tag := range payload.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxSuggestedTags {
			break
		}
	}
	return tags, nil
}
