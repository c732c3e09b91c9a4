package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

type ContextInput struct {
	Content string
	Region  string
	Theme   string
}

type LearningResource struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

type ContextOutput struct {
	Analysis  string             `json:"analysis"`
	Resources []LearningResource `json:"resources"`
}

// CulturalContextAdapter explains the cultural background of a story and suggests further reading.
type CulturalContextAdapter struct {
	capability.Base
	llm llm
}

func NewCulturalContextAdapter(client ChatClient, model string, retry capability.RetryPolicy) *CulturalContextAdapter {
	return &CulturalContextAdapter{
		Base: capability.NewBase(capability.CulturalContext, client != nil),
		llm:  newLLM(client, model, retry),
	}
}

func (a *CulturalContextAdapter) Invoke(ctx context.Context, in ContextInput) capability.Result[ContextOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.analyze(ctx, in))
}

func (a *CulturalContextAdapter) analyze(ctx context.Context, in ContextInput) capability.Result[ContextOutput] {
	if !a.IsAvailable() {
		return capability.Fail[ContextOutput](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Content) == "" {
		return capability.Failf[ContextOutput]("no content provided")
	}

	theme := strings.ToLower(in.Theme)
	if theme == "" {
		theme = "cultural"
	}

	analysis, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System: "You are a cultural anthropologist and historian specializing in global cultural traditions. " +
			"Provide academic yet accessible insights about historical context, cultural significance, " +
			"traditional elements, modern relevance and related practices.",
		User: fmt.Sprintf("Analyze this %s story from %s with cultural context:\n\n%s\n\n"+
			"Cover historical context, cultural elements, modern relevance, related cultural practices "+
			"and topics for further study.", theme, in.Region, in.Content),
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("cultural context analysis failed", "error", err)
		return capability.Failf[ContextOutput]("failed to complete cultural analysis: %v", err)
	}

	out := ContextOutput{Analysis: analysis, Resources: []LearningResource{}}

	resources, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System: "You are a cultural education specialist. Suggest learning resources about cultural elements " +
			"mentioned in the content. Answer with one resource per line formatted as `topic: description`.",
		User:        fmt.Sprintf("Suggest learning resources about cultural elements in this content from %s:\n%s", in.Region, in.Content),
		Temperature: 0.3,
	})
	if err != nil {
		slog.Warn("learning resources unavailable", "error", err)
	} else {
		out.Resources = parseResources(resources)
	}

	return capability.OK(out)
}

// parseResources reads `topic: description` lines, ignoring anything without a colon.
func parseResources(text string) []LearningResource {
	resources := []LearningResource{}
	for line := range strings.SplitSeq(text, "\n") {
		topic, description, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		topic = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(topic), "-*0123456789. "))
		topic = strings.Trim(topic, "*")
		description = strings.TrimSpace(description)
		if topic == "" || description == "" {
			continue
		}
		resources = append(resources, LearningResource{Topic: topic, Description: description})
	}
	return resources
}
