package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/templui/storyloom/internal/capability"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultStoryboardScenes = 5
	MaxStoryboardScenes     = 8
	storyboardConcurrency   = 4
)

type StoryboardInput struct {
	Content string
	Scenes  int
}

type Scene struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

type StoryboardOutput struct {
	Scenes []Scene `json:"scenes"`
}

// StoryboardAdapter splits a story into scenes and illustrates each one.
type StoryboardAdapter struct {
	capability.Base
	llm    llm
	images capability.Invoker[ImageInput, ImageOutput]
}

// NewStoryboardAdapter builds the adapter. images may be nil, in which case scenes carry no images.
func NewStoryboardAdapter(client ChatClient, model string, retry capability.RetryPolicy, images capability.Invoker[ImageInput, ImageOutput]) *StoryboardAdapter {
	return &StoryboardAdapter{
		Base:   capability.NewBase(capability.Storyboard, client != nil),
		llm:    newLLM(client, model, retry),
		images: images,
	}
}

func (a *StoryboardAdapter) Invoke(ctx context.Context, in StoryboardInput) capability.Result[StoryboardOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.build(ctx, in))
}

func (a *StoryboardAdapter) build(ctx context.Context, in StoryboardInput) capability.Result[StoryboardOutput] {
	if !a.IsAvailable() {
		return capability.Fail[StoryboardOutput](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Content) == "" {
		return capability.Failf[StoryboardOutput]("no content provided")
	}

	count := in.Scenes
	if count <= 0 {
		count = DefaultStoryboardScenes
	}
	count = min(count, MaxStoryboardScenes)

	text, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System: "You are a storyboard artist specializing in cultural storytelling.",
		User: fmt.Sprintf("Break down this story into %d key visual scenes. For each scene, provide a detailed "+
			"description that could be used to generate an illustration.\n\nStory: %s\n\n"+
			"Format: Return only the scene descriptions, one per line.", count, in.Content),
	})
	if err != nil {
		slog.Error("storyboard scene generation failed", "error", err)
		return capability.Failf[StoryboardOutput]("storyboard generation failed: %v", err)
	}

	scenes := parseScenes(text, count)
	if len(scenes) == 0 {
		return capability.Failf[StoryboardOutput]("storyboard generation returned no scenes")
	}

	a.illustrate(ctx, scenes)
	return capability.OK(StoryboardOutput{Scenes: scenes})
}

// illustrate fills scene images concurrently. A failed scene keeps an empty image.
func (a *StoryboardAdapter) illustrate(ctx context.Context, scenes []Scene) {
	if a.images == nil || !a.images.IsAvailable() {
		slog.Warn("storyboard images skipped", "reason", "image capability unavailable")
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(storyboardConcurrency)
	for i := range scenes {
		g.Go(func() error {
			res := a.images.Invoke(ctx, ImageInput{
				Prompt: "Create a storyboard panel illustration for this scene: " + scenes[i].Description,
				Size:   openai.CreateImageSize512x512,
				Raw:    true,
			})
			if !res.Success {
				slog.Warn("storyboard scene image failed", "scene", scenes[i].Index, "error", res.Error)
				return nil
			}
			scenes[i].ImageURL = res.Payload.URL
			return nil
		})
	}
	_ = g.Wait()
}

var sceneMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// parseScenes takes one scene per non-empty line, stripping a single list marker, up to limit.
func parseScenes(text string, limit int) []Scene {
	var scenes []Scene
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(sceneMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		scenes = append(scenes, Scene{Index: len(scenes) + 1, Description: line})
		if len(scenes) == limit {
			break
		}
	}
	return scenes
}
