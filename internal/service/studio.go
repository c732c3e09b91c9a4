package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/validation"
)

var ErrCapabilityUnavailable = errors.New("this feature is currently unavailable")

// CapabilityError is a capability invocation that returned success=false.
type CapabilityError struct {
	Capability capability.Name
	Message    string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Capability, e.Message)
}

// invoke looks up an available capability and runs it, turning a failed Result into a CapabilityError.
func invoke[In, Out any](ctx context.Context, registry *capability.Registry, name capability.Name, in In) (Out, error) {
	var zero Out

	c, ok := capability.Lookup[capability.Invoker[In, Out]](registry, name)
	if !ok {
		return zero, ErrCapabilityUnavailable
	}

	res := c.Invoke(ctx, in)
	if !res.Success {
		return zero, &CapabilityError{Capability: name, Message: res.Error}
	}

	return res.Payload, nil
}

// StudioService runs on-demand generation and analysis for authors.
type StudioService struct {
	registry *capability.Registry
}

func NewStudioService(registry *capability.Registry) *StudioService {
	return &StudioService{registry: registry}
}

func (s *StudioService) GenerateStory(ctx context.Context, in adapter.StoryInput) (adapter.StoryOutput, error) {
	in.Region = strings.TrimSpace(in.Region)
	if in.Region == "" {
		return adapter.StoryOutput{}, validation.FieldErrors{"region": "region is required"}
	}
	return invoke[adapter.StoryInput, adapter.StoryOutput](ctx, s.registry, capability.Story, in)
}

func (s *StudioService) Storyboard(ctx context.Context, in adapter.StoryboardInput) (adapter.StoryboardOutput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return adapter.StoryboardOutput{}, validation.FieldErrors{"content": "content is required"}
	}
	return invoke[adapter.StoryboardInput, adapter.StoryboardOutput](ctx, s.registry, capability.Storyboard, in)
}

func (s *StudioService) CulturalContext(ctx context.Context, in adapter.ContextInput) (adapter.ContextOutput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return adapter.ContextOutput{}, validation.FieldErrors{"content": "content is required"}
	}
	return invoke[adapter.ContextInput, adapter.ContextOutput](ctx, s.registry, capability.CulturalContext, in)
}

func (s *StudioService) CheckSensitivity(ctx context.Context, in adapter.SensitivityInput) (adapter.SensitivityOutput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return adapter.SensitivityOutput{}, validation.FieldErrors{"content": "content is required"}
	}
	return invoke[adapter.SensitivityInput, adapter.SensitivityOutput](ctx, s.registry, capability.Sensitivity, in)
}
