// Package capability defines optional integrations with external providers.
//
// A capability is constructed once at startup through a fallible factory, reports whether it is
// available, and exposes a single typed operation that returns a Result instead of an error.
package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/templui/storyloom/internal/metrics"
)

type Name string

const (
	Audio           Name = "audio"
	Soundtrack      Name = "soundtrack"
	Image           Name = "image"
	Storage         Name = "storage"
	Tag             Name = "tag"
	Story           Name = "story"
	CulturalContext Name = "cultural_context"
	Export          Name = "export"
	Video           Name = "video"
	Storyboard      Name = "storyboard"
	Sensitivity     Name = "sensitivity"
)

type Capability interface {
	Name() Name
	IsAvailable() bool
}

// Invoker is a capability with a typed primary operation.
type Invoker[In, Out any] interface {
	Capability
	Invoke(ctx context.Context, in In) Result[Out]
}

// Result is the tagged outcome of an invocation: Payload on success, a human-readable Error otherwise.
type Result[T any] struct {
	Success bool   `json:"success"`
	Payload T      `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK[T any](payload T) Result[T] {
	return Result[T]{Success: true, Payload: payload}
}

func Fail[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	return Result[T]{Success: false, Error: err.Error()}
}

func Failf[T any](format string, args ...any) Result[T] {
	return Result[T]{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Observe records metrics for a finished invocation and returns res unchanged.
func Observe[T any](name Name, start time.Time, res Result[T]) Result[T] {
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	metrics.CapabilityInvocations.WithLabelValues(string(name), outcome).Inc()
	metrics.CapabilityDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
	return res
}

// Base carries the name and availability shared by all adapters.
type Base struct {
	name      Name
	available bool
}

func NewBase(name Name, available bool) Base {
	return Base{name: name, available: available}
}

func (b Base) Name() Name {
	return b.name
}

func (b Base) IsAvailable() bool {
	return b.available
}
