package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Factory constructs a capability, running its readiness probe.
type Factory func(ctx context.Context) (Capability, error)

// Unavailable is stored in place of a capability that failed to initialize or was never registered.
type Unavailable struct {
	name   Name
	reason string
}

func NewUnavailable(name Name, reason string) *Unavailable {
	return &Unavailable{name: name, reason: reason}
}

func (u *Unavailable) Name() Name        { return u.name }
func (u *Unavailable) IsAvailable() bool { return false }
func (u *Unavailable) Reason() string    { return u.reason }

type Status struct {
	Name      Name   `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Registry holds the process's capabilities by name.
// It is populated at startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[Name]Capability
	order   []Name
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[Name]Capability)}
}

// Register constructs a capability and stores it under name.
// Factory errors and panics are stored as an Unavailable marker; Register itself never fails.
func (r *Registry) Register(ctx context.Context, name Name, factory Factory) {
	c, err := construct(ctx, factory)
	switch {
	case err != nil:
		slog.Warn("capability unavailable", "capability", name, "reason", err)
		c = NewUnavailable(name, err.Error())
	case c == nil:
		slog.Warn("capability unavailable", "capability", name, "reason", "factory returned nil")
		c = NewUnavailable(name, "not configured")
	case !c.IsAvailable():
		slog.Warn("capability unavailable", "capability", name, "reason", "readiness probe failed")
	default:
		slog.Info("capability registered", "capability", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = c
}

func construct(ctx context.Context, factory Factory) (c Capability, err error) {
	defer func() {
		if p := recover(); p != nil {
			c = nil
			err = fmt.Errorf("panic during initialization: %v", p)
		}
	}()
	return factory(ctx)
}

// Get returns the capability registered under name, or an Unavailable marker.
func (r *Registry) Get(name Name) Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.entries[name]
	if !ok {
		return NewUnavailable(name, "not registered")
	}
	return c
}

func (r *Registry) IsAvailable(name Name) bool {
	return r.Get(name).IsAvailable()
}

// Statuses lists every registered capability in registration order.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]Status, 0, len(r.order))
	for _, name := range r.order {
		c := r.entries[name]
		status := Status{Name: name, Available: c.IsAvailable()}
		if u, ok := c.(*Unavailable); ok {
			status.Reason = u.Reason()
		} else if !status.Available {
			status.Reason = "readiness probe failed"
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Lookup returns the capability under name as T when it is available.
func Lookup[T Capability](r *Registry, name Name) (T, bool) {
	var zero T
	c := r.Get(name)
	if !c.IsAvailable() {
		return zero, false
	}
	t, ok := c.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
