package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapability struct {
	Base
	calls int
}

func (f *fakeCapability) Invoke(_ context.Context, in string) Result[string] {
	f.calls++
	return OK("echo: " + in)
}

func TestRegistry_RegisterAvailable(t *testing.T) {
	r := NewRegistry()
	r.Register(context.Background(), Tag, func(context.Context) (Capability, error) {
		return &fakeCapability{Base: NewBase(Tag, true)}, nil
	})

	assert.True(t, r.IsAvailable(Tag))

	c, ok := Lookup[Invoker[string, string]](r, Tag)
	require.True(t, ok)
	res := c.Invoke(context.Background(), "hi")
	assert.True(t, res.Success)
	assert.Equal(t, "echo: hi", res.Payload)
}

func TestRegistry_FactoryErrorStoresUnavailableMarker(t *testing.T) {
	r := NewRegistry()
	r.Register(context.Background(), Image, func(context.Context) (Capability, error) {
		return nil, errors.New("OPENAI_API_KEY not set")
	})

	c := r.Get(Image)
	require.NotNil(t, c)
	assert.False(t, c.IsAvailable())
	assert.Equal(t, Image, c.Name())

	_, ok := Lookup[Invoker[string, string]](r, Image)
	assert.False(t, ok)

	statuses := r.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, Status{Name: Image, Available: false, Reason: "OPENAI_API_KEY not set"}, statuses[0])
}

func TestRegistry_FactoryPanicIsContained(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() {
		r.Register(context.Background(), Video, func(context.Context) (Capability, error) {
			panic("boom")
		})
	})

	assert.False(t, r.IsAvailable(Video))
	assert.Contains(t, r.Statuses()[0].Reason, "boom")
}

func TestRegistry_GetUnknownNeverNil(t *testing.T) {
	r := NewRegistry()

	c := r.Get(Audio)
	require.NotNil(t, c)
	assert.False(t, c.IsAvailable())
	assert.Equal(t, Audio, c.Name())
	assert.Empty(t, r.Statuses())
}

func TestRegistry_UnavailableAdapterIsNotLookedUp(t *testing.T) {
	r := NewRegistry()
	r.Register(context.Background(), Tag, func(context.Context) (Capability, error) {
		return &fakeCapability{Base: NewBase(Tag, false)}, nil
	})

	_, ok := Lookup[*fakeCapability](r, Tag)
	assert.False(t, ok)
	assert.Equal(t, "readiness probe failed", r.Statuses()[0].Reason)
}

func TestRegistry_StatusesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []Name{Storage, Audio, Export} {
		r.Register(context.Background(), name, func(context.Context) (Capability, error) {
			return &fakeCapability{Base: NewBase(name, true)}, nil
		})
	}

	var names []Name
	for _, s := range r.Statuses() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []Name{Storage, Audio, Export}, names)
}
