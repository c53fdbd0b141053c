package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/internal/clock"
)

func TestRegistry(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reg := NewRegistry(newFakeBackend(), 0, WithClock(fake))
	defer reg.Close()

	id1, p1 := reg.Create()
	id2, _ := reg.Create()
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, id1, p1.State().SessionID)

	got, ok := reg.Get(id1)
	require.True(t, ok)
	assert.Same(t, p1, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	// id1 touched at 20m, id2 idle since 0
	fake.Advance(20 * time.Minute)
	_, ok = reg.Get(id1)
	require.True(t, ok)
	fake.Advance(11 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	_, ok = reg.Get(id2)
	assert.False(t, ok)
	_, ok = reg.Get(id1)
	assert.True(t, ok)

	assert.True(t, reg.Remove(id1))
	assert.False(t, reg.Remove(id1))
	assert.Zero(t, reg.Len())

	// a removed session's pipeline is closed
	_, open := <-p1.Subscribe()
	assert.False(t, open)
}

func TestRegistrySessionsAreIndependent(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := newFakeBackend()
	reg := NewRegistry(backend, time.Minute, WithClock(fake))
	defer reg.Close()

	_, a := reg.Create()
	_, b := reg.Create()

	a.OnQueryChange("go")
	b.OnQueryChange("rust")
	fake.Advance(DefaultDebounce)

	stA := waitPhase(t, a, PhaseSettled)
	stB := waitPhase(t, b, PhaseSettled)
	assert.Equal(t, "go", resultID(stA))
	assert.Equal(t, "rust", resultID(stB))

	b.Clear()
	assert.Equal(t, "go", resultID(a.State()))
}
