package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterSim struct {
	mu     sync.Mutex
	deltas []float64
}

func (s *counterSim) Update(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, dt)
}

func (s *counterSim) Snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deltas)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestStepClampsDelta(t *testing.T) {
	sim := &counterSim{}
	loop := New[int](sim, Config{TickRate: 10, CatchupMaxTicks: 3, Clock: &fakeClock{}}, Hooks[int]{})

	r := loop.Step(0)
	assert.InDelta(t, 0.1, r.Delta, 1e-9, "non-positive delta becomes one budget")
	assert.False(t, r.Clamped)

	r = loop.Step(5)
	assert.InDelta(t, 0.3, r.Delta, 1e-9)
	assert.True(t, r.Clamped)

	r = loop.Step(0.05)
	assert.InDelta(t, 0.05, r.Delta, 1e-9)
	assert.Equal(t, uint64(3), r.Tick)
	assert.Equal(t, 3, r.Snapshot)
	assert.Equal(t, 100*time.Millisecond, r.Budget)
}

func TestLatestTracksLastStep(t *testing.T) {
	sim := &counterSim{}
	loop := New[int](sim, Config{}, Hooks[int]{})

	snap, tick := loop.Latest()
	assert.Equal(t, 0, snap)
	assert.Zero(t, tick)

	loop.Step(0.01)
	loop.Step(0.01)
	snap, tick = loop.Latest()
	assert.Equal(t, 2, snap)
	assert.Equal(t, uint64(2), tick)
}

func TestAfterStepHook(t *testing.T) {
	var seen []uint64
	loop := New[int](&counterSim{}, Config{}, Hooks[int]{
		AfterStep: func(r Result[int]) { seen = append(seen, r.Tick) },
	})
	loop.Step(0.01)
	loop.Step(0.01)
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestRunStopsOnCancel(t *testing.T) {
	sim := &counterSim{}
	ticked := make(chan struct{}, 1)
	loop := New[int](sim, Config{TickRate: 200}, Hooks[int]{
		AfterStep: func(Result[int]) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.GreaterOrEqual(t, loop.Tick(), uint64(1))
}
