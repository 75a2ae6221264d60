// Package clock drives a simulation at a fixed tick rate and buffers the
// snapshot produced after each tick.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/inconshreveable/log15/v3"
)

const (
	DefaultTickRate        = 30
	DefaultCatchupMaxTicks = 4
)

// Simulation is advanced once per tick
type Simulation[S any] interface {
	Update(dt float64)
	Snapshot() S
}

// Clock abstracts time for tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config tunes the loop
type Config struct {
	TickRate        int
	CatchupMaxTicks int
	Clock           Clock
	Logger          log15.Logger
}

// Result describes one executed tick
type Result[S any] struct {
	Tick     uint64
	Delta    float64
	Clamped  bool
	Duration time.Duration
	Budget   time.Duration
	Snapshot S
}

// Hooks are invoked synchronously from the loop
type Hooks[S any] struct {
	AfterStep func(Result[S])
}

// Loop owns the tick counter and the latest snapshot of a simulation
type Loop[S any] struct {
	sim    Simulation[S]
	hooks  Hooks[S]
	clock  Clock
	logger log15.Logger

	tickRate      int
	budgetSeconds float64
	maxDelta      float64

	stepMu sync.Mutex
	mu     sync.RWMutex
	tick   uint64
	latest S
}

// New wraps a simulation. Zero config values fall back to defaults.
func New[S any](sim Simulation[S], cfg Config, hooks Hooks[S]) *Loop[S] {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	catchup := cfg.CatchupMaxTicks
	if catchup <= 0 {
		catchup = DefaultCatchupMaxTicks
	}
	clk := cfg.Clock
	if clk == nil {
		clk = SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log15.New("module", "clock")
	}

	budget := 1.0 / float64(tickRate)
	l := &Loop[S]{
		sim:           sim,
		hooks:         hooks,
		clock:         clk,
		logger:        logger,
		tickRate:      tickRate,
		budgetSeconds: budget,
		maxDelta:      budget * float64(catchup),
	}
	l.latest = sim.Snapshot()
	return l
}

// Budget is the wall time available to one tick
func (l *Loop[S]) Budget() time.Duration {
	return time.Second / time.Duration(l.tickRate)
}

// Step runs one tick with the given elapsed seconds. Non-positive deltas
// count as one budget; deltas beyond the catch-up window are clamped.
func (l *Loop[S]) Step(dt float64) Result[S] {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()

	clamped := false
	if dt <= 0 {
		dt = l.budgetSeconds
	} else if dt > l.maxDelta {
		dt = l.maxDelta
		clamped = true
	}

	start := l.clock.Now()
	l.sim.Update(dt)
	snap := l.sim.Snapshot()
	duration := l.clock.Now().Sub(start)

	l.mu.Lock()
	l.tick++
	tick := l.tick
	l.latest = snap
	l.mu.Unlock()

	result := Result[S]{
		Tick:     tick,
		Delta:    dt,
		Clamped:  clamped,
		Duration: duration,
		Budget:   l.Budget(),
		Snapshot: snap,
	}
	if clamped {
		l.logger.Debug("tick delta clamped", "tick", tick, "dt", dt)
	}
	if duration > result.Budget {
		l.logger.Warn("tick over budget", "tick", tick, "duration", duration, "budget", result.Budget)
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result
}

// Run ticks at the configured rate until ctx is done
func (l *Loop[S]) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Budget())
	defer ticker.Stop()

	last := l.clock.Now()
	l.logger.Debug("loop started", "tickRate", l.tickRate)
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "tick", l.Tick())
			return ctx.Err()
		case <-ticker.C:
			now := l.clock.Now()
			dt := now.Sub(last).Seconds()
			last = now
			l.Step(dt)
		}
	}
}

// Latest returns the snapshot of the most recent tick and its number
func (l *Loop[S]) Latest() (S, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest, l.tick
}

// Tick returns the number of executed ticks
func (l *Loop[S]) Tick() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tick
}
