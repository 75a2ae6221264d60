package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/agent-office/game/clock"
	"github.com/wricardo/agent-office/game/engine"
)

// Office is one running simulation plus its metadata.
// The engine is only touched while holding the office lock.
type Office struct {
	ID         string
	LayoutName string
	CreatedAt  time.Time

	Engine *engine.OfficeEngine
	Loop   *clock.Loop[*engine.Snapshot]

	mu           sync.Mutex
	lastAccessed time.Time
	stop         context.CancelFunc
	done         chan struct{}
}

// NewOffice wraps an engine and builds its frame loop
func NewOffice(id, layoutName string, eng *engine.OfficeEngine, cfg clock.Config, hooks clock.Hooks[*engine.Snapshot]) *Office {
	now := time.Now()
	o := &Office{
		ID:           id,
		LayoutName:   layoutName,
		CreatedAt:    now,
		Engine:       eng,
		lastAccessed: now,
	}
	o.Loop = clock.New[*engine.Snapshot](o, cfg, hooks)
	return o
}

// LastAccessed returns when the office was last used
func (o *Office) LastAccessed() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastAccessed
}

// Touch records an access at t. Must not be called from inside Do.
func (o *Office) Touch(t time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastAccessed = t
}

// Update advances the engine by one tick
func (o *Office) Update(dt float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Engine.Update(dt)
}

// Snapshot captures the engine state
func (o *Office) Snapshot() *engine.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Engine.Snapshot()
}

// Do runs fn with exclusive access to the engine
func (o *Office) Do(fn func(e *engine.OfficeEngine) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fn(o.Engine)
}

// Start runs the frame loop in the background until Stop or ctx is done.
// Calling Start on a running office does nothing.
func (o *Office) Start(ctx context.Context) {
	o.mu.Lock()
	if o.stop != nil {
		o.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.stop = cancel
	o.done = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		o.Loop.Run(ctx)
	}()
}

// Stop halts the frame loop and waits for it to exit
func (o *Office) Stop() {
	o.mu.Lock()
	cancel, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the frame loop is active
func (o *Office) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stop != nil
}
