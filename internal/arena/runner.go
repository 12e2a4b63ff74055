package arena

import (
	"context"
	"sync"
	"time"
)

// Runner is the fixed-period driver: one Tick per TickDuration, nothing
// running concurrently with it. Other goroutines reach the arena through Do.
type Runner struct {
	mu    sync.Mutex
	arena *Arena

	subMu sync.Mutex
	subs  map[chan []string]struct{}
}

// NewRunner wraps a for serialized access.
func NewRunner(a *Arena) *Runner {
	return &Runner{arena: a, subs: map[chan []string]struct{}{}}
}

// Do runs fn with exclusive access to the arena.
func (r *Runner) Do(fn func(a *Arena)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.arena)
}

// Step performs one tick and publishes the snapshot if the arena moved.
func (r *Runner) Step() bool {
	r.mu.Lock()
	ticked := r.arena.Tick(r.arena.cfg.TickDuration)
	var snap []string
	if ticked {
		snap = r.arena.Snapshot()
	}
	r.mu.Unlock()
	if ticked {
		r.publish(snap)
	}
	return ticked
}

// Run ticks until ctx is done. Paused or idle arenas are polled but not
// advanced.
func (r *Runner) Run(ctx context.Context) error {
	var period time.Duration
	r.Do(func(a *Arena) { period = a.cfg.TickDuration })
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Step()
		}
	}
}

// Subscribe returns a channel receiving the snapshot after every tick.
// Slow subscribers miss snapshots rather than stall the loop.
func (r *Runner) Subscribe() (<-chan []string, func()) {
	ch := make(chan []string, 1)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()
	cancel := func() {
		r.subMu.Lock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
		r.subMu.Unlock()
	}
	return ch, cancel
}

func (r *Runner) publish(snap []string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
