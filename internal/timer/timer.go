// Package timer runs the per-turn countdown as a scoped background process.
//
// A Timer never observes state after it is spawned. Pausing is done by the
// owner stopping it and starting a new one with Paused set, so every instance
// carries a generation number the owner uses to drop notifications that were
// already queued when it was replaced.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultInterval = time.Second

type Config struct {
	Gen      uint64
	Seconds  int
	Paused   bool
	Interval time.Duration
}

// Notification is a tick, or the terminal time-up when TimeUp is set.
type Notification struct {
	Gen       uint64
	Remaining int
	TimeUp    bool
}

type Timer struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start spawns the countdown. The first notification carries the full
// remaining value and is sent before any time passes.
func Start(parent context.Context, clock clockwork.Clock, cfg Config, out chan<- Notification) *Timer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Timer{
		gen:    cfg.Gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx, clock, cfg, out)
	return t
}

func (t *Timer) Gen() uint64 { return t.gen }

// Stop cancels the countdown and waits for it to exit. Nothing is sent on the
// output channel once Stop has returned. Safe to call more than once.
func (t *Timer) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed when the countdown goroutine has exited.
func (t *Timer) Done() <-chan struct{} { return t.done }

func (t *Timer) run(ctx context.Context, clock clockwork.Clock, cfg Config, out chan<- Notification) {
	defer close(t.done)

	remaining := cfg.Seconds
	if remaining < 0 {
		remaining = 0
	}
	if !send(ctx, out, Notification{Gen: cfg.Gen, Remaining: remaining}) {
		return
	}
	if cfg.Paused {
		return
	}
	if remaining == 0 {
		send(ctx, out, Notification{Gen: cfg.Gen, TimeUp: true})
		return
	}

	ticker := clock.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			remaining--
			if !send(ctx, out, Notification{Gen: cfg.Gen, Remaining: remaining}) {
				return
			}
			if remaining <= 0 {
				send(ctx, out, Notification{Gen: cfg.Gen, TimeUp: true})
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- Notification, n Notification) bool {
	// a cancelled timer must not win a race against a ready receiver
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- n:
		return true
	case <-ctx.Done():
		return false
	}
}
