package daemon

import (
	"context"
	"sync"
)

// Poster schedules callbacks to run one at a time.
type Poster interface {
	Post(fn func())
}

// Inline runs callbacks immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

// Reactor is an unbounded FIFO of callbacks drained by Run. Post never
// blocks, including from inside a running callback.
type Reactor struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

func NewReactor() *Reactor {
	return &Reactor{wake: make(chan struct{}, 1)}
}

func (r *Reactor) Post(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, fn)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run drains callbacks until ctx is cancelled. Callbacks still queued at
// that point are dropped.
func (r *Reactor) Run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.closed = true
		r.queue = nil
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}

		for {
			r.mu.Lock()
			if len(r.queue) == 0 {
				r.mu.Unlock()
				break
			}
			fn := r.queue[0]
			r.queue[0] = nil
			r.queue = r.queue[1:]
			r.mu.Unlock()

			fn()

			if ctx.Err() != nil {
				return
			}
		}
	}
}
