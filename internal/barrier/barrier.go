// Package barrier joins a fixed set of named readiness signals and runs a
// continuation once all of them have arrived.
package barrier

import (
	"sort"
	"sync"
)

type Barrier struct {
	mu      sync.Mutex
	pending map[string]struct{}
	onReady func()
	fired   bool
}

// New arms a barrier over names. onReady runs exactly once, on the goroutine
// that delivers the last signal. A barrier with no names never fires.
func New(onReady func(), names ...string) *Barrier {
	b := &Barrier{
		pending: make(map[string]struct{}, len(names)),
		onReady: onReady,
	}
	for _, name := range names {
		if _, dup := b.pending[name]; dup {
			continue
		}
		b.pending[name] = struct{}{}
	}
	return b
}

// Signal marks name as ready. It reports whether the call changed state;
// repeats and unknown names are ignored.
func (b *Barrier) Signal(name string) bool {
	b.mu.Lock()
	if _, ok := b.pending[name]; !ok {
		b.mu.Unlock()
		return false
	}
	delete(b.pending, name)
	fire := len(b.pending) == 0 && !b.fired
	if fire {
		b.fired = true
	}
	b.mu.Unlock()

	if fire && b.onReady != nil {
		b.onReady()
	}
	return true
}

// Ready reports whether every signal has arrived.
func (b *Barrier) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}

// Pending returns the names still outstanding, sorted.
func (b *Barrier) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.pending))
	for name := range b.pending {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

