// Package watch keeps, per window, the wishes that apply to it and matches
// incoming gesture events against them.
package watch

import (
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/ginn/internal/actionsink"
	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/gesture"
	"github.com/1broseidon/ginn/internal/wish"
)

// Watch binds one wish to one window through a gesture subscription.
type Watch struct {
	app   apps.Application
	win   apps.Window
	wish  *wish.Wish
	sub   gesture.Subscription
	accum float64
}

// Info is a read-only view of a watch.
type Info struct {
	WindowID    apps.WindowID
	Title       string
	AppID       string
	AppName     string
	Wish        string
	Rule        string
	Accumulated float64
}

// Observer is told about watches as they come and go.
type Observer func(app apps.Application, win apps.Window, w *wish.Wish)

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithGranted(fn Observer) Option {
	return func(r *Registry) { r.onGranted = fn }
}

func WithRevoked(fn Observer) Option {
	return func(r *Registry) { r.onRevoked = fn }
}

// Registry is safe for concurrent use. Observers and the action performer
// run after the registry lock is released.
type Registry struct {
	subscriber gesture.Subscriber
	performer  actionsink.Performer
	logger     *slog.Logger
	onGranted  Observer
	onRevoked  Observer

	mu      sync.Mutex
	windows map[apps.WindowID][]*Watch
}

func New(subscriber gesture.Subscriber, performer actionsink.Performer, opts ...Option) *Registry {
	r := &Registry{
		subscriber: subscriber,
		performer:  performer,
		windows:    make(map[apps.WindowID][]*Watch),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Grant creates a watch for every wish in table that applies to the window
// and is not watched yet. It returns the number of watches created.
func (r *Registry) Grant(table wish.Table, app apps.Application, win apps.Window) int {
	wishes := table.Lookup(app.ID, app.Name).All()
	if len(wishes) == 0 {
		return 0
	}

	var granted []*Watch
	r.mu.Lock()
	existing := r.windows[win.ID]
	for _, w := range wishes {
		if hasWish(existing, w.Name()) {
			continue
		}
		sub, err := r.subscriber.Subscribe(win.ID, w)
		if err != nil {
			r.logger.Warn("gesture subscription failed", "window_id", win.ID, "app", app.ID, "wish", w.Name(), "error", err)
			continue
		}
		watch := &Watch{app: app, win: win, wish: w, sub: sub}
		existing = append(existing, watch)
		granted = append(granted, watch)
	}
	if len(existing) > 0 {
		r.windows[win.ID] = existing
	}
	r.mu.Unlock()

	for _, watch := range granted {
		r.logger.Debug("wish granted", "window_id", win.ID, "app", app.ID, "wish", watch.wish.Name())
		if r.onGranted != nil {
			r.onGranted(watch.app, watch.win, watch.wish)
		}
	}
	return len(granted)
}

func hasWish(watches []*Watch, name string) bool {
	for _, w := range watches {
		if w.wish.Name() == name {
			return true
		}
	}
	return false
}

// Revoke removes every watch of the window and releases its subscriptions.
func (r *Registry) Revoke(id apps.WindowID) int {
	r.mu.Lock()
	watches := r.windows[id]
	delete(r.windows, id)
	r.mu.Unlock()

	r.release(watches)
	return len(watches)
}

// RevokeAll removes every watch.
func (r *Registry) RevokeAll() int {
	r.mu.Lock()
	all := r.windows
	r.windows = make(map[apps.WindowID][]*Watch)
	r.mu.Unlock()

	n := 0
	for _, watches := range all {
		r.release(watches)
		n += len(watches)
	}
	return n
}

func (r *Registry) release(watches []*Watch) {
	for _, watch := range watches {
		if err := watch.sub.Close(); err != nil {
			r.logger.Warn("gesture unsubscribe failed", "window_id", watch.win.ID, "wish", watch.wish.Name(), "error", err)
		}
		r.logger.Debug("wish revoked", "window_id", watch.win.ID, "app", watch.app.ID, "wish", watch.wish.Name())
		if r.onRevoked != nil {
			r.onRevoked(watch.app, watch.win, watch.wish)
		}
	}
}

// Dispatch matches the event against the window's watches in the order they
// were granted and performs the first satisfied wish's action. A finish
// event clears every accumulator of the window. It reports whether an action
// was performed.
func (r *Registry) Dispatch(ev gesture.Event) bool {
	r.mu.Lock()
	watches := r.windows[ev.Window]
	var fired *Watch
	for _, watch := range watches {
		if matches(watch, ev) {
			fired = watch
			watch.accum = 0
			break
		}
	}
	if ev.Phase == wish.PhaseFinish {
		for _, watch := range watches {
			watch.accum = 0
		}
	}
	r.mu.Unlock()

	if fired == nil {
		return false
	}
	r.logger.Debug("wish fired", "window_id", ev.Window, "app", fired.app.ID, "wish", fired.wish.Name())
	r.performer.Perform(fired.wish.Action)
	return true
}

// matches applies one event to one watch, updating its accumulator.
// The caller holds the registry lock.
func matches(watch *Watch, ev gesture.Event) bool {
	w := watch.wish
	if ev.Gesture.Specified() && ev.Gesture != w.Gesture {
		return false
	}
	if ev.Phase != w.Phase {
		return false
	}
	value, ok := ev.Attrs[w.Property]
	if !ok {
		return false
	}
	if w.Accumulate {
		watch.accum += value
		value = watch.accum
	}
	return w.InRange(value)
}

// Len is the total number of live watches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, watches := range r.windows {
		n += len(watches)
	}
	return n
}

// Snapshot lists every watch, by window id then grant order.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]apps.WindowID, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Info
	for _, id := range ids {
		for _, watch := range r.windows[id] {
			out = append(out, Info{
				WindowID:    id,
				Title:       watch.win.Title,
				AppID:       watch.app.ID,
				AppName:     watch.app.Name,
				Wish:        watch.wish.Name(),
				Rule:        watch.wish.String(),
				Accumulated: watch.accum,
			})
		}
	}
	return out
}
