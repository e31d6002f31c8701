// Package daemon wires the collaborators together: it waits for every one of
// them to become ready, loads the wishes, and keeps watches in step with the
// windows that come and go.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/ginn/internal/actionsink"
	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/barrier"
	"github.com/1broseidon/ginn/internal/gesture"
	"github.com/1broseidon/ginn/internal/ipc"
	"github.com/1broseidon/ginn/internal/keymap"
	"github.com/1broseidon/ginn/internal/watch"
	"github.com/1broseidon/ginn/internal/wish"
)

// Barrier signal names, one per collaborator.
const (
	SignalKeymap   = "keymap"
	SignalApps     = "apps"
	SignalGestures = "gestures"
	SignalActions  = "actions"
)

var (
	// ErrNotInitialized is returned by operations that need a loaded table.
	ErrNotInitialized = errors.New("daemon not initialized")
	// ErrStopped is returned once the daemon has shut down.
	ErrStopped = errors.New("daemon stopped")
	// ErrPanic is returned when a synchronous call panicked on the loop.
	ErrPanic = errors.New("panic on loop")
)

// Options lists the collaborators. Loop defaults to a Reactor driven by Run.
type Options struct {
	Keymap   keymap.Keymap
	Apps     apps.Registry
	Gestures gesture.Channel
	Actions  actionsink.Sink
	Sources  SourceLoader
	Loop     Poster
	Logger   *slog.Logger
}

// Daemon owns the wish table and the watch registry. Every collaborator
// callback runs on the loop, one at a time.
type Daemon struct {
	opts     Options
	loop     Poster
	reactor  *Reactor
	logger   *slog.Logger
	registry *watch.Registry
	barrier  *barrier.Barrier

	mu          sync.Mutex
	initialized bool
	table       wish.Table
	windows     map[apps.WindowID]apps.Entry
	sources     []string
	reloads     int

	fatal    chan error
	stopped  chan struct{}
	stopOnce sync.Once
}

func New(opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Daemon{
		opts:    opts,
		loop:    opts.Loop,
		logger:  logger,
		table:   wish.Table{},
		windows: make(map[apps.WindowID]apps.Entry),
		fatal:   make(chan error, 1),
		stopped: make(chan struct{}),
	}
	if d.loop == nil {
		d.reactor = NewReactor()
		d.loop = d.reactor
	}
	d.registry = watch.New(opts.Gestures, opts.Actions, watch.WithLogger(logger))
	return d
}

// Start arms the barrier and starts every collaborator. A collaborator that
// fails to start aborts the daemon.
func (d *Daemon) Start() error {
	d.barrier = barrier.New(d.onReady, SignalKeymap, SignalApps, SignalGestures, SignalActions)

	if err := d.opts.Keymap.Start(d.signaler(SignalKeymap)); err != nil {
		return fmt.Errorf("start keymap: %w", err)
	}
	if err := d.opts.Actions.Start(d.signaler(SignalActions)); err != nil {
		return fmt.Errorf("start action sink: %w", err)
	}
	err := d.opts.Gestures.Start(gesture.Observer{
		Initialized: d.signaler(SignalGestures),
		Event: func(ev gesture.Event) {
			d.loop.Post(func() { d.onGesture(ev) })
		},
	})
	if err != nil {
		return fmt.Errorf("start gesture channel: %w", err)
	}
	err = d.opts.Apps.Start(apps.Observer{
		Initialized: d.signaler(SignalApps),
		WindowOpened: func(app apps.Application, win apps.Window) {
			d.loop.Post(func() { d.onWindowOpened(app, win) })
		},
		WindowClosed: func(app apps.Application, win apps.Window) {
			d.loop.Post(func() { d.onWindowClosed(app, win) })
		},
	})
	if err != nil {
		return fmt.Errorf("start application registry: %w", err)
	}
	return nil
}

func (d *Daemon) signaler(name string) func() {
	return func() {
		d.loop.Post(func() {
			if d.barrier.Signal(name) {
				d.logger.Debug("collaborator ready", "name", name, "pending", d.barrier.Pending())
			}
		})
	}
}

// onReady loads the table, grants every window seen so far and asks the
// registry to replay its windows.
func (d *Daemon) onReady() {
	table, loaded, err := d.loadTable()
	if err != nil {
		d.fail(err)
		return
	}

	d.mu.Lock()
	d.table = table
	d.sources = loaded
	d.initialized = true
	known := d.knownLocked()
	d.mu.Unlock()

	granted := 0
	for _, e := range known {
		granted += d.registry.Grant(table, e.App, e.Window)
	}
	d.logger.Info("ginn initialized",
		"sources", len(loaded),
		"apps", len(table),
		"wishes", table.WishCount(),
		"windows", len(known),
		"watches", granted)

	d.opts.Apps.ReplayWindows()
}

func (d *Daemon) loadTable() (wish.Table, []string, error) {
	sources, err := d.opts.Sources.Load()
	if err != nil {
		return nil, nil, err
	}
	table, report := wish.Load(sources, d.opts.Keymap, d.logger)
	if len(report.Skipped) > 0 {
		d.logger.Warn("some wish sources were skipped", "skipped", report.Skipped)
	}
	return table, report.Loaded, nil
}

func (d *Daemon) knownLocked() []apps.Entry {
	out := make([]apps.Entry, 0, len(d.windows))
	for _, e := range d.windows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.ID < out[j].Window.ID })
	return out
}

func (d *Daemon) onWindowOpened(app apps.Application, win apps.Window) {
	d.mu.Lock()
	d.windows[win.ID] = apps.Entry{App: app, Window: win}
	ready := d.initialized
	table := d.table
	d.mu.Unlock()

	if !ready {
		d.logger.Debug("window recorded before init", "window_id", win.ID, "app", app.ID)
		return
	}
	if n := d.registry.Grant(table, app, win); n > 0 {
		d.logger.Debug("window watched", "window_id", win.ID, "app", app.ID, "watches", n)
	}
}

func (d *Daemon) onWindowClosed(app apps.Application, win apps.Window) {
	d.mu.Lock()
	delete(d.windows, win.ID)
	d.mu.Unlock()

	if n := d.registry.Revoke(win.ID); n > 0 {
		d.logger.Debug("window released", "window_id", win.ID, "app", app.ID, "watches", n)
	}
}

func (d *Daemon) onGesture(ev gesture.Event) {
	d.mu.Lock()
	ready := d.initialized
	d.mu.Unlock()
	if !ready {
		return
	}
	d.registry.Dispatch(ev)
}

// reload replaces the table and regrants every known window. A reload that
// loads no source keeps the current table.
func (d *Daemon) reload() error {
	d.mu.Lock()
	ready := d.initialized
	d.mu.Unlock()
	if !ready {
		return ErrNotInitialized
	}

	table, loaded, err := d.loadTable()
	if err != nil {
		return fmt.Errorf("reload wishes: %w", err)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("reload wishes: every source failed to parse, keeping current wishes")
	}

	d.mu.Lock()
	d.table = table
	d.sources = loaded
	d.reloads++
	known := d.knownLocked()
	d.mu.Unlock()

	revoked := d.registry.RevokeAll()
	granted := 0
	for _, e := range known {
		granted += d.registry.Grant(table, e.App, e.Window)
	}
	d.logger.Info("wishes reloaded",
		"sources", len(loaded),
		"wishes", table.WishCount(),
		"revoked", revoked,
		"granted", granted)
	return nil
}

// reconcile aligns the known windows with the registry snapshot. Windows
// missing from either side are treated as closed or opened.
func (d *Daemon) reconcile() (opened, closed int) {
	d.mu.Lock()
	ready := d.initialized
	d.mu.Unlock()
	if !ready {
		return 0, 0
	}

	actual := make(map[apps.WindowID]apps.Entry)
	for _, e := range d.opts.Apps.Snapshot() {
		actual[e.Window.ID] = e
	}

	d.mu.Lock()
	known := d.knownLocked()
	d.mu.Unlock()

	for _, e := range known {
		if _, ok := actual[e.Window.ID]; !ok {
			d.logger.Info("reconciler: stale window", "window_id", e.Window.ID, "app", e.App.ID)
			d.onWindowClosed(e.App, e.Window)
			closed++
		}
		delete(actual, e.Window.ID)
	}

	missing := make([]apps.Entry, 0, len(actual))
	for _, e := range actual {
		missing = append(missing, e)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Window.ID < missing[j].Window.ID })
	for _, e := range missing {
		d.logger.Info("reconciler: untracked window", "window_id", e.Window.ID, "app", e.App.ID)
		d.onWindowOpened(e.App, e.Window)
		opened++
	}
	return opened, closed
}

// call runs fn on the loop and waits for it. A panic in fn is reported as
// ErrPanic and leaves the loop running.
func (d *Daemon) call(fn func()) error {
	done := make(chan error, 1)
	d.loop.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("recovered panic on loop", "panic", r)
				done <- fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		fn()
		done <- nil
	})
	select {
	case err := <-done:
		return err
	case <-d.stopped:
		return ErrStopped
	}
}

// Reload reloads the wishes and waits for the result.
func (d *Daemon) Reload() error {
	var err error
	if cerr := d.call(func() { err = d.reload() }); cerr != nil {
		return cerr
	}
	return err
}

// RequestReload schedules a reload without waiting. Failures are logged.
func (d *Daemon) RequestReload() {
	d.loop.Post(func() {
		if err := d.reload(); err != nil {
			d.logger.Warn("reload failed", "error", err)
		}
	})
}

// Reconcile runs one drift check on the loop.
func (d *Daemon) Reconcile() (opened, closed int, err error) {
	err = d.call(func() { opened, closed = d.reconcile() })
	return opened, closed, err
}

// Initialized reports whether the barrier has fired and wishes are loaded.
func (d *Daemon) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Daemon) Status() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()

	appIDs := make(map[string]struct{})
	for _, e := range d.windows {
		appIDs[e.App.ID] = struct{}{}
	}
	status := ipc.StatusData{
		Initialized: d.initialized,
		WindowCount: len(d.windows),
		WatchCount:  d.registry.Len(),
		AppCount:    len(appIDs),
		WishCount:   d.table.WishCount(),
		Sources:     append([]string{}, d.sources...),
		Reloads:     d.reloads,
	}
	if d.barrier != nil {
		status.Pending = d.barrier.Pending()
	}
	return status
}

func (d *Daemon) Watches() []ipc.WatchInfo {
	snapshot := d.registry.Snapshot()
	out := make([]ipc.WatchInfo, 0, len(snapshot))
	for _, info := range snapshot {
		out = append(out, ipc.WatchInfo{
			WindowID:    uint32(info.WindowID),
			Title:       info.Title,
			AppID:       info.AppID,
			AppName:     info.AppName,
			Wish:        info.Wish,
			Rule:        info.Rule,
			Accumulated: info.Accumulated,
		})
	}
	return out
}

func (d *Daemon) Wishes() []ipc.WishInfo {
	d.mu.Lock()
	table := d.table
	d.mu.Unlock()

	var out []ipc.WishInfo
	for _, app := range table.Apps() {
		for _, w := range table[app].All() {
			out = append(out, ipc.WishInfo{App: app, Name: w.Name(), Rule: w.String()})
		}
	}
	return out
}

func (d *Daemon) fail(err error) {
	d.logger.Error("daemon failed", "error", err)
	select {
	case d.fatal <- err:
	default:
	}
}

// Fatal delivers the error that stopped initialization, if any.
func (d *Daemon) Fatal() <-chan error {
	return d.fatal
}

// Run drives the loop until ctx is cancelled or initialization fails.
// Call Shutdown afterwards.
func (d *Daemon) Run(ctx context.Context) error {
	if d.reactor != nil {
		go d.reactor.Run(ctx)
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-d.fatal:
		return err
	}
}

// Shutdown revokes every watch and closes the collaborators.
func (d *Daemon) Shutdown() error {
	d.stopOnce.Do(func() { close(d.stopped) })

	revoked := d.registry.RevokeAll()
	d.logger.Info("shutting down", "revoked", revoked)

	var errs []error
	if err := d.opts.Apps.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close application registry: %w", err))
	}
	if err := d.opts.Gestures.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gesture channel: %w", err))
	}
	if err := d.opts.Actions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close action sink: %w", err))
	}
	return errors.Join(errs...)
}
