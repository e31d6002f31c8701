package apps

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/ginn/internal/x11"
)

// windowSystem is the part of *x11.Connection the registry reads from.
type windowSystem interface {
	ClientList() ([]xproto.Window, error)
	GetActiveWindow() (xproto.Window, error)
	IsNormalWindow(xproto.Window) bool
	WindowClass(xproto.Window) (instance, class string, err error)
	WindowTitle(xproto.Window) string
	IsHidden(xproto.Window) bool
	GetMonitors() ([]x11.Monitor, error)
	MonitorForWindow([]x11.Monitor, xproto.Window) int
	WatchRootProperties(func(atom string)) error
	UnwatchRootProperties()
}

// X11Registry tracks top-level windows through _NET_CLIENT_LIST and the
// root window's PropertyNotify events.
type X11Registry struct {
	conn   windowSystem
	arena  *Arena
	logger *slog.Logger

	// syncMu serializes whole enumerations: the first one runs on its own
	// goroutine, later ones on the X event loop.
	syncMu sync.Mutex

	mu       sync.Mutex
	obs      Observer
	monitors []x11.Monitor
	started  bool
}

func NewX11Registry(conn *x11.Connection, logger *slog.Logger) *X11Registry {
	return newRegistry(conn, logger)
}

func newRegistry(conn windowSystem, logger *slog.Logger) *X11Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &X11Registry{
		conn:   conn,
		arena:  NewArena(),
		logger: logger,
	}
}

// Start performs the first enumeration asynchronously and then follows
// client list changes on the X event loop.
func (r *X11Registry) Start(obs Observer) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("x11 registry already started")
	}
	r.started = true
	r.obs = obs
	r.mu.Unlock()

	if err := r.conn.WatchRootProperties(r.onRootProperty); err != nil {
		return err
	}

	go func() {
		r.refreshMonitors()
		r.sync()
		if obs.Initialized != nil {
			obs.Initialized()
		}
	}()
	return nil
}

func (r *X11Registry) onRootProperty(atom string) {
	switch atom {
	case "_NET_CLIENT_LIST":
		r.sync()
	case "_NET_ACTIVE_WINDOW":
		r.refreshActive()
	}
}

func (r *X11Registry) refreshMonitors() {
	monitors, err := r.conn.GetMonitors()
	if err != nil {
		r.logger.Debug("monitor query failed", "error", err)
		return
	}
	r.mu.Lock()
	r.monitors = monitors
	r.mu.Unlock()
}

// sync diffs the client list against the arena and notifies the observer
// of every opened and closed window.
func (r *X11Registry) sync() {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	clients, err := r.conn.ClientList()
	if err != nil {
		r.logger.Warn("window enumeration failed", "error", err)
		return
	}

	active, _ := r.conn.GetActiveWindow()
	present := make(map[WindowID]struct{}, len(clients))
	for _, xid := range clients {
		id := WindowID(xid)
		present[id] = struct{}{}
		if _, known := r.arena.Window(id); known {
			continue
		}
		if !r.conn.IsNormalWindow(xid) {
			continue
		}
		app, win, ok := r.describe(xid, active)
		if !ok {
			continue
		}
		if r.arena.Open(app, win) {
			r.logger.Debug("window opened", "window_id", id, "app", app.ID, "title", win.Title)
			r.notifyOpened(app, win)
		}
	}

	for _, id := range r.arena.IDs() {
		if _, ok := present[id]; ok {
			continue
		}
		if entry, ok := r.arena.Close(id); ok {
			r.logger.Debug("window closed", "window_id", id, "app", entry.App.ID)
			r.notifyClosed(entry.App, entry.Window)
		}
	}
}

func (r *X11Registry) refreshActive() {
	active, err := r.conn.GetActiveWindow()
	if err != nil {
		return
	}
	for _, entry := range r.arena.Snapshot() {
		win := entry.Window
		isActive := win.ID == WindowID(active)
		if win.Active != isActive {
			win.Active = isActive
			r.arena.Update(win)
		}
	}
}

func (r *X11Registry) describe(xid, active xproto.Window) (Application, Window, bool) {
	instance, class, err := r.conn.WindowClass(xid)
	if err != nil {
		r.logger.Debug("skipping window without WM_CLASS", "window_id", uint32(xid), "error", err)
		return Application{}, Window{}, false
	}
	id := instance
	if id == "" {
		id = class
	}
	if id == "" {
		return Application{}, Window{}, false
	}

	r.mu.Lock()
	monitors := r.monitors
	r.mu.Unlock()

	app := Application{ID: id, Name: class}
	win := Window{
		ID:      WindowID(xid),
		Title:   r.conn.WindowTitle(xid),
		Active:  xid == active,
		Visible: !r.conn.IsHidden(xid),
		Monitor: r.conn.MonitorForWindow(monitors, xid),
	}
	return app, win, true
}

func (r *X11Registry) observer() Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.obs
}

func (r *X11Registry) notifyOpened(app Application, win Window) {
	if fn := r.observer().WindowOpened; fn != nil {
		fn(app, win)
	}
}

func (r *X11Registry) notifyClosed(app Application, win Window) {
	if fn := r.observer().WindowClosed; fn != nil {
		fn(app, win)
	}
}

func (r *X11Registry) ReplayWindows() {
	for _, entry := range r.arena.Snapshot() {
		r.notifyOpened(entry.App, entry.Window)
	}
}

func (r *X11Registry) Snapshot() []Entry {
	return r.arena.Snapshot()
}

// Close stops following root property changes. Observer callbacks stop
// with it; the connection itself belongs to the caller.
func (r *X11Registry) Close() error {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.obs = Observer{}
	r.mu.Unlock()

	if started {
		r.conn.UnwatchRootProperties()
	}
	return nil
}
