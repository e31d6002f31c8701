// Package apps models the running applications and their top-level windows
// as reported by the window system.
package apps

import (
	"sort"
	"sync"
)

// WindowID is the window system's identifier for a top-level window.
type WindowID uint32

// Application is identified primarily by ID (desktop file or WM_CLASS
// instance) and secondarily by its display Name.
type Application struct {
	ID   string
	Name string
}

// Window is a top-level window. It refers to its application by AppID.
type Window struct {
	ID      WindowID
	AppID   string
	Title   string
	Active  bool
	Visible bool
	Monitor int
}

// Entry pairs a window with its application.
type Entry struct {
	App    Application
	Window Window
}

// Observer receives registry notifications. Any field may be nil.
type Observer struct {
	Initialized  func()
	WindowOpened func(app Application, win Window)
	WindowClosed func(app Application, win Window)
}

// Registry is the window-system collaborator.
type Registry interface {
	// Start begins enumeration; Initialized fires once the first full
	// enumeration is complete.
	Start(obs Observer) error
	// ReplayWindows redelivers WindowOpened for every window currently known.
	ReplayWindows()
	Snapshot() []Entry
	Close() error
}

// Arena owns applications and windows. Windows are stored by id and refer
// to applications by id; an application lives while it has windows.
type Arena struct {
	mu      sync.Mutex
	apps    map[string]*arenaApp
	windows map[WindowID]Window
}

type arenaApp struct {
	app     Application
	windows int
}

func NewArena() *Arena {
	return &Arena{
		apps:    make(map[string]*arenaApp),
		windows: make(map[WindowID]Window),
	}
}

// Open records win for app. It reports false when the window was already
// known, in which case its fields are refreshed.
func (a *Arena) Open(app Application, win Window) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	win.AppID = app.ID
	if old, ok := a.windows[win.ID]; ok {
		if old.AppID == app.ID {
			a.windows[win.ID] = win
			a.apps[app.ID].app = app
			return false
		}
		a.releaseLocked(old)
	}

	entry, ok := a.apps[app.ID]
	if !ok {
		entry = &arenaApp{}
		a.apps[app.ID] = entry
	}
	entry.app = app
	entry.windows++
	a.windows[win.ID] = win
	return true
}

// Close forgets the window and returns its last entry.
func (a *Arena) Close(id WindowID) (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	win, ok := a.windows[id]
	if !ok {
		return Entry{}, false
	}
	app := a.apps[win.AppID].app
	delete(a.windows, id)
	a.releaseLocked(win)
	return Entry{App: app, Window: win}, true
}

func (a *Arena) releaseLocked(win Window) {
	entry, ok := a.apps[win.AppID]
	if !ok {
		return
	}
	entry.windows--
	if entry.windows <= 0 {
		delete(a.apps, win.AppID)
	}
}

// Update replaces the mutable fields of a known window.
func (a *Arena) Update(win Window) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.windows[win.ID]
	if !ok {
		return false
	}
	win.AppID = old.AppID
	a.windows[win.ID] = win
	return true
}

func (a *Arena) Window(id WindowID) (Window, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	win, ok := a.windows[id]
	return win, ok
}

func (a *Arena) application(id string) (Application, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.apps[id]
	if !ok {
		return Application{}, false
	}
	return entry.app, true
}

// IDs returns the known window ids in ascending order.
func (a *Arena) IDs() []WindowID {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]WindowID, 0, len(a.windows))
	for id := range a.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns every window with its application, ordered by window id.
func (a *Arena) Snapshot() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, 0, len(a.windows))
	for _, win := range a.windows {
		out = append(out, Entry{App: a.apps[win.AppID].app, Window: win})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.ID < out[j].Window.ID })
	return out
}

func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.windows)
}
