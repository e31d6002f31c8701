package wish

import "sort"

// GlobalKey is the table entry consulted when no application entry matches.
const GlobalKey = "global"

// List is an ordered set of wishes keyed by name. Iteration follows first
// insertion; replacing a name keeps its position.
type List struct {
	order  []string
	byName map[string]*Wish
}

func NewList() *List {
	return &List{byName: make(map[string]*Wish)}
}

// Put inserts w, replacing any wish with the same name.
func (l *List) Put(w *Wish) {
	name := w.Name()
	if _, ok := l.byName[name]; !ok {
		l.order = append(l.order, name)
	}
	l.byName[name] = w
}

func (l *List) Get(name string) (*Wish, bool) {
	if l == nil {
		return nil, false
	}
	w, ok := l.byName[name]
	return w, ok
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// All returns the wishes in iteration order.
func (l *List) All() []*Wish {
	if l == nil {
		return nil
	}
	out := make([]*Wish, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// Table maps an application key to its wish list.
type Table map[string]*List

// Put adds w to the list for app, creating the list on first use.
func (t Table) Put(app string, w *Wish) {
	list, ok := t[app]
	if !ok {
		list = NewList()
		t[app] = list
	}
	list.Put(w)
}

// Merge folds other into t. Within an application key, wishes from other
// replace same-named wishes in t.
func (t Table) Merge(other Table) {
	for _, app := range other.Apps() {
		for _, w := range other[app].All() {
			t.Put(app, w)
		}
	}
}

// Lookup returns the list for the application id, then for the
// application name, then the global list. The first hit wins.
func (t Table) Lookup(appID, appName string) *List {
	if appID != "" {
		if list, ok := t[appID]; ok {
			return list
		}
	}
	if appName != "" {
		if list, ok := t[appName]; ok {
			return list
		}
	}
	return t[GlobalKey]
}

// Apps returns the application keys in sorted order.
func (t Table) Apps() []string {
	apps := make([]string, 0, len(t))
	for app := range t {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// WishCount is the total number of wishes across all applications.
func (t Table) WishCount() int {
	n := 0
	for _, list := range t {
		n += list.Len()
	}
	return n
}
