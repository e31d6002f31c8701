// Package keymap resolves keysym names to keycodes of the running X server.
package keymap

import "sync"

// Unresolved is returned for names the keymap does not know.
const Unresolved uint8 = 0

// Keymap is the keycode collaborator. Start begins initialization and calls
// ready exactly once when lookups become meaningful.
type Keymap interface {
	Start(ready func()) error
	Keycode(name string) uint8
}

// Static is a fixed name to keycode table, ready immediately.
type Static struct {
	mu    sync.RWMutex
	codes map[string]uint8
}

func NewStatic(codes map[string]uint8) *Static {
	s := &Static{codes: make(map[string]uint8, len(codes))}
	for name, code := range codes {
		s.codes[name] = code
	}
	return s
}

func (s *Static) Start(ready func()) error {
	if ready != nil {
		ready()
	}
	return nil
}

func (s *Static) Keycode(name string) uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codes[name]
}

func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}

func (s *Static) replace(codes map[string]uint8) {
	s.mu.Lock()
	s.codes = codes
	s.mu.Unlock()
}
