// Package gesture delivers recognized gesture events scoped to windows.
package gesture

import (
	"fmt"
	"sync"

	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/wish"
)

// Event is one gesture sample for one window. Gesture may be left
// unspecified by channels that only deliver subscribed gesture types.
type Event struct {
	Window  apps.WindowID
	Phase   wish.Phase
	Gesture wish.GestureType
	Attrs   map[string]float64
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s window=%d attrs=%v", e.Gesture, e.Phase, e.Window, e.Attrs)
}

// Observer receives channel notifications. Any field may be nil.
type Observer struct {
	Initialized func()
	Event       func(Event)
}

// Subscription is a live interest in one gesture type on one window.
type Subscription interface {
	Close() error
}

// Subscriber creates subscriptions.
type Subscriber interface {
	Subscribe(window apps.WindowID, w *wish.Wish) (Subscription, error)
}

// Channel is the gesture-source collaborator.
type Channel interface {
	Subscriber
	Start(obs Observer) error
	Close() error
}

type subscriptionKey struct {
	window  apps.WindowID
	gesture wish.GestureType
}

// Subscriptions is a reference-counted set of (window, gesture type)
// interests shared by the channel adapters.
type Subscriptions struct {
	mu   sync.Mutex
	refs map[subscriptionKey]int
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{refs: make(map[subscriptionKey]int)}
}

// Add registers interest and returns a handle that releases it once.
func (s *Subscriptions) Add(window apps.WindowID, gesture wish.GestureType) Subscription {
	key := subscriptionKey{window: window, gesture: gesture}
	s.mu.Lock()
	s.refs[key]++
	s.mu.Unlock()
	return &subscription{set: s, key: key}
}

// Wants reports whether any subscription matches.
func (s *Subscriptions) Wants(window apps.WindowID, gesture wish.GestureType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[subscriptionKey{window: window, gesture: gesture}] > 0
}

func (s *Subscriptions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, refs := range s.refs {
		n += refs
	}
	return n
}

func (s *Subscriptions) release(key subscriptionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[key] <= 1 {
		delete(s.refs, key)
		return
	}
	s.refs[key]--
}

type subscription struct {
	set  *Subscriptions
	key  subscriptionKey
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.set.release(s.key) })
	return nil
}
