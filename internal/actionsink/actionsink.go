// Package actionsink plays synthesized actions into the window system.
package actionsink

import (
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/ginn/internal/wish"
)

// Performer accepts actions without blocking the caller.
type Performer interface {
	Perform(a wish.Action)
}

// Sink is the action-injection collaborator.
type Sink interface {
	Performer
	Start(ready func()) error
	Close() error
}

// Log records actions instead of injecting them.
type Log struct {
	logger *slog.Logger

	mu      sync.Mutex
	history []wish.Action
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{logger: logger}
}

func (l *Log) Start(ready func()) error {
	if ready != nil {
		ready()
	}
	return nil
}

func (l *Log) Perform(a wish.Action) {
	l.mu.Lock()
	l.history = append(l.history, a)
	l.mu.Unlock()
	l.logger.Info("action", "events", a.String())
}

// Performed returns every action seen so far.
func (l *Log) Performed() []wish.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]wish.Action, len(l.history))
	copy(out, l.history)
	return out
}

func (l *Log) Close() error { return nil }
