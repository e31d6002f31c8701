package actionsink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"

	"github.com/1broseidon/ginn/internal/wish"
	"github.com/1broseidon/ginn/internal/x11"
)

// DefaultQueueSize bounds the number of actions waiting for injection.
const DefaultQueueSize = 64

var ErrClosed = errors.New("action sink closed")

// injector issues one fake input event.
type injector func(eventType byte, detail byte) error

// XTest injects actions with the XTEST extension. Perform queues the action
// for a worker goroutine.
type XTest struct {
	conn   *x11.Connection
	logger *slog.Logger
	queue  chan wish.Action
	inject injector
	flush  func() error

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

func NewXTest(conn *x11.Connection, queueSize int, logger *slog.Logger) *XTest {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &XTest{
		conn:   conn,
		logger: logger,
		queue:  make(chan wish.Action, queueSize),
		done:   make(chan struct{}),
	}
	s.inject = func(eventType, detail byte) error {
		return xtest.FakeInputChecked(s.conn.XUtil.Conn(), eventType, detail, 0, s.conn.Root, 0, 0, 0).Check()
	}
	s.flush = conn.Sync
	return s
}

// Start initializes the extension, verifies the server answers and then
// reports ready from the worker goroutine.
func (s *XTest) Start(ready func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("xtest sink already started")
	}
	if err := xtest.Init(s.conn.XUtil.Conn()); err != nil {
		return fmt.Errorf("xtest init failed: %w", err)
	}
	s.started = true

	go func() {
		reply, err := xtest.GetVersion(s.conn.XUtil.Conn(), 2, 2).Reply()
		if err != nil {
			s.logger.Warn("xtest version query failed", "error", err)
		} else {
			s.logger.Debug("xtest ready", "major", reply.MajorVersion, "minor", reply.MinorVersion)
		}
		if ready != nil {
			ready()
		}
		s.run()
	}()
	return nil
}

func (s *XTest) run() {
	defer close(s.done)
	for action := range s.queue {
		if err := s.play(action); err != nil {
			s.logger.Warn("action injection failed", "events", action.String(), "error", err)
		}
	}
}

func (s *XTest) play(a wish.Action) error {
	for _, ev := range a.Events() {
		eventType, err := eventTypeCode(ev.Type)
		if err != nil {
			return err
		}
		if err := s.inject(eventType, ev.Code); err != nil {
			return fmt.Errorf("fake %s: %w", ev, err)
		}
	}
	return s.flush()
}

func eventTypeCode(t wish.EventType) (byte, error) {
	switch t {
	case wish.KeyPress:
		return xproto.KeyPress, nil
	case wish.KeyRelease:
		return xproto.KeyRelease, nil
	case wish.ButtonPress:
		return xproto.ButtonPress, nil
	case wish.ButtonRelease:
		return xproto.ButtonRelease, nil
	default:
		return 0, fmt.Errorf("unknown event type %d", t)
	}
}

// Perform enqueues the action. A full queue drops it.
func (s *XTest) Perform(a wish.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- a:
	default:
		s.logger.Warn("action queue full, dropping action", "events", a.String())
	}
}

// Close stops accepting actions and waits for queued ones to play.
func (s *XTest) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	started := s.started
	close(s.queue)
	s.mu.Unlock()

	if started {
		<-s.done
	}
	return nil
}
