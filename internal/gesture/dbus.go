package gesture

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/wish"
)

const (
	DefaultDBusInterface = "org.ginn.Gesture1"
	DefaultDBusPath      = "/org/ginn/Gesture1"
	dbusSignalMember     = "Gesture"
)

type DBusConfig struct {
	Interface string
	Path      string
}

// DBus receives gestures from a recognizer broadcasting a
// Gesture(phase s, kind s, touches i, window u, attrs a{sd}) signal on the
// session bus.
type DBus struct {
	cfg    DBusConfig
	subs   *Subscriptions
	logger *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}
}

func NewDBus(cfg DBusConfig, logger *slog.Logger) *DBus {
	if cfg.Interface == "" {
		cfg.Interface = DefaultDBusInterface
	}
	if cfg.Path == "" {
		cfg.Path = DefaultDBusPath
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DBus{cfg: cfg, subs: NewSubscriptions(), logger: logger}
}

func (d *DBus) Start(obs Observer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return fmt.Errorf("dbus channel already started")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(d.cfg.Interface),
		dbus.WithMatchMember(dbusSignalMember),
		dbus.WithMatchObjectPath(dbus.ObjectPath(d.cfg.Path)),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to add gesture signal match: %w", err)
	}

	d.conn = conn
	d.signals = make(chan *dbus.Signal, 64)
	d.done = make(chan struct{})
	conn.Signal(d.signals)

	go func() {
		defer close(d.done)
		if obs.Initialized != nil {
			obs.Initialized()
		}
		want := d.cfg.Interface + "." + dbusSignalMember
		for sig := range d.signals {
			if sig.Name != want {
				continue
			}
			ev, err := decodeSignal(sig.Body)
			if err != nil {
				d.logger.Debug("ignoring malformed gesture signal", "sender", sig.Sender, "error", err)
				continue
			}
			if !d.subs.Wants(ev.Window, ev.Gesture) {
				continue
			}
			if obs.Event != nil {
				obs.Event(ev)
			}
		}
	}()
	return nil
}

func decodeSignal(body []interface{}) (Event, error) {
	var (
		phaseName string
		kindName  string
		touches   int32
		window    uint32
		attrs     map[string]float64
	)
	if err := dbus.Store(body, &phaseName, &kindName, &touches, &window, &attrs); err != nil {
		return Event{}, err
	}
	phase, err := wish.ParsePhase(phaseName)
	if err != nil {
		return Event{}, err
	}
	kind, err := wish.ParseKind(kindName)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Window:  apps.WindowID(window),
		Phase:   phase,
		Gesture: wish.GestureType{Kind: kind, Touches: int(touches)},
		Attrs:   attrs,
	}, nil
}

func (d *DBus) Subscribe(window apps.WindowID, w *wish.Wish) (Subscription, error) {
	return d.subs.Add(window, w.Gesture), nil
}

func (d *DBus) Close() error {
	d.mu.Lock()
	conn, done := d.conn, d.done
	d.conn = nil
	d.mu.Unlock()
	if conn == nil {
		return nil
	}
	// Closing the connection terminates the signal handler, which closes
	// the registered channel and ends the reader.
	err := conn.Close()
	<-done
	return err
}
