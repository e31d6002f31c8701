package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/ginn/internal/actionsink"
	"github.com/1broseidon/ginn/internal/gesture"
)

const (
	KeymapX11     = "x11"
	KeymapXmodmap = "xmodmap"

	GestureLibinput = "libinput"
	GestureDBus     = "dbus"

	SinkXTest = "xtest"
	SinkLog   = "log"
)

// Config holds daemon settings. Wishes themselves live in separate XML
// sources listed by WishSources or found on the XDG search path.
type Config struct {
	WishSources       []string       `yaml:"wish_sources"`
	LogLevel          string         `yaml:"log_level"`
	Verbose           bool           `yaml:"verbose"`
	Keymap            string         `yaml:"keymap"`
	GestureSource     string         `yaml:"gesture_source"`
	ActionSink        string         `yaml:"action_sink"`
	WatchWishSources  bool           `yaml:"watch_wish_sources"`
	ReconcileInterval time.Duration  `yaml:"reconcile_interval"`
	ActionQueueSize   int            `yaml:"action_queue_size"`
	Libinput          LibinputConfig `yaml:"libinput"`
	DBus              DBusConfig     `yaml:"dbus"`
}

type LibinputConfig struct {
	Command string `yaml:"command"`
	Device  string `yaml:"device"`
}

type DBusConfig struct {
	Interface string `yaml:"interface"`
	Path      string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		Keymap:            KeymapX11,
		GestureSource:     GestureLibinput,
		ActionSink:        SinkXTest,
		WatchWishSources:  true,
		ReconcileInterval: 30 * time.Second,
		ActionQueueSize:   actionsink.DefaultQueueSize,
		Libinput: LibinputConfig{
			Command: "libinput",
		},
		DBus: DBusConfig{
			Interface: gesture.DefaultDBusInterface,
			Path:      gesture.DefaultDBusPath,
		},
	}
}

func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	switch c.Keymap {
	case KeymapX11, KeymapXmodmap:
	default:
		return &ValidationError{Path: "keymap", Err: fmt.Errorf("keymap must be one of: x11, xmodmap")}
	}
	switch c.GestureSource {
	case GestureLibinput, GestureDBus:
	default:
		return &ValidationError{Path: "gesture_source", Err: fmt.Errorf("gesture_source must be one of: libinput, dbus")}
	}
	switch c.ActionSink {
	case SinkXTest, SinkLog:
	default:
		return &ValidationError{Path: "action_sink", Err: fmt.Errorf("action_sink must be one of: xtest, log")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	if c.ActionQueueSize < 1 {
		return &ValidationError{Path: "action_queue_size", Err: fmt.Errorf("action_queue_size must be >= 1")}
	}
	for _, src := range c.WishSources {
		if strings.TrimSpace(src) == "" {
			return &ValidationError{Path: "wish_sources", Err: fmt.Errorf("wish_sources contains an empty path")}
		}
	}
	if c.GestureSource == GestureLibinput && strings.TrimSpace(c.Libinput.Command) == "" {
		return &ValidationError{Path: "libinput.command", Err: fmt.Errorf("libinput.command must not be empty")}
	}
	if c.GestureSource == GestureDBus {
		if strings.TrimSpace(c.DBus.Interface) == "" {
			return &ValidationError{Path: "dbus.interface", Err: fmt.Errorf("dbus.interface must not be empty")}
		}
		if !strings.HasPrefix(c.DBus.Path, "/") {
			return &ValidationError{Path: "dbus.path", Err: fmt.Errorf("dbus.path must be an absolute object path")}
		}
	}
	return nil
}

// Level returns the effective log level; Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
}

// ValidationError locates a bad setting, with its file position when known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

// Source is a position in a config file.
type Source struct {
	File   string
	Line   int
	Column int
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
