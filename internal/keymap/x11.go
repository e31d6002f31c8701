package keymap

import (
	"sync/atomic"

	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/ginn/internal/x11"
)

// X11 resolves names against the server keyboard mapping via xgbutil.
type X11 struct {
	conn  *x11.Connection
	ready atomic.Bool
}

func NewX11(conn *x11.Connection) *X11 {
	return &X11{conn: conn}
}

func (k *X11) Start(ready func()) error {
	go func() {
		keybind.Initialize(k.conn.XUtil)
		k.ready.Store(true)
		if ready != nil {
			ready()
		}
	}()
	return nil
}

func (k *X11) Keycode(name string) uint8 {
	if !k.ready.Load() {
		return Unresolved
	}
	codes := keybind.StrToKeycodes(k.conn.XUtil, name)
	if len(codes) == 0 {
		return Unresolved
	}
	return uint8(codes[0])
}
