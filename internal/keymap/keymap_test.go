package keymap

import (
	"strings"
	"testing"
)

const sampleXmodmap = `keycode   8 =
keycode   9 = Escape NoSymbol Escape
keycode  24 = q Q q Q
keycode  37 = Control_L NoSymbol Control_L
keycode  66 = Caps_Lock NoSymbol Caps_Lock
keycode 105 = Control_R NoSymbol Control_R
keycode 111 = Up NoSymbol Up
keycode 200 = q
garbage line
keycode x = broken
keycode 300 = TooLarge
`

func TestParseXmodmap(t *testing.T) {
	codes := ParseXmodmap(strings.NewReader(sampleXmodmap))

	tests := map[string]uint8{
		"Escape":    9,
		"q":         24,
		"Q":         24,
		"Control_L": 37,
		"Up":        111,
	}
	for name, want := range tests {
		if got := codes[name]; got != want {
			t.Fatalf("codes[%q] = %d, want %d", name, got, want)
		}
	}
	if _, ok := codes["TooLarge"]; ok {
		t.Fatalf("keycode beyond 255 accepted")
	}
	if _, ok := codes["broken"]; ok {
		t.Fatalf("malformed line accepted")
	}
}

func TestStaticUnresolvedIsZero(t *testing.T) {
	k := NewStatic(map[string]uint8{"Up": 111})
	ready := 0
	if err := k.Start(func() { ready++ }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ready != 1 {
		t.Fatalf("ready called %d times", ready)
	}
	if got := k.Keycode("Up"); got != 111 {
		t.Fatalf("Keycode(Up) = %d", got)
	}
	if got := k.Keycode("Nope"); got != Unresolved {
		t.Fatalf("Keycode(Nope) = %d, want %d", got, Unresolved)
	}
}
