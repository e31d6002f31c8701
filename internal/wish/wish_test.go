package wish

import (
	"reflect"
	"testing"
)

func TestKeyActionStackOrder(t *testing.T) {
	a := KeyAction(111, 37, 50)
	want := []Event{
		{Type: KeyPress, Code: 37},
		{Type: KeyPress, Code: 50},
		{Type: KeyPress, Code: 111},
		{Type: KeyRelease, Code: 111},
		{Type: KeyRelease, Code: 50},
		{Type: KeyRelease, Code: 37},
	}
	if got := a.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestButtonActionKeepsKeyboardModifiers(t *testing.T) {
	a := ButtonAction(4, 37)
	want := []Event{
		{Type: KeyPress, Code: 37},
		{Type: ButtonPress, Code: 4},
		{Type: ButtonRelease, Code: 4},
		{Type: KeyRelease, Code: 37},
	}
	if got := a.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestActionEventsIsACopy(t *testing.T) {
	a := KeyAction(10)
	events := a.Events()
	events[0].Code = 99
	if a.Events()[0].Code != 10 {
		t.Fatalf("mutating Events() result changed the action")
	}
}

func TestWishNameAndRange(t *testing.T) {
	w := &Wish{
		Gesture:  GestureType{Kind: KindPinch, Touches: 2},
		Phase:    PhaseUpdate,
		Property: "radius delta",
		Min:      -10,
		Max:      10,
		Action:   KeyAction(1),
	}
	if got := w.Name(); got != "Pinch2radius delta" {
		t.Fatalf("Name() = %q", got)
	}
	for _, v := range []float64{-10, 0, 10} {
		if !w.InRange(v) {
			t.Fatalf("InRange(%v) = false, want true", v)
		}
	}
	for _, v := range []float64{-10.5, 10.01} {
		if w.InRange(v) {
			t.Fatalf("InRange(%v) = true, want false", v)
		}
	}
}

func TestWishValidate(t *testing.T) {
	base := func() *Wish {
		return &Wish{
			Gesture:  GestureType{Kind: KindDrag, Touches: 3},
			Phase:    PhaseUpdate,
			Property: "delta x",
			Min:      1,
			Max:      2,
			Action:   KeyAction(1),
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid wish rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Wish)
	}{
		{"min above max", func(w *Wish) { w.Min = 3 }},
		{"no touches", func(w *Wish) { w.Gesture.Touches = 0 }},
		{"too many touches", func(w *Wish) { w.Gesture.Touches = 6 }},
		{"no kind", func(w *Wish) { w.Gesture.Kind = KindUnspecified }},
		{"no phase", func(w *Wish) { w.Phase = 0 }},
		{"no property", func(w *Wish) { w.Property = " " }},
		{"no action", func(w *Wish) { w.Action = Action{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := base()
			tt.mutate(w)
			if err := w.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEnvironmentGestureAllowsZeroTouches(t *testing.T) {
	g := GestureType{Kind: KindEnvironment}
	if err := g.Validate(); err != nil {
		t.Fatalf("environment gesture rejected: %v", err)
	}
}

func TestParseKindAndPhase(t *testing.T) {
	if k, err := ParseKind("pinch"); err != nil || k != KindPinch {
		t.Fatalf("ParseKind(pinch) = %v, %v", k, err)
	}
	if _, err := ParseKind("Swirl"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if p, err := ParsePhase("Finish"); err != nil || p != PhaseFinish {
		t.Fatalf("ParsePhase(Finish) = %v, %v", p, err)
	}
	if _, err := ParsePhase("later"); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
}

func TestListKeepsInsertionOrderOnReplace(t *testing.T) {
	l := NewList()
	a := &Wish{Gesture: GestureType{Kind: KindDrag, Touches: 1}, Property: "delta x"}
	b := &Wish{Gesture: GestureType{Kind: KindDrag, Touches: 1}, Property: "delta y"}
	a2 := &Wish{Gesture: GestureType{Kind: KindDrag, Touches: 1}, Property: "delta x", Max: 5}
	l.Put(a)
	l.Put(b)
	l.Put(a2)

	all := l.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0] != a2 || all[1] != b {
		t.Fatalf("unexpected order: %v", all)
	}
}

func TestTableLookupFallback(t *testing.T) {
	w := func(prop string) *Wish {
		return &Wish{Gesture: GestureType{Kind: KindTap, Touches: 1}, Property: prop}
	}
	table := Table{}
	table.Put("firefox.desktop", w("by id"))
	table.Put("Firefox", w("by name"))
	table.Put(GlobalKey, w("global"))

	tests := []struct {
		id, name string
		want     string
	}{
		{"firefox.desktop", "Firefox", "by id"},
		{"other.desktop", "Firefox", "by name"},
		{"", "Firefox", "by name"},
		{"other.desktop", "Other", "global"},
	}
	for _, tt := range tests {
		list := table.Lookup(tt.id, tt.name)
		if list.Len() != 1 || list.All()[0].Property != tt.want {
			t.Fatalf("Lookup(%q, %q) = %v, want %q", tt.id, tt.name, list.All(), tt.want)
		}
	}
}

func TestTableLookupWithoutGlobal(t *testing.T) {
	table := Table{}
	if list := table.Lookup("a", "b"); list.Len() != 0 {
		t.Fatalf("expected empty list, got %d wishes", list.Len())
	}
}
