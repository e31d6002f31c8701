package apps

import "testing"

func TestArenaOpenCloseLifecycle(t *testing.T) {
	a := NewArena()
	app := Application{ID: "app1", Name: "App One"}

	if !a.Open(app, Window{ID: 1, Title: "one"}) {
		t.Fatalf("first open reported existing window")
	}
	if !a.Open(app, Window{ID: 2, Title: "two"}) {
		t.Fatalf("second window reported existing")
	}
	if a.Open(app, Window{ID: 1, Title: "renamed"}) {
		t.Fatalf("reopen reported new window")
	}
	if win, _ := a.Window(1); win.Title != "renamed" || win.AppID != "app1" {
		t.Fatalf("window not refreshed: %+v", win)
	}

	entry, ok := a.Close(1)
	if !ok || entry.App != app || entry.Window.ID != 1 {
		t.Fatalf("Close(1) = %+v, %v", entry, ok)
	}
	if _, ok := a.application("app1"); !ok {
		t.Fatalf("application dropped while it still has a window")
	}

	a.Close(2)
	if _, ok := a.application("app1"); ok {
		t.Fatalf("application kept after its last window closed")
	}
	if _, ok := a.Close(2); ok {
		t.Fatalf("double close reported success")
	}
}

func TestArenaWindowMovesBetweenApplications(t *testing.T) {
	a := NewArena()
	a.Open(Application{ID: "a"}, Window{ID: 7})
	a.Open(Application{ID: "b"}, Window{ID: 7})

	if _, ok := a.application("a"); ok {
		t.Fatalf("old application still present")
	}
	snap := a.Snapshot()
	if len(snap) != 1 || snap[0].App.ID != "b" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestArenaSnapshotOrderedByID(t *testing.T) {
	a := NewArena()
	for _, id := range []WindowID{30, 10, 20} {
		a.Open(Application{ID: "x"}, Window{ID: id})
	}
	ids := a.IDs()
	if len(ids) != 3 || ids[0] != 10 || ids[1] != 20 || ids[2] != 30 {
		t.Fatalf("IDs() = %v", ids)
	}
	if !a.Update(Window{ID: 20, Title: "t"}) {
		t.Fatalf("Update on known window failed")
	}
	if a.Update(Window{ID: 99}) {
		t.Fatalf("Update on unknown window succeeded")
	}
}
