package watch

import (
	"errors"
	"testing"

	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/gesture"
	"github.com/1broseidon/ginn/internal/wish"
)

type fakeSubscriber struct {
	subs   *gesture.Subscriptions
	err    error
	called int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{subs: gesture.NewSubscriptions()}
}

func (f *fakeSubscriber) Subscribe(window apps.WindowID, w *wish.Wish) (gesture.Subscription, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	return f.subs.Add(window, w.Gesture), nil
}

type fakePerformer struct {
	actions []wish.Action
}

func (f *fakePerformer) Perform(a wish.Action) { f.actions = append(f.actions, a) }

var (
	pinch2 = wish.GestureType{Kind: wish.KindPinch, Touches: 2}
	app1   = apps.Application{ID: "app1", Name: "App One"}
)

func pinchWish(min, max float64, accumulate bool, key uint8) *wish.Wish {
	return &wish.Wish{
		Gesture:    pinch2,
		Phase:      wish.PhaseUpdate,
		Property:   "radius delta",
		Min:        min,
		Max:        max,
		Accumulate: accumulate,
		Action:     wish.KeyAction(key),
	}
}

func tableWith(app string, wishes ...*wish.Wish) wish.Table {
	t := wish.Table{}
	for _, w := range wishes {
		t.Put(app, w)
	}
	return t
}

func update(win apps.WindowID, value float64) gesture.Event {
	return gesture.Event{
		Window:  win,
		Phase:   wish.PhaseUpdate,
		Gesture: pinch2,
		Attrs:   map[string]float64{"radius delta": value},
	}
}

func finish(win apps.WindowID) gesture.Event {
	return gesture.Event{Window: win, Phase: wish.PhaseFinish, Gesture: pinch2, Attrs: map[string]float64{}}
}

func TestInRangeEventFiresOnce(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	win := apps.Window{ID: 1000}
	r.Grant(tableWith("app1", pinchWish(10, 20, false, 1)), app1, win)

	for _, v := range []float64{10, 15, 20} {
		perf.actions = nil
		if !r.Dispatch(update(1000, v)) || len(perf.actions) != 1 {
			t.Fatalf("value %v: performed %d actions, want 1", v, len(perf.actions))
		}
	}
	for _, v := range []float64{9.99, 20.01} {
		perf.actions = nil
		if r.Dispatch(update(1000, v)) || len(perf.actions) != 0 {
			t.Fatalf("value %v fired outside the range", v)
		}
	}
}

func TestGrantIsIdempotent(t *testing.T) {
	subs := newFakeSubscriber()
	r := New(subs, &fakePerformer{})
	table := tableWith("app1", pinchWish(10, 20, false, 1))
	win := apps.Window{ID: 1}

	if n := r.Grant(table, app1, win); n != 1 {
		t.Fatalf("first grant created %d watches", n)
	}
	if n := r.Grant(table, app1, win); n != 0 {
		t.Fatalf("second grant created %d watches", n)
	}
	if r.Len() != 1 || subs.called != 1 || subs.subs.Len() != 1 {
		t.Fatalf("watches = %d, subscribe calls = %d", r.Len(), subs.called)
	}
}

func TestRevokeThenEventPerformsNothing(t *testing.T) {
	subs := newFakeSubscriber()
	perf := &fakePerformer{}
	r := New(subs, perf)
	r.Grant(tableWith("app1", pinchWish(10, 20, false, 1)), app1, apps.Window{ID: 1})

	if n := r.Revoke(1); n != 1 {
		t.Fatalf("Revoke removed %d watches", n)
	}
	if subs.subs.Len() != 0 {
		t.Fatalf("subscription not released")
	}
	r.Dispatch(update(1, 15))
	if len(perf.actions) != 0 {
		t.Fatalf("revoked window still fired")
	}
	if n := r.Revoke(1); n != 0 {
		t.Fatalf("second Revoke removed %d watches", n)
	}
	if n := r.Revoke(999); n != 0 {
		t.Fatalf("Revoke of unknown window removed %d", n)
	}
}

func TestAccumulationAcrossUpdates(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	r.Grant(tableWith("app1", pinchWish(20, 30, true, 1)), app1, apps.Window{ID: 1})

	r.Dispatch(update(1, 15))
	if len(perf.actions) != 0 {
		t.Fatalf("fired before accumulating into range")
	}
	r.Dispatch(update(1, 10))
	if len(perf.actions) != 1 {
		t.Fatalf("15+10 did not fire")
	}

	// The accumulator restarts after firing.
	r.Dispatch(update(1, 10))
	if len(perf.actions) != 1 {
		t.Fatalf("accumulator not reset after firing")
	}
}

func TestFinishResetsAccumulator(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	r.Grant(tableWith("app1", pinchWish(20, 30, true, 1)), app1, apps.Window{ID: 1})

	r.Dispatch(update(1, 15))
	r.Dispatch(finish(1))
	r.Dispatch(update(1, 10))
	if len(perf.actions) != 0 {
		t.Fatalf("accumulated across a finish: %d actions", len(perf.actions))
	}
	if info := r.Snapshot(); len(info) != 1 || info[0].Accumulated != 10 {
		t.Fatalf("snapshot = %+v", info)
	}
}

func TestAtMostOneActionPerEvent(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)

	first := pinchWish(0, 100, false, 1)
	second := &wish.Wish{
		Gesture:  pinch2,
		Phase:    wish.PhaseUpdate,
		Property: "radius",
		Min:      0,
		Max:      1000,
		Action:   wish.KeyAction(2),
	}
	r.Grant(tableWith("app1", first, second), app1, apps.Window{ID: 1})

	ev := update(1, 50)
	ev.Attrs["radius"] = 150
	r.Dispatch(ev)
	if len(perf.actions) != 1 {
		t.Fatalf("performed %d actions, want 1", len(perf.actions))
	}
	if perf.actions[0].Events()[0].Code != 1 {
		t.Fatalf("expected the first granted wish to win")
	}
}

func TestAppScenarioRangeAndWindow(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	table := tableWith("app1", pinchWish(10, 100, false, 1))
	r.Grant(table, app1, apps.Window{ID: 1000})

	r.Dispatch(update(1000, 50))
	if len(perf.actions) != 1 {
		t.Fatalf("w=1000 value 50: %d actions, want 1", len(perf.actions))
	}
	r.Dispatch(update(1000, 5))
	if len(perf.actions) != 1 {
		t.Fatalf("w=1000 value 5 fired")
	}
	r.Dispatch(update(2000, 50))
	if len(perf.actions) != 1 {
		t.Fatalf("event for an unwatched window fired")
	}
}

func TestDispatchChecksGesturePhaseAndAttribute(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	r.Grant(tableWith("app1", pinchWish(10, 20, false, 1)), app1, apps.Window{ID: 1})

	wrongTouches := update(1, 15)
	wrongTouches.Gesture.Touches = 3
	wrongPhase := update(1, 15)
	wrongPhase.Phase = wish.PhaseStart
	missingAttr := gesture.Event{Window: 1, Phase: wish.PhaseUpdate, Gesture: pinch2, Attrs: map[string]float64{"scale": 15}}
	for _, ev := range []gesture.Event{wrongTouches, wrongPhase, missingAttr} {
		if r.Dispatch(ev) {
			t.Fatalf("event %v fired", ev)
		}
	}

	unspecified := update(1, 15)
	unspecified.Gesture = wish.GestureType{}
	if !r.Dispatch(unspecified) {
		t.Fatalf("pre-filtered event without gesture type did not fire")
	}
}

func TestClosingOneWindowKeepsOthers(t *testing.T) {
	perf := &fakePerformer{}
	r := New(newFakeSubscriber(), perf)
	table := tableWith("app1", pinchWish(10, 20, false, 1))
	r.Grant(table, app1, apps.Window{ID: 1})
	r.Grant(table, app1, apps.Window{ID: 2})

	r.Revoke(1)
	r.Dispatch(update(2, 15))
	if len(perf.actions) != 1 {
		t.Fatalf("w2 lost its watch when w1 closed")
	}
}

func TestAppNameAndGlobalFallback(t *testing.T) {
	r := New(newFakeSubscriber(), &fakePerformer{})
	table := tableWith("App One", pinchWish(10, 20, false, 1))
	table.Put(wish.GlobalKey, pinchWish(0, 5, false, 2))

	if n := r.Grant(table, app1, apps.Window{ID: 1}); n != 1 {
		t.Fatalf("name lookup granted %d", n)
	}
	other := apps.Application{ID: "other", Name: "Other"}
	if n := r.Grant(table, other, apps.Window{ID: 2}); n != 1 {
		t.Fatalf("global fallback granted %d", n)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].AppID != "app1" || snap[1].AppID != "other" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestFailedSubscriptionCreatesNoWatch(t *testing.T) {
	subs := newFakeSubscriber()
	subs.err = errors.New("no recognizer")
	r := New(subs, &fakePerformer{})
	if n := r.Grant(tableWith("app1", pinchWish(10, 20, false, 1)), app1, apps.Window{ID: 1}); n != 0 {
		t.Fatalf("granted %d despite subscription failure", n)
	}
	if r.Len() != 0 {
		t.Fatalf("registry holds %d watches", r.Len())
	}
}

func TestObserversAndRevokeAll(t *testing.T) {
	granted, revoked := 0, 0
	r := New(newFakeSubscriber(), &fakePerformer{},
		WithGranted(func(apps.Application, apps.Window, *wish.Wish) { granted++ }),
		WithRevoked(func(apps.Application, apps.Window, *wish.Wish) { revoked++ }),
	)
	table := tableWith("app1", pinchWish(10, 20, false, 1), pinchWish(10, 20, false, 1))
	r.Grant(table, app1, apps.Window{ID: 1})
	r.Grant(table, app1, apps.Window{ID: 2})

	if granted != 2 {
		t.Fatalf("granted = %d, want 2 (duplicate names collapse)", granted)
	}
	if n := r.RevokeAll(); n != 2 || revoked != 2 || r.Len() != 0 {
		t.Fatalf("RevokeAll = %d, revoked = %d, len = %d", n, revoked, r.Len())
	}
}
