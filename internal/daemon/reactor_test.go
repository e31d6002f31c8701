package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestReactorRunsInOrder(t *testing.T) {
	r := NewReactor()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	got := make(chan int, 4)
	done := make(chan struct{})
	r.Post(func() { got <- 1 })
	r.Post(func() {
		got <- 2
		// Posting from inside a callback queues behind the current one.
		r.Post(func() {
			got <- 4
			close(done)
		})
		got <- 3
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reactor did not drain")
	}
	close(got)
	var order []int
	for n := range got {
		order = append(order, n)
	}
	if !reflect.DeepEqual(order, []int{1, 2, 3, 4}) {
		t.Fatalf("order = %v", order)
	}
}

func TestReactorDropsPostsAfterStop(t *testing.T) {
	r := NewReactor()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	ran := false
	r.Post(func() { ran = true })
	if ran {
		t.Fatalf("callback ran after stop")
	}
}

func TestReconcilerDefaultsAndKeepsGoingAfterErrors(t *testing.T) {
	calls := 0
	r := NewReconciler(ReconcilerConfig{}, func() (int, int, error) {
		calls++
		return 0, 0, errors.New("boom")
	})
	r.ReconcileNow()
	r.ReconcileNow()
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
	if r.interval != 30*time.Second {
		t.Fatalf("default interval = %v", r.interval)
	}
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	dropins := filepath.Join(dir, "wishes.d")
	if err := os.Mkdir(dropins, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := WatchDirs(
		[]string{filepath.Join(dir, "wishes.xml"), filepath.Join(dropins, "a.xml")},
		dir, filepath.Join(dir, "missing"),
	)
	want := []string{dir, dropins}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WatchDirs = %v, want %v", got, want)
	}
}

func TestSourceWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 8)
	w := NewSourceWatcher([]string{dir}, func() { changed <- struct{}{} }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "wishes.xml")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("<ginn/>"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("no change notification")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSourceWatcherNeedsDirs(t *testing.T) {
	if err := NewSourceWatcher(nil, func() {}, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error without directories")
	}
}
