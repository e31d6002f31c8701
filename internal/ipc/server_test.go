package ipc

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

type fakeProvider struct {
	mu        sync.Mutex
	reloads   int
	reloadErr error
}

func (f *fakeProvider) Status() StatusData {
	return StatusData{Initialized: true, WindowCount: 2, WatchCount: 3, Sources: []string{"/w.xml"}}
}

func (f *fakeProvider) Watches() []WatchInfo {
	return []WatchInfo{{WindowID: 1000, AppID: "app1", Wish: "Pinch2radius delta"}}
}

func (f *fakeProvider) Wishes() []WishInfo { return nil }

func (f *fakeProvider) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.reloadErr
}

func startServer(t *testing.T, p Provider) *Client {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	srv, err := NewServer(p, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClient()
}

func TestServerStatusAndWatches(t *testing.T) {
	client := startServer(t, &fakeProvider{})

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || !status.Initialized || status.WatchCount != 3 {
		t.Fatalf("status = %+v", status)
	}

	watches, err := client.ListWatches()
	if err != nil {
		t.Fatalf("ListWatches: %v", err)
	}
	if len(watches.Watches) != 1 || watches.Watches[0].WindowID != 1000 {
		t.Fatalf("watches = %+v", watches)
	}

	wishes, err := client.ListWishes()
	if err != nil {
		t.Fatalf("ListWishes: %v", err)
	}
	if wishes.Wishes == nil || len(wishes.Wishes) != 0 {
		t.Fatalf("wishes = %+v", wishes)
	}

	if err := client.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestServerReloadReportsErrors(t *testing.T) {
	p := &fakeProvider{}
	client := startServer(t, p)

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	p.mu.Lock()
	p.reloadErr = errors.New("no wish sources")
	p.mu.Unlock()
	err := client.Reload()
	if !errors.Is(err, ErrDaemon) || !strings.Contains(err.Error(), "no wish sources") {
		t.Fatalf("Reload error = %v", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reloads != 2 {
		t.Fatalf("reloads = %d", p.reloads)
	}
}

func TestHandleCommandUnknown(t *testing.T) {
	s := &Server{provider: &fakeProvider{}}
	resp := s.handleCommand(&Request{Command: "UNDO"})
	if resp.Status != "ERROR" || !strings.Contains(resp.Error, "UNDO") {
		t.Fatalf("response = %+v", resp)
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if err := NewClient().Ping(); err == nil {
		t.Fatalf("expected connection error without a daemon")
	}
}
