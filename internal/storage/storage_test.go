package storage

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStore_SetGetRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, ok, err := s.Get("cart"); err != nil || ok {
		t.Fatalf("get before set: ok=%v err=%v", ok, err)
	}

	want := []byte(`[{"id":1,"quantity":2}]`)
	if err := s.Set("cart", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := s.Get("cart")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != string(want) {
		t.Fatalf("get=%s want=%s", got, want)
	}
}

func TestStore_Delete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Set("cart", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete("cart"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("cart"); ok {
		t.Fatalf("slot still present after delete")
	}

	// Deleting an absent slot is fine.
	if err := s.Delete("cart"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

const watchTimeout = 3 * time.Second

func TestWatcher_ReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()

	local, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	w, err := NewWatcher(local, zap.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	got := make(chan []byte, 4)
	unsubscribe := w.Subscribe("cart", func(raw []byte) { got <- raw })
	t.Cleanup(unsubscribe)

	// Another process sharing the data directory.
	remote, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new remote store: %v", err)
	}
	if err := remote.Set("cart", []byte(`[{"id":7,"quantity":1}]`)); err != nil {
		t.Fatalf("remote set: %v", err)
	}

	select {
	case raw := <-got:
		if string(raw) != `[{"id":7,"quantity":1}]` {
			t.Fatalf("handler got %s", raw)
		}
	case <-time.After(watchTimeout):
		t.Fatalf("no notification for external write")
	}
}

func TestWatcher_IgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()

	local, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	w, err := NewWatcher(local, zap.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	got := make(chan []byte, 4)
	unsubscribe := w.Subscribe("cart", func(raw []byte) { got <- raw })
	t.Cleanup(unsubscribe)

	if err := local.Set("cart", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case raw := <-got:
		t.Fatalf("own write triggered handler with %s", raw)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Unsubscribe(t *testing.T) {
	dir := t.TempDir()

	local, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	w, err := NewWatcher(local, zap.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	got := make(chan []byte, 4)
	unsubscribe := w.Subscribe("cart", func(raw []byte) { got <- raw })
	unsubscribe()

	remote, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new remote store: %v", err)
	}
	if err := remote.Set("cart", []byte(`[]`)); err != nil {
		t.Fatalf("remote set: %v", err)
	}

	select {
	case raw := <-got:
		t.Fatalf("unsubscribed handler fired with %s", raw)
	case <-time.After(300 * time.Millisecond):
	}
}
