package cart

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"PartsStore/internal/catalog"
	"PartsStore/internal/storage"
)

type fakeLookup map[int64]catalog.Product

func (f fakeLookup) Get(id int64) (catalog.Product, bool) {
	p, ok := f[id]
	return p, ok
}

func testLookup() fakeLookup {
	return fakeLookup{
		5: {ID: 5, Name: "X", Price: 100, Image: "x.jpg"},
		6: {ID: 6, Name: "Y", Price: 250},
	}
}

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()

	slots, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return NewStore(slots, testLookup(), zap.NewNop())
}

func TestStore_AddMergesQuantity(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if err := s.Add(5, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(5, 2); err != nil {
		t.Fatalf("second add: %v", err)
	}

	lines := s.Lines()
	if len(lines) != 1 {
		t.Fatalf("lines=%d want=1", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("quantity=%d want=3", lines[0].Quantity)
	}
	if s.TotalQuantity() != 3 {
		t.Fatalf("total=%d want=3", s.TotalQuantity())
	}

	// The line holds the snapshot taken at add time.
	if lines[0].Name != "X" || lines[0].Price != 100 || lines[0].Image != "x.jpg" {
		t.Fatalf("snapshot=%+v", lines[0])
	}
}

func TestStore_AddDistinctProducts(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if err := s.Add(5, 2); err != nil {
		t.Fatalf("add 5: %v", err)
	}
	if err := s.Add(6, 1); err != nil {
		t.Fatalf("add 6: %v", err)
	}

	if got := len(s.Lines()); got != 2 {
		t.Fatalf("lines=%d want=2", got)
	}
	if s.TotalQuantity() != 3 {
		t.Fatalf("total=%d want=3", s.TotalQuantity())
	}
}

func TestStore_AddUnknownProductIsRejected(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if err := s.Add(99, 1); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("err=%v want ErrUnknownProduct", err)
	}
	if s.TotalQuantity() != 0 {
		t.Fatalf("total=%d want=0 after rejected add", s.TotalQuantity())
	}
	if len(s.Lines()) != 0 {
		t.Fatalf("rejected add created a line")
	}
}

func TestStore_AddBadQuantity(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	for _, qty := range []int{0, -1, -100} {
		if err := s.Add(5, qty); !errors.Is(err, ErrBadQuantity) {
			t.Fatalf("qty=%d err=%v want ErrBadQuantity", qty, err)
		}
	}
	if s.TotalQuantity() != 0 {
		t.Fatalf("total=%d want=0", s.TotalQuantity())
	}
}

func TestStore_PersistRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore(t, dir)
	if err := s.Add(5, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(6, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A fresh store over the same slot rehydrates the same lines.
	reloaded := newTestStore(t, dir)

	want := s.Lines()
	got := reloaded.Lines()
	if len(got) != len(want) {
		t.Fatalf("reloaded lines=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reloaded[%d]=%+v want=%+v", i, got[i], want[i])
		}
	}
}

func TestStore_MalformedStateReadsEmpty(t *testing.T) {
	dir := t.TempDir()

	slots, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if err := slots.Set(Slot, []byte(`{"not": "a list"`)); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	s := NewStore(slots, testLookup(), zap.NewNop())
	if s.TotalQuantity() != 0 || len(s.Lines()) != 0 {
		t.Fatalf("malformed state should read as empty, got %+v", s.Lines())
	}
}

func TestStore_ExternalChangeReplacesLines(t *testing.T) {
	dir := t.TempDir()

	slots, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	log := zap.NewNop()
	s := NewStore(slots, testLookup(), log)
	if err := s.Add(5, 10); err != nil {
		t.Fatalf("add: %v", err)
	}

	watcher, err := storage.NewWatcher(slots, log)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = watcher.Close() })

	notified := make(chan []Line, 1)
	unsubscribe := s.Watch(watcher, func(lines []Line) { notified <- lines })
	t.Cleanup(unsubscribe)

	// Another process writes a two-line cart.
	remote, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new remote storage: %v", err)
	}
	if err := remote.Set(Slot, []byte(`[{"id":5,"name":"X","price":100,"quantity":1},{"id":6,"name":"Y","price":250,"quantity":2}]`)); err != nil {
		t.Fatalf("remote set: %v", err)
	}

	select {
	case lines := <-notified:
		if len(lines) != 2 {
			t.Fatalf("handler lines=%d want=2", len(lines))
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no external-change notification")
	}

	// Replaced, not merged: the local quantity 10 is gone.
	if s.TotalQuantity() != 3 {
		t.Fatalf("total=%d want=3 after replacement", s.TotalQuantity())
	}
}
