package calculator

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"PartsStore/internal/storage"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()

	slots, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return NewService(slots, zap.NewNop())
}

func TestService_Total(t *testing.T) {
	s := newTestService(t, t.TempDir())

	total, err := s.Total(Selection{Domain: "ru", Hosting: "basic", Admin: "none"})
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 199+290 {
		t.Fatalf("total=%v want=%v", total, 199+290)
	}

	if _, err := s.Total(Selection{Domain: "ru", Hosting: "nope", Admin: "none"}); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("err=%v want ErrUnknownOption", err)
	}
}

func TestService_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, dir)

	if _, ok := s.Load(); ok {
		t.Fatalf("load before save should be absent")
	}

	saved, err := s.Save(Selection{Domain: "com", Hosting: "premium", Admin: "full"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Timestamp.IsZero() {
		t.Fatalf("save did not stamp the selection")
	}

	// A fresh service over the same slot sees the selection.
	got, ok := newTestService(t, dir).Load()
	if !ok {
		t.Fatalf("load after save: absent")
	}
	if got.Domain != "com" || got.Hosting != "premium" || got.Admin != "full" {
		t.Fatalf("loaded=%+v", got)
	}
	if !got.Timestamp.Equal(saved.Timestamp) {
		t.Fatalf("timestamp=%v want=%v", got.Timestamp, saved.Timestamp)
	}
}

func TestService_SaveRejectsUnknownOption(t *testing.T) {
	s := newTestService(t, t.TempDir())

	if _, err := s.Save(Selection{Domain: "xyz", Hosting: "basic", Admin: "none"}); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("err=%v want ErrUnknownOption", err)
	}
	if _, ok := s.Load(); ok {
		t.Fatalf("rejected save still persisted a selection")
	}
}

func TestService_MalformedStateReadsAbsent(t *testing.T) {
	dir := t.TempDir()

	slots, err := storage.NewStore(dir)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if err := slots.Set(Slot, []byte(`{{{`)); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	s := NewService(slots, zap.NewNop())
	if _, ok := s.Load(); ok {
		t.Fatalf("malformed state should read as absent")
	}
}
