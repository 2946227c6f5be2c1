// Package storage is the durable key-value layer behind the cart and the
// calculator: one named slot per JSON document, shared between storefront
// processes through a common data directory, with change notification for
// writes made by other processes.
package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Store persists named slots as files under a single directory. Every
// write stamps a fresh revision in a sidecar file so the Watcher can tell
// this process's writes apart from everyone else's.
type Store struct {
	mu   sync.Mutex
	dir  string
	revs map[string]string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, revs: make(map[string]string)}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) slotPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) revPath(key string) string {
	return filepath.Join(s.dir, key+".rev")
}

// Get returns the slot contents, or ok=false when the slot was never
// written.
func (s *Store) Get(key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(s.slotPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set replaces the slot contents. The revision is written before the data
// file so a watcher woken by the data write always sees the new revision.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := uuid.NewString()
	if err := writeAtomic(s.revPath(key), []byte(rev)); err != nil {
		return err
	}
	if err := writeAtomic(s.slotPath(key), value); err != nil {
		return err
	}
	s.revs[key] = rev
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.revs, key)
	if err := os.Remove(s.slotPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(s.revPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ownRevision is the revision of this process's last write to key, or ""
// if it never wrote the slot.
func (s *Store) ownRevision(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revs[key]
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
