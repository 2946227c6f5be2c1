package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const slotDebounce = 50 * time.Millisecond

// Watcher reports writes to slots made outside the companion Store. A
// write whose revision matches the Store's own last write for that key is
// suppressed, so subscribers only hear about external changes.
type Watcher struct {
	store *Store
	fs    *fsnotify.Watcher
	log   *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[int]func([]byte)
	nextID int
	seen   map[string]time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewWatcher(store *Store, log *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(store.Dir()); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &Watcher{
		store:  store,
		fs:     fs,
		log:    log,
		subs:   make(map[string]map[int]func([]byte)),
		seen:   make(map[string]time.Time),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Subscribe registers handler for external writes to key and returns the
// unsubscribe func. The handler receives the freshly read slot contents,
// nil when the slot was deleted.
func (w *Watcher) Subscribe(key string, handler func([]byte)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.subs[key] == nil {
		w.subs[key] = make(map[int]func([]byte))
	}
	id := w.nextID
	w.nextID++
	w.subs[key][id] = handler

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[key], id)
	}
}

// Close stops the watch loop and waits for it to drain.
func (w *Watcher) Close() error {
	close(w.stopCh)
	err := w.fs.Close()
	<-w.doneCh
	return err
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			w.dispatch(strings.TrimSuffix(name, ".json"))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("storage watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(key string) {
	rev, err := os.ReadFile(w.store.revPath(key))
	if err == nil && string(rev) == w.store.ownRevision(key) {
		return // our own write
	}

	w.mu.Lock()
	if t, ok := w.seen[key]; ok && time.Since(t) < slotDebounce {
		w.mu.Unlock()
		return
	}
	w.seen[key] = time.Now()

	handlers := make([]func([]byte), 0, len(w.subs[key]))
	for _, h := range w.subs[key] {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	if len(handlers) == 0 {
		return
	}

	raw, ok, err := w.store.Get(key)
	if err != nil {
		w.log.Warn("storage reload failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		raw = nil
	}
	for _, h := range handlers {
		h(raw)
	}
}
