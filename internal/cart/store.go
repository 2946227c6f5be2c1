package cart

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"PartsStore/internal/catalog"
	"PartsStore/internal/storage"
)

// Slot is the storage key holding the serialized cart lines.
const Slot = "cart"

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrBadQuantity    = errors.New("quantity must be at least 1")
)

// Line is one aggregated cart entry, at most one per product id. Name,
// price and image are snapshots taken when the product was first added,
// so the cart stays renderable even if the catalog document changes
// between sessions.
type Line struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// ProductLookup resolves a product id against the loaded catalog.
type ProductLookup interface {
	Get(id int64) (catalog.Product, bool)
}

// Store owns the cart lines for this process. Every mutation persists the
// full list; an external write observed through Watch replaces the list
// wholesale, never merges.
type Store struct {
	mu      sync.RWMutex
	lines   []Line
	lookup  ProductLookup
	slots   *storage.Store
	log     *zap.Logger
	onTotal func(int)
}

// NewStore rehydrates the cart from the persisted slot. Absent or
// malformed state means an empty cart, never an error.
func NewStore(slots *storage.Store, lookup ProductLookup, log *zap.Logger) *Store {
	s := &Store{lookup: lookup, slots: slots, log: log}
	s.lines = s.load()
	return s
}

func (s *Store) load() []Line {
	raw, ok, err := s.slots.Get(Slot)
	if err != nil {
		s.log.Warn("read cart state failed, starting empty", zap.Error(err))
		return []Line{}
	}
	if !ok {
		return []Line{}
	}
	return decodeLines(raw, s.log)
}

func decodeLines(raw []byte, log *zap.Logger) []Line {
	if len(raw) == 0 {
		return []Line{}
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		if log != nil {
			log.Warn("malformed cart state, treating as empty", zap.Error(err))
		}
		return []Line{}
	}

	// A foreign writer could have persisted nonsense quantities.
	out := lines[:0]
	for _, l := range lines {
		if l.Quantity >= 1 {
			out = append(out, l)
		}
	}
	return out
}

// Add merges qty into the existing line for productID or appends a new
// line with a snapshot of the product. Unknown ids leave the cart
// untouched.
func (s *Store) Add(productID int64, qty int) error {
	if qty < 1 {
		return ErrBadQuantity
	}

	p, ok := s.lookup.Get(productID)
	if !ok {
		return ErrUnknownProduct
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{
			ProductID: productID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  qty,
		})
	}
	s.persistLocked()
	total := s.totalLocked()
	s.mu.Unlock()

	s.notifyTotal(total)
	return nil
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		s.log.Error("encode cart failed", zap.Error(err))
		return
	}
	if err := s.slots.Set(Slot, raw); err != nil {
		s.log.Error("persist cart failed", zap.Error(err))
	}
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// TotalQuantity is the single source of truth for the cart badge count.
func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Watch replaces the in-memory lines whenever another process writes the
// cart slot. Last write observed wins; no merge against local state. The
// store's own Adds never trigger the handler.
func (s *Store) Watch(w *storage.Watcher, handler func([]Line)) func() {
	return w.Subscribe(Slot, func(raw []byte) {
		lines := decodeLines(raw, s.log)

		s.mu.Lock()
		s.lines = lines
		total := s.totalLocked()
		s.mu.Unlock()

		s.notifyTotal(total)
		if handler != nil {
			handler(s.Lines())
		}
	})
}

// OnTotalChange registers a single observer for the aggregate quantity,
// invoked immediately with the current total and after every change.
func (s *Store) OnTotalChange(fn func(int)) {
	s.mu.Lock()
	s.onTotal = fn
	total := s.totalLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

func (s *Store) notifyTotal(total int) {
	s.mu.RLock()
	fn := s.onTotal
	s.mu.RUnlock()
	if fn != nil {
		fn(total)
	}
}
