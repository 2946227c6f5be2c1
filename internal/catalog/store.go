package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store holds the immutable product list for a session. Load replaces the
// whole list at once; until it succeeds the store is empty and reports
// itself as not loaded, never partially populated.
type Store struct {
	mu       sync.RWMutex
	source   Source
	products []Product
	loaded   bool
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Load fetches the catalog from the source. A successful load is final for
// the session: later calls are no-ops. A failed load leaves the store
// unloaded and may be retried by an explicit caller action.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	done := s.loaded
	s.mu.RUnlock()
	if done {
		return nil
	}

	products, err := s.source.Fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.products = products
	s.loaded = true
	return nil
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Ping reports readiness: a loaded store is always ready, otherwise the
// source must be reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	return s.source.Ping(ctx)
}

// Products returns the catalog in load order.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Get(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Categories lists the distinct non-empty categories with their product
// counts, sorted lexicographically, preceded by the "all" pseudo-category
// whose count is the total product count.
func (s *Store) Categories() []CategoryCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range s.products {
		if p.Category != "" {
			counts[p.Category]++
		}
	}

	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Strings(names)

	out := make([]CategoryCount, 0, len(names)+1)
	out = append(out, CategoryCount{Category: AllCategories, Count: len(s.products)})
	for _, c := range names {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}

// Filter composes the category and text restrictions. An empty or "all"
// category matches everything; an empty query matches everything; the
// query matches case-insensitively against name, description and category.
// Load order is preserved.
func (s *Store) Filter(category, query string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if p.Description != "" && strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	return p.Category != "" && strings.Contains(strings.ToLower(p.Category), q)
}
