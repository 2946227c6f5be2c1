// Package calculator backs the hosting-cost widget: fixed price lists for
// domain, hosting and administration, a total over one selection, and the
// selection persisted in its own storage slot.
package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"PartsStore/internal/storage"
)

// Slot is the storage key holding the persisted selection.
const Slot = "calculator"

var ErrUnknownOption = errors.New("unknown option")

type Option struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Options struct {
	Domains []Option `json:"domains"`
	Hosting []Option `json:"hosting"`
	Admin   []Option `json:"admin"`
}

// Selection is one saved widget state. Timestamp is set at save time.
type Selection struct {
	Domain    string    `json:"domain"`
	Hosting   string    `json:"hosting"`
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultOptions mirrors the storefront's price list.
func DefaultOptions() Options {
	return Options{
		Domains: []Option{
			{ID: "ru", Name: "Домен .ru", Price: 199},
			{ID: "com", Name: "Домен .com", Price: 899},
			{ID: "store", Name: "Домен .store", Price: 1490},
		},
		Hosting: []Option{
			{ID: "basic", Name: "Хостинг Базовый", Price: 290},
			{ID: "optimal", Name: "Хостинг Оптимальный", Price: 590},
			{ID: "premium", Name: "Хостинг Премиум", Price: 1190},
		},
		Admin: []Option{
			{ID: "none", Name: "Без администрирования", Price: 0},
			{ID: "standard", Name: "Администрирование Стандарт", Price: 1500},
			{ID: "full", Name: "Администрирование Полное", Price: 4500},
		},
	}
}

type Service struct {
	opts  Options
	slots *storage.Store
	log   *zap.Logger
}

func NewService(slots *storage.Store, log *zap.Logger) *Service {
	return &Service{opts: DefaultOptions(), slots: slots, log: log}
}

func (s *Service) Options() Options { return s.opts }

// Total prices a selection against the option lists.
func (s *Service) Total(sel Selection) (float64, error) {
	domain, err := price(s.opts.Domains, sel.Domain)
	if err != nil {
		return 0, fmt.Errorf("domain: %w", err)
	}
	hosting, err := price(s.opts.Hosting, sel.Hosting)
	if err != nil {
		return 0, fmt.Errorf("hosting: %w", err)
	}
	admin, err := price(s.opts.Admin, sel.Admin)
	if err != nil {
		return 0, fmt.Errorf("admin: %w", err)
	}
	return domain + hosting + admin, nil
}

func price(opts []Option, id string) (float64, error) {
	for _, o := range opts {
		if o.ID == id {
			return o.Price, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOption, id)
}

// Save validates the selection, stamps it and persists it.
func (s *Service) Save(sel Selection) (Selection, error) {
	if _, err := s.Total(sel); err != nil {
		return Selection{}, err
	}

	sel.Timestamp = time.Now().UTC()
	raw, err := json.Marshal(sel)
	if err != nil {
		return Selection{}, err
	}
	if err := s.slots.Set(Slot, raw); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Load returns the persisted selection. Absent or malformed state reads
// as no selection.
func (s *Service) Load() (Selection, bool) {
	raw, ok, err := s.slots.Get(Slot)
	if err != nil || !ok {
		if err != nil {
			s.log.Warn("read calculator state failed", zap.Error(err))
		}
		return Selection{}, false
	}

	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		s.log.Warn("malformed calculator state, treating as absent", zap.Error(err))
		return Selection{}, false
	}
	return sel, true
}
