package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsStore/pkg/kit"
)

type Server struct {
	Store *Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/categories", s.categories)

	return r
}

// productView is a Product plus the search-highlighted name the storefront
// renders when a query is active.
type productView struct {
	Product
	NameHighlighted string `json:"nameHighlighted,omitempty"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	products := s.Store.Filter(category, query)

	out := make([]productView, 0, len(products))
	for _, p := range products {
		v := productView{Product: p}
		if query != "" {
			v.NameHighlighted = Highlight(p.Name, query)
		}
		out = append(out, v)
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", map[string]any{"id": raw})
		return
	}

	p, ok := s.Store.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Store.Categories())
}
