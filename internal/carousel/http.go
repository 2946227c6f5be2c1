package carousel

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsStore/internal/catalog"
	"PartsStore/pkg/kit"
)

type Server struct {
	Catalog *catalog.Store
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.pages)
	return r
}

type pagesResponse struct {
	Pages     [][]catalog.Product `json:"pages"`
	PageCount int                 `json:"page_count"`
}

func (s *Server) pages(w http.ResponseWriter, r *http.Request) {
	if !s.Catalog.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	perPage := DefaultPerPage
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad per_page", map[string]any{"per_page": v})
			return
		}
		perPage = n
	}

	pages := Pages(s.Catalog.Products(), perPage)
	kit.WriteJSON(w, http.StatusOK, pagesResponse{
		Pages:     pages,
		PageCount: len(pages),
	})
}
