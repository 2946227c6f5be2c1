package calculator

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsStore/pkg/kit"
)

const maxSelectionBody = 1 << 16

type Server struct {
	Service *Service
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/options", s.options)
	r.Get("/selection", s.getSelection)
	r.Put("/selection", s.putSelection)

	return r
}

type selectionResponse struct {
	Selection
	Total float64 `json:"total"`
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Service.Options())
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.Service.Load()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	total, err := s.Service.Total(sel)
	if err != nil {
		// Persisted ids no longer in the price list read as absent.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	kit.WriteJSON(w, http.StatusOK, selectionResponse{Selection: sel, Total: total})
}

func (s *Server) putSelection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSelectionBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var sel Selection
	if err := dec.Decode(&sel); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		kit.WriteError(w, r, http.StatusBadRequest, "extra data after json object", nil)
		return
	}

	saved, err := s.Service.Save(sel)
	if err != nil {
		if errors.Is(err, ErrUnknownOption) {
			kit.WriteError(w, r, http.StatusBadRequest, "unknown option", map[string]any{"error": err.Error()})
			return
		}
		if s.Log != nil {
			s.Log.Error("save calculator selection failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	total, _ := s.Service.Total(saved)
	kit.WriteJSON(w, http.StatusOK, selectionResponse{Selection: saved, Total: total})
}
