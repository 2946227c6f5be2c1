package cart

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsStore/pkg/kit"
)

const maxAddBody = 1 << 16

type Server struct {
	Store   *Store
	Log     *zap.Logger
	Metrics *kit.Metrics
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/count", s.count)
	r.Post("/items", s.add)

	return r
}

type addReq struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type cartResponse struct {
	Lines         []Line `json:"lines"`
	TotalQuantity int    `json:"total_quantity"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, cartResponse{
		Lines:         s.Store.Lines(),
		TotalQuantity: s.Store.TotalQuantity(),
	})
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]int{"count": s.Store.TotalQuantity()})
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddRequest(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	if err := s.Store.Add(req.ProductID, req.Qty); err != nil {
		s.writeAddError(w, r, req, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.CartAdds.Inc()
	}

	kit.WriteJSON(w, http.StatusCreated, cartResponse{
		Lines:         s.Store.Lines(),
		TotalQuantity: s.Store.TotalQuantity(),
	})
}

func decodeAddRequest(w http.ResponseWriter, r *http.Request) (addReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAddBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req addReq
	if err := dec.Decode(&req); err != nil {
		return addReq{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return addReq{}, errors.New("extra data after json object")
	}

	return req, nil
}

func (s *Server) writeAddError(w http.ResponseWriter, r *http.Request, req addReq, err error) {
	switch {
	case errors.Is(err, ErrBadQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "bad quantity", map[string]any{"qty": req.Qty})
	case errors.Is(err, ErrUnknownProduct):
		kit.WriteError(w, r, http.StatusNotFound, "unknown product", map[string]any{"product_id": req.ProductID})
	default:
		if s.Log != nil {
			s.Log.Error("add to cart failed", zap.Error(err), zap.Int64("product_id", req.ProductID))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
