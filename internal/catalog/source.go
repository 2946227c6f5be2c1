package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrLoad covers every way a catalog load can fail: unreachable source,
// malformed document, invalid product data. Callers react the same to all
// of them, so they are one kind.
var ErrLoad = errors.New("catalog load failed")

// Source fetches the full product list. A Source is read exactly once per
// successful session; Ping backs the readiness probe.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
	Ping(ctx context.Context) error
}

type document struct {
	Products []Product `json:"products"`
}

func parseDocument(raw []byte) ([]Product, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrLoad, err)
	}
	if err := validate(doc.Products); err != nil {
		return nil, err
	}
	return doc.Products, nil
}

func validate(products []Product) error {
	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %d", ErrLoad, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Price < 0 || p.OldPrice < 0 {
			return fmt.Errorf("%w: negative price on product %d", ErrLoad, p.ID)
		}
		if p.Stock < 0 {
			return fmt.Errorf("%w: negative stock on product %d", ErrLoad, p.ID)
		}
	}
	return nil
}

// FileSource reads the static products.json document from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) ([]Product, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return parseDocument(raw)
}

func (s *FileSource) Ping(ctx context.Context) error {
	_, err := os.Stat(s.Path)
	return err
}

// HTTPSource fetches the same document over a plain GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Product, error) {
	raw, err := s.get(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	return parseDocument(raw)
}

func (s *HTTPSource) Ping(ctx context.Context) error {
	_, err := s.get(ctx, http.MethodHead)
	return err
}

func (s *HTTPSource) get(ctx context.Context, method string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrLoad, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return raw, nil
}
