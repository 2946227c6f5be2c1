// Package app assembles the storefront HTTP handler: middleware, metrics,
// health probes and the domain routers. It owns no state of its own; every
// route is a thin translation onto the stores.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"PartsStore/internal/calculator"
	"PartsStore/internal/carousel"
	"PartsStore/internal/cart"
	"PartsStore/internal/catalog"
	"PartsStore/pkg/kit"
)

type Deps struct {
	Catalog    *catalog.Store
	Cart       *cart.Store
	Calculator *calculator.Service

	// RateLimit caps requests per IP per RateLimitWindow seconds on the
	// whole public API; 0 disables it.
	RateLimit       int
	RateLimitWindow int
}

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const readyTimeout = 1 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps, httpDeps)
	metrics := setupMetrics(r, httpDeps)
	wireDomainMetrics(metrics, deps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	cartSrv := &cart.Server{Store: deps.Cart, Log: httpDeps.Log, Metrics: metrics}
	r.Mount("/cart", cartSrv.Routes())

	carouselSrv := &carousel.Server{Catalog: deps.Catalog, Log: httpDeps.Log}
	r.Mount("/carousel", carouselSrv.Routes())

	calcSrv := &calculator.Server{Service: deps.Calculator, Log: httpDeps.Log}
	r.Mount("/calculator", calcSrv.Routes())

	catalogSrv := &catalog.Server{Store: deps.Catalog, Log: httpDeps.Log}
	r.Mount("/", catalogSrv.Routes())

	return r
}

func setupMiddleware(r *chi.Mux, deps Deps, httpDeps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(httpDeps.Log))

	if deps.RateLimit > 0 {
		limiter := kit.NewIPRateLimiter(deps.RateLimit, deps.RateLimitWindow)
		r.Use(limiter.Middleware)
	}
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) *kit.Metrics {
	if deps.Registry == nil {
		return nil
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if deps.MetricsEnabled {
		r.With(kit.MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return metrics
}

func wireDomainMetrics(metrics *kit.Metrics, deps Deps) {
	if metrics == nil {
		return
	}

	metrics.CatalogProducts.Set(float64(len(deps.Catalog.Products())))
	deps.Cart.OnTotalChange(func(total int) {
		metrics.CartQuantity.Set(float64(total))
	})
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Catalog.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
