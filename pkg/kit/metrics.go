package kit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelService = "service"
	labelMethod  = "method"
	labelPath    = "path"
	labelStatus  = "status"

	defaultStatusCode = http.StatusOK
)

// Metrics carries the HTTP collectors plus the storefront domain gauges.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec

	CartAdds        prometheus.Counter
	CartQuantity    prometheus.Gauge
	CatalogProducts prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelService, labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP latency",
			},
			[]string{labelService, labelMethod, labelPath},
		),
		CartAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_adds_total",
			Help: "Successful add-to-cart operations",
		}),
		CartQuantity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_quantity",
			Help: "Aggregate quantity across all cart lines",
		}),
		CatalogProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_products",
			Help: "Products in the loaded catalog",
		}),
	}

	reg.MustRegister(m.Requests, m.Latency, m.CartAdds, m.CartQuantity, m.CatalogProducts)
	return m
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *Metrics) Middleware(service string, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				status:         defaultStatusCode,
			}

			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.Latency.WithLabelValues(service, r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(service, r.Method, path, strconv.Itoa(sw.status)).
				Inc()
		})
	}
}
