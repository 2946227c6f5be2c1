package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"PartsStore/internal/app"
	"PartsStore/internal/calculator"
	"PartsStore/internal/cart"
	"PartsStore/internal/catalog"
	"PartsStore/internal/storage"
	"PartsStore/pkg/kit"
)

type config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// Catalog source, first match wins: DATABASE_URL, CATALOG_URL, then
	// the static document at CATALOG_PATH.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	CatalogURL  string `envconfig:"CATALOG_URL"`
	CatalogPath string `envconfig:"CATALOG_PATH" default:"data/products.json"`

	DataDir string `envconfig:"DATA_DIR" default:"data/state"`

	MetricsToken string `envconfig:"METRICS_TOKEN"`

	RateLimit       int `envconfig:"RATE_LIMIT" default:"0"`
	RateLimitWindow int `envconfig:"RATE_LIMIT_WINDOW" default:"60"`
}

const loadTimeout = 10 * time.Second

func main() {
	service := "storefront"

	_ = godotenv.Load()

	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("read config failed", zap.Error(err))
	}

	source, closeSource, err := buildSource(cfg)
	if err != nil {
		log.Fatal("init catalog source failed", zap.Error(err))
	}
	defer closeSource()

	catalogStore := catalog.NewStore(source)
	loadCatalog(catalogStore, log)

	slots, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatal("init storage failed", zap.Error(err))
	}

	watcher, err := storage.NewWatcher(slots, log)
	if err != nil {
		log.Fatal("init storage watcher failed", zap.Error(err))
	}
	defer func() { _ = watcher.Close() }()

	cartStore := cart.NewStore(slots, catalogStore, log)
	unsubscribe := cartStore.Watch(watcher, func(lines []cart.Line) {
		log.Info("cart replaced by external change",
			zap.Int("lines", len(lines)),
			zap.Int("total_quantity", cartStore.TotalQuantity()),
		)
	})
	defer unsubscribe()

	calc := calculator.NewService(slots, log)

	reg := prometheus.NewRegistry()
	h := app.NewHandler(
		app.Deps{
			Catalog:         catalogStore,
			Cart:            cartStore,
			Calculator:      calc,
			RateLimit:       cfg.RateLimit,
			RateLimitWindow: cfg.RateLimitWindow,
		},
		app.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.MetricsToken != "",
			MetricsToken:   cfg.MetricsToken,
		},
	)

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// loadCatalog failure is not fatal: the service starts with an unloaded
// catalog, the API reports it unavailable and an operator restart retries.
func loadCatalog(store *catalog.Store, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := store.Load(ctx); err != nil {
		log.Warn("catalog load failed, starting unloaded", zap.Error(err))
		return
	}
	log.Info("catalog loaded", zap.Int("products", len(store.Products())))
}

func buildSource(cfg config) (catalog.Source, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgresSource(db), func() { _ = db.Close() }, nil
	case cfg.CatalogURL != "":
		return catalog.NewHTTPSource(cfg.CatalogURL), func() {}, nil
	default:
		return &catalog.FileSource{Path: cfg.CatalogPath}, func() {}, nil
	}
}
