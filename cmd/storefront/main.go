package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/saikhaykhunmong/strapi-nextts/internal/cart"
	"github.com/saikhaykhunmong/strapi-nextts/internal/catalog"
	"github.com/saikhaykhunmong/strapi-nextts/internal/checkout"
	"github.com/saikhaykhunmong/strapi-nextts/internal/events"
	h "github.com/saikhaykhunmong/strapi-nextts/internal/http"
	"github.com/saikhaykhunmong/strapi-nextts/internal/identity"
	"github.com/saikhaykhunmong/strapi-nextts/internal/orders"
	"github.com/saikhaykhunmong/strapi-nextts/internal/session"
	"github.com/saikhaykhunmong/strapi-nextts/internal/storage"
	"github.com/saikhaykhunmong/strapi-nextts/internal/telemetry"
)

type Config struct {
	HTTPPort        string
	CatalogURL      string
	IdentityURL     string
	OrdersURL       string
	StateDir        string
	RedisAddr       string
	KafkaBrokers    []string
	KafkaTopic      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	backend := getEnv("BACKEND_URL", "http://localhost:1337/api")
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogURL:      getEnv("CATALOG_URL", backend),
		IdentityURL:     getEnv("IDENTITY_URL", backend),
		OrdersURL:       getEnv("ORDERS_URL", backend),
		StateDir:        getEnv("STATE_DIR", ".storefront"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "storefront-events"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	log := telemetry.NewLogger(os.Stderr)

	kv, err := newKV(cfg)
	if err != nil {
		log.Error("failed to open state storage", "error", err)
		os.Exit(1)
	}

	identityClient := identity.NewClient(cfg.IdentityURL, cfg.RequestTimeout)
	catalogClient := catalog.NewClient(cfg.CatalogURL, cfg.RequestTimeout)
	ordersClient := orders.NewClient(cfg.OrdersURL, cfg.RequestTimeout)

	sessions := session.NewStore(kv, identityClient, log)
	cartStore := cart.NewStore(kv, log)

	ctx := context.Background()

	// The session must settle before the cart decides whether its
	// persisted record is still valid.
	if err := sessions.Restore(ctx); err != nil {
		log.Error("session restore failed", "error", err)
		os.Exit(1)
	}
	if err := cartStore.Load(ctx, sessions.Authenticated()); err != nil {
		log.Error("cart load failed", "error", err)
		os.Exit(1)
	}
	stopWatch := cartStore.WatchSession(sessions)
	defer stopWatch()

	var sink checkout.EventSink
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		sink = publisher

		mirrorCtx, stopMirror := context.WithCancel(ctx)
		defer stopMirror()
		go publisher.MirrorCartChanges(mirrorCtx, cartStore.Subscribe())
	}

	orchestrator := checkout.NewOrchestrator(cartStore, sessions, ordersClient, sink, log)
	lookup := orders.NewLookup(ordersClient, sessions, log)

	authHandler := h.NewAuthHandler(sessions, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(cartStore, sessions, cfg.RequestTimeout)
	productHandler := h.NewProductHandler(catalogClient, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(orchestrator, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(lookup, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/profile", authHandler.Profile)
		r.Put("/profile", authHandler.UpdateProfile)

		r.Get("/products", productHandler.List)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Get("/events", cartHandler.Events)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.Clear)
		})

		r.Post("/checkout", checkoutHandler.Submit)

		r.Get("/orders", ordersHandler.List)
		r.Get("/orders/{token}", ordersHandler.Get)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // the SSE stream must be allowed to run
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server exited")
}

// newKV picks Redis-backed state when REDIS_ADDR is set, file-backed
// otherwise.
func newKV(cfg *Config) (storage.KV, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewRedisKV(client, "default"), nil
	}
	return storage.NewFileKV(cfg.StateDir)
}
