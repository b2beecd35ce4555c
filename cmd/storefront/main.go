package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/foliadelivery/storefront/internal/analytics"
	"github.com/foliadelivery/storefront/internal/cart"
	"github.com/foliadelivery/storefront/internal/catalog"
	"github.com/foliadelivery/storefront/internal/cep"
	"github.com/foliadelivery/storefront/internal/checkout"
	"github.com/foliadelivery/storefront/internal/config"
	"github.com/foliadelivery/storefront/internal/gateway"
	httpapi "github.com/foliadelivery/storefront/internal/http"
	"github.com/foliadelivery/storefront/internal/ledger"
)

func main() {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := config.Load()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	store, err := catalog.NewStaticStore()
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	// --- ledger storage ---
	var (
		ledgerStore ledger.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatalf("parse redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		ledgerStore = ledger.NewRedisStore(redisClient)
	} else {
		logger.Printf("REDIS_URL not set, pending orders are kept in memory only")
		ledgerStore = ledger.NewMemoryStore().Handle()
	}
	orders := ledger.New(ledgerStore)

	// --- purchase tracking ---
	var tracker analytics.Tracker
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatalf("connect to RabbitMQ: %v", err)
		}
		defer conn.Close()

		rabbitTracker, err := analytics.NewRabbitTracker(conn, cfg.AdsConversionTag)
		if err != nil {
			logger.Fatalf("init rabbit tracker: %v", err)
		}
		defer rabbitTracker.Close()
		tracker = rabbitTracker
	} else {
		logger.Printf("RABBITMQ_URL not set, purchase events are logged only")
		tracker = analytics.NewNoopTracker(logger)
	}

	payments := gateway.NewClient(gateway.Config{
		BaseURL:        cfg.MedusaPayURL,
		QRImageBaseURL: cfg.QRImageURL,
		SecretKey:      cfg.MedusaPaySecretKey,
		Timeout:        cfg.GatewayTimeout,
	}, logger)

	carts := cart.NewRegistry()
	checkouts := checkout.NewRegistry(checkout.Deps{
		Payments: payments,
		Orders:   orders,
		Flags:    ledgerStore,
		Tracker:  tracker,
		Logger:   logger,
		MinOrder: cfg.MinOrderValue,
	})

	handlers := httpapi.Handlers{
		Cart:     httpapi.NewCartHandler(carts, store),
		Combo:    httpapi.NewComboHandler(carts, store),
		Checkout: httpapi.NewCheckoutHandler(carts, checkouts),
		Orders:   httpapi.NewOrdersHandler(orders),
		Catalog:  httpapi.NewCatalogHandler(store),
		CEP:      httpapi.NewCEPHandler(cep.NewClient(cfg.ViaCEPURL, 5*time.Second)),
	}

	router := httpapi.NewRouter(handlers, logger, cfg.CORSAllowOrigins)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Printf("shutdown complete")
}
