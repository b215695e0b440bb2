package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inkblot-storefront/internal/config"
	"inkblot-storefront/internal/db"
	"inkblot-storefront/internal/httpserver"
	"inkblot-storefront/internal/repository/cartref"
	cartsvc "inkblot-storefront/internal/service/cart"
	catalogsvc "inkblot-storefront/internal/service/catalog"
	profilesvc "inkblot-storefront/internal/service/profile"
	"inkblot-storefront/internal/storefront"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	client, err := storefront.New(storefront.Options{
		Domain:     cfg.Storefront.Domain,
		Token:      cfg.Storefront.Token,
		APIVersion: cfg.Storefront.APIVersion,
		Timeout:    cfg.Storefront.Timeout,
		Retry: storefront.RetryPolicy{
			MaxRetries:     cfg.Storefront.MaxRetries,
			InitialBackoff: cfg.Storefront.RetryBackoff,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("init storefront client: %v", err)
	}

	ctx := context.Background()
	refs, closeRefs, err := openCartStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open cart store %q: %v", cfg.CartStore, err)
	}
	defer closeRefs()

	catalogService := catalogsvc.New(client, logger)
	cartService := cartsvc.New(client, refs,
		cartsvc.WithBusyPolicy(cartsvc.BusyPolicy(cfg.Cart.BusyPolicy)),
		cartsvc.WithClearStale(cfg.Cart.ClearStale),
		cartsvc.WithLogger(logger),
	)
	profileService := profilesvc.New(0)

	gin.SetMode(gin.ReleaseMode)
	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CatalogSvc: catalogService,
		CartSvc:    cartService,
		ProfileSvc: profileService,
		CartStore:  refs,
	}, cfg.AllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (storefront %s, cart store %s)", cfg.HTTPAddr, client.Endpoint(), cfg.CartStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func openCartStore(ctx context.Context, cfg config.Config, logger *log.Logger) (cartref.Repository, func(), error) {
	switch cfg.CartStore {
	case "", "memory":
		return cartref.NewMemory(), func() {}, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		return cartref.NewPostgres(pool, logger), pool.Close, nil
	case "redis":
		client, err := cartref.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cartref.NewRedis(client, cfg.Cart.ReferenceTTL), func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.New("unknown cart store")
	}
}
