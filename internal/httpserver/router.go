package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"inkblot-storefront/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type catalogService interface {
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
	GetProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
}

type cartService interface {
	AddVariant(ctx context.Context, profileID, variantID string, quantity int) (*domain.Cart, error)
	FetchCurrentCart(ctx context.Context, profileID string) (*domain.Cart, error)
}

type profileService interface {
	Issue() string
	Recognise(id string) (string, bool)
	TTLSeconds() int
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on.
type Deps struct {
	CatalogSvc catalogService
	CartSvc    cartService
	ProfileSvc profileService
	CartStore  pinger
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps, allowedOrigins []string) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.ProfileSvc == nil {
		return nil, errors.New("profile service required")
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:handle", h.getProduct)

	cart := api.Group("/cart", profileMiddleware(deps.ProfileSvc))
	cart.GET("", h.currentCart)
	cart.POST("/add", h.addToCart)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
