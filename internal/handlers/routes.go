package handlers

import (
	"time"

	"artmarket/internal/middleware"
	"artmarket/internal/services"
	"artmarket/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth      *services.AuthService
	Artworks  *services.ArtworkService
	Carts     *services.CartService
	Wishlists *services.WishlistService
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Reviews   *services.ReviewService
}

// RouteOptions configures the optional idempotency layer. A nil Cache turns
// it off.
type RouteOptions struct {
	Cache          cache.Cache
	IdempotencyTTL time.Duration
}

// Register mounts every route under /api/v1. Public routes are registered
// before the authenticated group so its middleware never runs for them.
func Register(app *fiber.App, svc Services, opts RouteOptions, logger *zap.Logger) {
	apiV1 := app.Group("/api/v1")

	artworkHandler := NewArtworkHandler(svc.Artworks, svc.Reviews, logger)
	cartHandler := NewCartHandler(svc.Carts, svc.Wishlists, logger)
	orderHandler := NewOrderHandler(svc.Orders, svc.Payments, logger)

	artworkHandler.RegisterPublicRoutes(apiV1)

	protected := apiV1.Group("",
		middleware.AuthRequired(svc.Auth, logger),
		middleware.Idempotency(opts.Cache, opts.IdempotencyTTL, logger),
	)
	artworkHandler.RegisterRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)
}
