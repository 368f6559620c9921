package handlers

import (
	"artmarket/internal/middleware"
	"artmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler handles HTTP requests for carts and wishlists.
type CartHandler struct {
	carts     *services.CartService
	wishlists *services.WishlistService
	logger    *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *services.CartService, wishlists *services.WishlistService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:     carts,
		wishlists: wishlists,
		logger:    logger,
	}
}

// RegisterRoutes registers the cart and wishlist routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddToCart)
	cartRoutes.Delete("/items/:artworkId", h.HandleRemoveFromCart)

	wishlistRoutes := router.Group("/wishlist")
	wishlistRoutes.Get("/", h.HandleGetWishlist)
	wishlistRoutes.Post("/items", h.HandleToggleWishlist)
	wishlistRoutes.Delete("/items/:artworkId", h.HandleRemoveFromWishlist)
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.carts.GetCart(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(cart)
}

// HandleAddToCart answers 201 when the artwork was added and 200 when it was
// already in the cart.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req services.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	added, err := h.carts.AddToCart(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !added {
		return c.JSON(fiber.Map{"message": "Artwork already in cart", "added": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Artwork added to cart", "added": true})
}

func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	if err := h.carts.RemoveFromCart(c.UserContext(), middleware.IdentityFrom(c), c.Params("artworkId")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Artwork removed from cart"})
}

func (h *CartHandler) HandleGetWishlist(c *fiber.Ctx) error {
	wishlist, err := h.wishlists.GetWishlist(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(wishlist)
}

func (h *CartHandler) HandleToggleWishlist(c *fiber.Ctx) error {
	var req services.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	in, err := h.wishlists.ToggleWishlist(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	message := "Artwork removed from wishlist"
	if in {
		message = "Artwork added to wishlist"
	}
	return c.JSON(fiber.Map{"message": message, "in_wishlist": in})
}

func (h *CartHandler) HandleRemoveFromWishlist(c *fiber.Ctx) error {
	if err := h.wishlists.RemoveFromWishlist(c.UserContext(), middleware.IdentityFrom(c), c.Params("artworkId")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Artwork removed from wishlist"})
}
