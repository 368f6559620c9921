package handlers

import (
	"artmarket/internal/middleware"
	"artmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ArtworkHandler handles HTTP requests for the catalog and its reviews.
type ArtworkHandler struct {
	artworks *services.ArtworkService
	reviews  *services.ReviewService
	logger   *zap.Logger
}

// NewArtworkHandler creates a new ArtworkHandler.
func NewArtworkHandler(artworks *services.ArtworkService, reviews *services.ReviewService, logger *zap.Logger) *ArtworkHandler {
	return &ArtworkHandler{
		artworks: artworks,
		reviews:  reviews,
		logger:   logger,
	}
}

// RegisterPublicRoutes registers the catalog routes that need no token.
func (h *ArtworkHandler) RegisterPublicRoutes(router fiber.Router) {
	artworkRoutes := router.Group("/artworks")
	artworkRoutes.Get("/", h.HandleListArtworks)
	artworkRoutes.Get("/:id", h.HandleGetArtwork)
	artworkRoutes.Get("/:id/reviews", h.HandleListReviews)
}

// RegisterRoutes registers the authenticated catalog and review routes.
func (h *ArtworkHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/artworks", h.HandleCreateArtwork)
	router.Post("/reviews", h.HandleCreateReview)
}

func (h *ArtworkHandler) HandleListArtworks(c *fiber.Ctx) error {
	artworks, err := h.artworks.ListArtworks(c.UserContext(), c.Query("availability"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(artworks)
}

func (h *ArtworkHandler) HandleGetArtwork(c *fiber.Ctx) error {
	artwork, err := h.artworks.GetArtwork(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(artwork)
}

// HandleCreateArtwork lists a new piece for the calling artist.
func (h *ArtworkHandler) HandleCreateArtwork(c *fiber.Ctx) error {
	var req services.ArtworkRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	artwork, err := h.artworks.CreateArtwork(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(artwork)
}

func (h *ArtworkHandler) HandleListReviews(c *fiber.Ctx) error {
	reviews, err := h.reviews.ListArtworkReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(reviews)
}

func (h *ArtworkHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req services.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	review, err := h.reviews.CreateReview(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
