package handlers

import (
	"errors"

	"artmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognized
// is logged and reported as a 500 without internals.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var (
		verr        *services.ValidationError
		unavailable *services.ArtworkUnavailableError
		transition  *services.InvalidTransitionError
		gateway     *services.GatewayError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":    "Artwork is no longer available",
			"error":      err.Error(),
			"artwork_id": unavailable.ArtworkID,
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Invalid order status transition",
			"error":   err.Error(),
		})
	case errors.As(err, &gateway):
		logger.Error("payment gateway failure", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Payment gateway unavailable, please retry",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrArtworkNotFound),
		errors.Is(err, services.ErrCartItemNotFound),
		errors.Is(err, services.ErrWishlistItemNotFound),
		errors.Is(err, services.ErrOrderItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrReviewNotAllowed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrReviewExists),
		errors.Is(err, services.ErrPaidOrderCancel):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	default:
		logger.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

// badBody is the response for a body that does not parse.
func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
