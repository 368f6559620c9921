package middleware

import (
	"strings"

	"artmarket/internal/models"
	"artmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// resolved models.Identity is stored in Locals for IdentityFrom.
func AuthRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := authService.ResolveIdentity(c.UserContext(), parts[1])
		if err != nil {
			logger.Debug("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired.
func IdentityFrom(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(identityKey).(models.Identity)
	return identity
}

// StaffOnly rejects non-staff callers. It must run after AuthRequired.
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IdentityFrom(c).IsStaff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Staff access required",
			})
		}
		return c.Next()
	}
}
