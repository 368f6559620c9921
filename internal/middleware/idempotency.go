package middleware

import (
	"encoding/json"
	"time"

	"artmarket/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// IdempotencyHeader carries the client's retry key.
	IdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from the idempotency cache.
	ReplayedHeader = "Idempotent-Replayed"

	// inFlightMarker holds a key while its first request is being handled.
	inFlightMarker = "in-flight"
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first response to a POST carrying an
// Idempotency-Key header. Keys are scoped to the caller and route. The key is
// reserved before the handler runs, so a second request arriving while the
// first is still in flight gets 409 instead of running the handler again.
// Server errors release the key so the client can retry them. A nil store
// disables the middleware. It must run after AuthRequired.
func Idempotency(store cache.Cache, ttl time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if store == nil || key == "" || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		ctx := c.UserContext()
		cacheKey := store.GenerateKey("idempotency", IdentityFrom(c).UserID+":"+c.Path()+":"+key)

		reserved, err := store.SetNX(ctx, cacheKey, inFlightMarker, ttl)
		if err != nil {
			logger.Warn("idempotency reservation failed", zap.String("key", cacheKey), zap.Error(err))
			return c.Next()
		}
		if !reserved {
			return replay(c, store, cacheKey, logger)
		}

		release := func() {
			if err := store.Delete(ctx, cacheKey); err != nil {
				logger.Warn("failed to release idempotency key", zap.String("key", cacheKey), zap.Error(err))
			}
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release()
			return nil
		}
		body, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			release()
			return nil
		}
		if err := store.Set(ctx, cacheKey, string(body), ttl); err != nil {
			logger.Warn("failed to store idempotent response", zap.String("key", cacheKey), zap.Error(err))
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store cache.Cache, cacheKey string, logger *zap.Logger) error {
	cached, err := store.Get(c.UserContext(), cacheKey)
	if err != nil {
		logger.Warn("idempotency lookup failed", zap.String("key", cacheKey), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Could not check Idempotency-Key, please retry",
		})
	}
	if cached == inFlightMarker || cached == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "A request with this Idempotency-Key is already in progress",
		})
	}

	var resp storedResponse
	if err := json.Unmarshal([]byte(cached), &resp); err != nil {
		logger.Warn("unreadable idempotency entry", zap.String("key", cacheKey), zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Idempotency-Key cannot be replayed",
		})
	}
	c.Set(ReplayedHeader, "true")
	c.Set(fiber.HeaderContentType, resp.ContentType)
	return c.Status(resp.Status).Send(resp.Body)
}
