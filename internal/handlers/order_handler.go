package handlers

import (
	"artmarket/internal/middleware"
	"artmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders, their payments and artist
// sales.
type OrderHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:id/status", middleware.StaffOnly(), h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/payment", h.HandleProcessPayment)
	orderRoutes.Get("/:id/payments", h.HandleGetPayments)

	router.Get("/artists/me/sales", h.HandleArtistSales)
}

// HandleGetOrders lists the caller's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder checks out the caller's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	order, err := h.orders.CreateOrder(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.orders.CancelOrder(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order cancelled",
		"order":   order,
	})
}

// HandleUpdateOrderStatus moves an order along its lifecycle. Staff only.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req services.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	order, err := h.orders.UpdateOrderStatus(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated to " + string(order.Status),
		"order":   order,
	})
}

// HandleProcessPayment settles an order. A declined charge answers 402 with
// the failed attempt so the client can retry with another method.
func (h *OrderHandler) HandleProcessPayment(c *fiber.Ctx) error {
	var req services.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	result, err := h.payments.ProcessPayment(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !result.Success {
		return c.Status(fiber.StatusPaymentRequired).JSON(result)
	}
	return c.JSON(result)
}

func (h *OrderHandler) HandleGetPayments(c *fiber.Ctx) error {
	attempts, err := h.payments.ListPayments(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(attempts)
}

func (h *OrderHandler) HandleArtistSales(c *fiber.Ctx) error {
	sales, err := h.orders.ListArtistSales(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(sales)
}
