package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"artmarket/internal/models"
	"artmarket/internal/pricing"
	"artmarket/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderNumberAttempts bounds retries when a generated order number collides.
const orderNumberAttempts = 3

// AddressRequest is a postal address as submitted at checkout.
type AddressRequest struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" validate:"required,max=15"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line_2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,max=100"`
}

func (a AddressRequest) toModel() models.Address {
	return models.Address{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}

// CreateOrderRequest is the checkout payload. Billing defaults to the
// shipping address when omitted.
type CreateOrderRequest struct {
	Shipping AddressRequest  `json:"shipping"`
	Billing  *AddressRequest `json:"billing" validate:"omitempty"`
	Notes    string          `json:"notes" validate:"max=1000"`
}

// StatusUpdateRequest is the staff payload for moving an order along.
type StatusUpdateRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	TrackingNumber string `json:"tracking_number" validate:"max=100"`
}

// ArtistSales summarizes what an artist has sold.
type ArtistSales struct {
	Items         []models.OrderItem `json:"items"`
	TotalSales    int                `json:"total_sales"`
	TotalRevenue  decimal.Decimal    `json:"total_revenue"`
	TotalEarnings decimal.Decimal    `json:"total_earnings"`
}

// OrderService turns carts into orders and moves orders through their
// lifecycle.
type OrderService struct {
	store     repositories.Store
	policy    pricing.Policy
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(store repositories.Store, policy pricing.Policy, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:     store,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder checks out the caller's whole cart. Every artwork is claimed
// with a conditional for_sale -> sold update; if any claim fails nothing is
// written.
func (s *OrderService) CreateOrder(ctx context.Context, identity models.Identity, req CreateOrderRequest) (*models.Order, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	cart, err := s.store.Carts().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order, err = s.checkout(ctx, identity, cart.ID, req)
		if err == nil || !errors.Is(err, repositories.ErrDuplicate) || attempt == orderNumberAttempts {
			break
		}
		s.logger.Warn("order number collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("buyer_id", order.BuyerID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	publishOrderEvent(s.publisher, s.logger, EventOrderCreated, order)
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, identity models.Identity, cartID string, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		cartItems, err := tx.Carts().ListItems(ctx, cartID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}
		// Claim in a global order so two checkouts sharing artworks never
		// hold row locks the other is waiting for.
		sort.Slice(cartItems, func(i, j int) bool {
			return cartItems[i].ArtworkID < cartItems[j].ArtworkID
		})

		prices := make([]decimal.Decimal, 0, len(cartItems))
		items := make([]models.OrderItem, 0, len(cartItems))
		artworkIDs := make([]string, 0, len(cartItems))
		for _, ci := range cartItems {
			claimed, err := tx.Artworks().CompareAndSetAvailability(ctx, ci.ArtworkID, models.AvailabilityForSale, models.AvailabilitySold)
			if err != nil {
				return err
			}
			if !claimed {
				return &ArtworkUnavailableError{ArtworkID: ci.ArtworkID}
			}
			// Read after the claim so the price is the one in force when the
			// piece was sold.
			artwork, err := tx.Artworks().GetByID(ctx, ci.ArtworkID)
			if err != nil {
				return err
			}
			prices = append(prices, artwork.Price)
			items = append(items, models.OrderItem{
				ArtworkID: artwork.ID,
				ArtistID:  artwork.ArtistID,
				Title:     artwork.Title,
				Price:     artwork.Price,
			})
			artworkIDs = append(artworkIDs, artwork.ID)
		}

		quote := s.policy.Quote(prices)
		billing := req.Shipping
		if req.Billing != nil {
			billing = *req.Billing
		}
		order = &models.Order{
			OrderNumber:    newOrderNumber(),
			BuyerID:        identity.UserID,
			Status:         models.OrderPending,
			PaymentStatus:  models.PaymentPending,
			Subtotal:       quote.Subtotal,
			TaxAmount:      quote.Tax,
			ShippingAmount: quote.Shipping,
			TotalAmount:    quote.Total,
			Shipping:       req.Shipping.toModel(),
			Billing:        billing.toModel(),
			Notes:          req.Notes,
			Items:          items,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		if _, err := tx.Carts().RemoveArtworks(ctx, artworkIDs); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// newOrderNumber returns 10 uppercase hex characters.
func newOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	return s.store.Orders().ListByBuyer(ctx, identity.UserID)
}

// GetOrder returns an order the caller owns. Staff may read any order.
func (s *OrderService) GetOrder(ctx context.Context, identity models.Identity, id string) (*models.Order, error) {
	return loadOrder(ctx, s.store, identity, id)
}

// loadOrder hides orders of other buyers behind ErrOrderNotFound.
func loadOrder(ctx context.Context, store repositories.Store, identity models.Identity, id string) (*models.Order, error) {
	order, err := store.Orders().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.BuyerID != identity.UserID && !identity.IsStaff {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder cancels an unpaid order of the caller and puts its artworks
// back on sale.
func (s *OrderService) CancelOrder(ctx context.Context, identity models.Identity, id string) (*models.Order, error) {
	order, err := loadOrder(ctx, s.store, identity, id)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, &InvalidTransitionError{From: order.Status, To: models.OrderCancelled}
	}

	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		cancelled, err := tx.Orders().Cancel(ctx, order.ID)
		if err != nil {
			return err
		}
		if !cancelled {
			return &InvalidTransitionError{From: order.Status, To: models.OrderCancelled}
		}
		return releaseArtworks(ctx, tx, order.Items)
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderCancelled
	s.logger.Info("order cancelled", zap.String("order_id", order.ID), zap.String("by", identity.UserID))
	publishOrderEvent(s.publisher, s.logger, EventOrderCancelled, order)
	return order, nil
}

// releaseArtworks returns sold pieces to the catalog. A piece whose state was
// changed by someone else since the sale is left alone.
func releaseArtworks(ctx context.Context, tx repositories.Store, items []models.OrderItem) error {
	for _, item := range items {
		if _, err := tx.Artworks().CompareAndSetAvailability(ctx, item.ArtworkID, models.AvailabilitySold, models.AvailabilityForSale); err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderStatus moves an order along the status machine. Staff only.
// A paid order can only leave through refunded.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, identity models.Identity, id string, req StatusUpdateRequest) (*models.Order, error) {
	if !identity.IsStaff {
		return nil, ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	order, err := loadOrder(ctx, s.store, identity, id)
	if err != nil {
		return nil, err
	}

	to := models.OrderStatus(req.Status)
	if !order.Status.CanTransitionTo(to) {
		return nil, &InvalidTransitionError{From: order.Status, To: to}
	}
	if to == models.OrderCancelled && order.IsPaid() {
		return nil, ErrPaidOrderCancel
	}
	change := repositories.StatusChange{
		To:             to,
		TrackingNumber: req.TrackingNumber,
		RequireUnpaid:  to == models.OrderCancelled,
	}
	if to == models.OrderRefunded {
		change.PaymentStatus = models.PaymentRefunded
	}

	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		updated, err := tx.Orders().UpdateStatus(ctx, order.ID, order.Status, change)
		if err != nil {
			return err
		}
		if !updated {
			current, err := tx.Orders().GetByID(ctx, order.ID)
			if err == nil && to == models.OrderCancelled && current.IsPaid() {
				return ErrPaidOrderCancel
			}
			return &InvalidTransitionError{From: order.Status, To: to}
		}
		if to == models.OrderCancelled {
			return releaseArtworks(ctx, tx, order.Items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Orders().GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", order.ID, err)
	}
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)),
		zap.String("by", identity.UserID))

	event := EventOrderStatusChanged
	if to == models.OrderCancelled {
		event = EventOrderCancelled
	}
	publishOrderEvent(s.publisher, s.logger, event, updated)
	return updated, nil
}

// ListArtistSales returns the caller's sold items with their earnings.
func (s *OrderService) ListArtistSales(ctx context.Context, identity models.Identity) (*ArtistSales, error) {
	if !identity.IsArtist() {
		return nil, ErrForbidden
	}
	items, err := s.store.Orders().ListItemsByArtist(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	sales := &ArtistSales{
		Items:         items,
		TotalSales:    len(items),
		TotalRevenue:  decimal.Zero,
		TotalEarnings: decimal.Zero,
	}
	for _, item := range items {
		sales.TotalRevenue = sales.TotalRevenue.Add(item.Price)
		sales.TotalEarnings = sales.TotalEarnings.Add(item.ArtistEarnings)
	}
	return sales, nil
}
