package repositories

import (
	"context"

	"artmarket/internal/models"
)

// StatusChange is applied to an order by UpdateStatus in one statement.
// Empty fields are left untouched.
type StatusChange struct {
	To             models.OrderStatus
	PaymentStatus  models.PaymentStatus
	TrackingNumber string
	// RequireUnpaid limits the update to orders whose payment_status is not paid.
	RequireUnpaid bool
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	// GetByID loads the order with its items.
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	// UpdateStatus applies change only while the order is still in status
	// from. It reports whether the row was changed.
	UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change StatusChange) (bool, error)
	// MarkPaid sets payment_status=paid and status=confirmed in one
	// statement, guarded so that it succeeds at most once per order.
	MarkPaid(ctx context.Context, id string) (bool, error)
	// Cancel moves an unpaid pending or confirmed order to cancelled.
	Cancel(ctx context.Context, id string) (bool, error)
	GetItem(ctx context.Context, itemID string) (*models.OrderItem, error)
	// ListItemsByArtist returns the artist's sold items, excluding cancelled
	// and refunded orders.
	ListItemsByArtist(ctx context.Context, artistID string) ([]models.OrderItem, error)
}

// PaymentRepository defines the interface for payment attempt data access.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error)
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsForOrderItem(ctx context.Context, orderItemID string) (bool, error)
	ListByArtwork(ctx context.Context, artworkID string) ([]models.Review, error)
}
