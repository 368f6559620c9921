package repositories

import (
	"context"
	"errors"
	"fmt"

	"artmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order and, through the association, its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create order %s: %w", order.OrderNumber, ErrDuplicate)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	for i := range order.Items {
		order.Items[i].ArtistEarnings = order.Items[i].Earnings()
	}
	return nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *GORMOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders of buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change StatusChange) (bool, error) {
	updates := map[string]any{"status": change.To}
	if change.PaymentStatus != "" {
		updates["payment_status"] = change.PaymentStatus
	}
	if change.TrackingNumber != "" {
		updates["tracking_number"] = change.TrackingNumber
	}
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from)
	if change.RequireUnpaid {
		query = query.Where("payment_status <> ?", models.PaymentPaid)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMOrderRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status IN ?", id, models.PaymentPaid,
			[]models.OrderStatus{models.OrderPending, models.OrderConfirmed}).
		Updates(map[string]any{
			"payment_status": models.PaymentPaid,
			"status":         models.OrderConfirmed,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMOrderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND status IN ?", id, models.PaymentPaid,
			[]models.OrderStatus{models.OrderPending, models.OrderConfirmed}).
		Update("status", models.OrderCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("failed to cancel order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMOrderRepository) GetItem(ctx context.Context, itemID string) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order item with ID %s not found: %w", itemID, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get order item %s: %w", itemID, err)
	}
	return &item, nil
}

func (r *GORMOrderRepository) ListItemsByArtist(ctx context.Context, artistID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Select("order_items.*").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.artist_id = ? AND orders.status NOT IN ?", artistID,
			[]models.OrderStatus{models.OrderCancelled, models.OrderRefunded}).
		Order("order_items.created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales of artist %s: %w", artistID, err)
	}
	return items, nil
}

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

func (r *GORMPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment for order %s: %w", payment.OrderID, err)
	}
	return nil
}

// Update writes the attempt's outcome fields.
func (r *GORMPaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]any{
		"status":           payment.Status,
		"transaction_id":   payment.TransactionID,
		"gateway_response": payment.GatewayResponse,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update payment %s: %w", payment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment with ID %s not found for update: %w", payment.ID, ErrRecordNotFound)
	}
	return nil
}

func (r *GORMPaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments of order %s: %w", orderID, err)
	}
	return payments, nil
}

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("review for order item %s already exists: %w", review.OrderItemID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *GORMReviewRepository) ExistsForOrderItem(ctx context.Context, orderItemID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("order_item_id = ?", orderItemID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check review for order item %s: %w", orderItemID, err)
	}
	return count > 0, nil
}

// ListByArtwork returns published reviews, newest first.
func (r *GORMReviewRepository) ListByArtwork(ctx context.Context, artworkID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ? AND is_published = ?", artworkID, true).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews of artwork %s: %w", artworkID, err)
	}
	return reviews, nil
}
