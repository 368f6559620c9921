package models

import (
	"time"

	"artmarket/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// fulfilment is the forward path; the index is the rank of each status.
var fulfilment = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}

var sideExits = map[OrderStatus][]OrderStatus{
	OrderCancelled: {OrderPending, OrderConfirmed, OrderProcessing},
	OrderRefunded:  {OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered},
}

func (s OrderStatus) rank() int {
	for i, st := range fulfilment {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s.rank() >= 0 || s == OrderCancelled || s == OrderRefunded
}

// CanTransitionTo allows any forward move along the fulfilment path, plus
// cancellation and refund from the states listed in sideExits.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if from, ok := sideExits[next]; ok {
		for _, allowed := range from {
			if allowed == s {
				return true
			}
		}
		return false
	}
	cur, nxt := s.rank(), next.rank()
	return cur >= 0 && nxt > cur
}

// PaymentStatus is the settlement state recorded on the order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Address is a denormalized postal address copied onto the order so later
// profile edits never alter historical orders.
type Address struct {
	FirstName    string `json:"first_name" gorm:"type:varchar(100)"`
	LastName     string `json:"last_name" gorm:"type:varchar(100)"`
	Email        string `json:"email" gorm:"type:varchar(254)"`
	Phone        string `json:"phone" gorm:"type:varchar(15)"`
	AddressLine1 string `json:"address_line_1" gorm:"type:varchar(255)"`
	AddressLine2 string `json:"address_line_2" gorm:"type:varchar(255)"`
	City         string `json:"city" gorm:"type:varchar(100)"`
	State        string `json:"state" gorm:"type:varchar(100)"`
	PostalCode   string `json:"postal_code" gorm:"type:varchar(20)"`
	Country      string `json:"country" gorm:"type:varchar(100)"`
}

// Order is the immutable result of a checkout. Pricing fields are written
// once at creation and never recomputed.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber    string          `json:"order_number" gorm:"uniqueIndex;type:varchar(20);not null"`
	BuyerID        string          `json:"buyer_id" gorm:"index;type:varchar(36);not null"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	PaymentStatus  PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:pending"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:decimal(10,2);not null"`
	ShippingAmount decimal.Decimal `json:"shipping_amount" gorm:"type:decimal(10,2);not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Shipping       Address         `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	Billing        Address         `json:"billing" gorm:"embedded;embeddedPrefix:billing_"`
	Notes          string          `json:"notes" gorm:"type:text"`
	TrackingNumber string          `json:"tracking_number" gorm:"type:varchar(100)"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CanBeCancelled is true only for unpaid orders that have not started
// fulfilment.
func (o *Order) CanBeCancelled() bool {
	return (o.Status == OrderPending || o.Status == OrderConfirmed) && o.PaymentStatus != PaymentPaid
}

// IsPaid reports whether settlement completed.
func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// OrderItem is one artwork sold in an order, priced at the time of sale.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36);not null"`
	ArtworkID string          `json:"artwork_id" gorm:"index;type:varchar(36);not null"`
	ArtistID  string          `json:"artist_id" gorm:"index;type:varchar(36);not null"`
	Title     string          `json:"title" gorm:"type:varchar(200)"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`

	// Computed from Price, never persisted.
	ArtistEarnings decimal.Decimal `json:"artist_earnings" gorm:"-"`
}

// Earnings returns the artist's share of this line.
func (i *OrderItem) Earnings() decimal.Decimal {
	return pricing.ArtistEarnings(i.Price)
}

// AfterFind fills the computed earnings on every load.
func (i *OrderItem) AfterFind(tx *gorm.DB) error {
	i.ArtistEarnings = i.Earnings()
	return nil
}
