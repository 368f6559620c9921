package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the buyer pays.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodWallet       PaymentMethod = "wallet"
)

// ChargeStatus is the state of one payment attempt.
type ChargeStatus string

const (
	ChargePending    ChargeStatus = "pending"
	ChargeProcessing ChargeStatus = "processing"
	ChargeCompleted  ChargeStatus = "completed"
	ChargeFailed     ChargeStatus = "failed"
	ChargeCancelled  ChargeStatus = "cancelled"
	ChargeRefunded   ChargeStatus = "refunded"
)

// Payment records one settlement attempt. An order may have many; at most
// one ever reaches ChargeCompleted.
type Payment struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string          `json:"order_id" gorm:"index;type:varchar(36);not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method          PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	Status          ChargeStatus    `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	TransactionID   string          `json:"transaction_id" gorm:"type:varchar(100)"`
	GatewayResponse string          `json:"gateway_response,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
