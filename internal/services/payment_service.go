package services

import (
	"context"
	"encoding/json"
	"fmt"

	"artmarket/internal/models"
	"artmarket/internal/payments"
	"artmarket/internal/repositories"

	"go.uber.org/zap"
)

// PaymentRequest is the settlement payload.
type PaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card paypal bank_transfer upi wallet"`
}

// PaymentResult is the outcome of one settlement attempt. A declined charge
// is a result with Success=false, not an error.
type PaymentResult struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order,omitempty"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

// PaymentService settles orders against the payment gateway.
type PaymentService struct {
	store     repositories.Store
	gateway   payments.Gateway
	publisher EventPublisher
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService. publisher may be nil.
func NewPaymentService(store repositories.Store, gateway payments.Gateway, publisher EventPublisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessPayment charges the order total. The attempt is recorded before the
// gateway is called and the gateway is never called inside a transaction.
// The order is marked paid by a guarded update, so of several concurrent
// approved attempts only one settles the order.
func (s *PaymentService) ProcessPayment(ctx context.Context, identity models.Identity, orderID string, req PaymentRequest) (*PaymentResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	order, err := loadOrder(ctx, s.store, identity, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, ErrAlreadyPaid
	}
	if order.Status != models.OrderPending && order.Status != models.OrderConfirmed {
		return nil, &InvalidTransitionError{From: order.Status, To: models.OrderConfirmed}
	}

	payment := &models.Payment{
		OrderID: order.ID,
		Amount:  order.TotalAmount,
		Method:  models.PaymentMethod(req.PaymentMethod),
		Status:  models.ChargeProcessing,
	}
	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("order_id", order.ID), zap.String("payment_id", payment.ID))

	charge, err := s.gateway.Charge(ctx, payments.ChargeRequest{
		PaymentID:   payment.ID,
		OrderNumber: order.OrderNumber,
		Amount:      payment.Amount,
		Method:      payment.Method,
	})
	if err != nil {
		log.Error("payment gateway call failed", zap.Error(err))
		payment.Status = models.ChargeFailed
		payment.GatewayResponse = errorResponse(err)
		// The gateway failure is what the caller needs to see.
		if uerr := s.store.Payments().Update(ctx, payment); uerr != nil {
			log.Error("failed to record failed payment", zap.Error(uerr))
		}
		return nil, &GatewayError{Err: err}
	}

	payment.GatewayResponse = charge.Response
	if !charge.Success {
		payment.Status = models.ChargeFailed
		if err := s.store.Payments().Update(ctx, payment); err != nil {
			return nil, err
		}
		log.Info("payment declined", zap.String("method", string(payment.Method)))
		return &PaymentResult{Payment: payment, Success: false, Message: "Payment was declined"}, nil
	}

	payment.TransactionID = charge.TransactionID
	settled := false
	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		settled, err = tx.Orders().MarkPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if settled {
			payment.Status = models.ChargeCompleted
		} else {
			payment.Status = models.ChargeCancelled
		}
		return tx.Payments().Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	current, err := s.store.Orders().GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", order.ID, err)
	}
	if !settled {
		log.Warn("charge approved for an order that can no longer be settled, refund required",
			zap.String("transaction_id", charge.TransactionID),
			zap.String("order_status", string(current.Status)),
			zap.String("payment_status", string(current.PaymentStatus)))
		if current.IsPaid() {
			return nil, ErrAlreadyPaid
		}
		return nil, &InvalidTransitionError{From: current.Status, To: models.OrderConfirmed}
	}

	log.Info("payment completed", zap.String("transaction_id", payment.TransactionID))
	publishOrderEvent(s.publisher, s.logger, EventOrderPaid, current)
	return &PaymentResult{
		Payment: payment,
		Order:   current,
		Success: true,
		Message: "Payment processed successfully",
	}, nil
}

// ListPayments returns every settlement attempt for an order the caller owns.
func (s *PaymentService) ListPayments(ctx context.Context, identity models.Identity, orderID string) ([]models.Payment, error) {
	order, err := loadOrder(ctx, s.store, identity, orderID)
	if err != nil {
		return nil, err
	}
	return s.store.Payments().ListByOrder(ctx, order.ID)
}

func errorResponse(err error) string {
	body, mErr := json.Marshal(map[string]string{"status": "error", "error": err.Error()})
	if mErr != nil {
		return ""
	}
	return string(body)
}
