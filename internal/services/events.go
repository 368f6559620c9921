package services

import (
	"encoding/json"
	"fmt"
	"time"

	"artmarket/internal/models"

	"go.uber.org/zap"
)

// Routing keys of the order domain events.
const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher sends a domain event to the message broker.
// *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderEvent is the JSON body of every order event.
type OrderEvent struct {
	Event         string               `json:"event"`
	OrderID       string               `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	BuyerID       string               `json:"buyer_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   string               `json:"total_amount"`
	ArtworkIDs    []string             `json:"artwork_ids,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderEvent(event string, order *models.Order) OrderEvent {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ArtworkID)
	}
	return OrderEvent{
		Event:         event,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		BuyerID:       order.BuyerID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		ArtworkIDs:    ids,
		OccurredAt:    time.Now().UTC(),
	}
}

// publishOrderEvent is best effort: the state change it reports has already
// committed, so failures are logged and never returned.
func publishOrderEvent(publisher EventPublisher, logger *zap.Logger, event string, order *models.Order) {
	if publisher == nil {
		logger.Debug("event publisher not configured, skipping event", zap.String("event", event))
		return
	}
	body, err := json.Marshal(newOrderEvent(event, order))
	if err != nil {
		logger.Error("failed to marshal order event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := publisher.Publish(event, body); err != nil {
		logger.Warn("failed to publish order event",
			zap.String("event", event),
			zap.String("order_id", order.ID),
			zap.Error(err))
		return
	}
	logger.Info("published order event", zap.String("event", event), zap.String("order_id", order.ID))
}

// OrderEventLogger returns a consumer handler that decodes each order event
// and logs it. Undecodable bodies are rejected.
func OrderEventLogger(logger *zap.Logger) func(routingKey string, body []byte) error {
	return func(routingKey string, body []byte) error {
		var event OrderEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to decode %s event: %w", routingKey, err)
		}
		logger.Info("order event received",
			zap.String("routing_key", routingKey),
			zap.String("order_id", event.OrderID),
			zap.String("order_number", event.OrderNumber),
			zap.String("status", string(event.Status)),
			zap.String("payment_status", string(event.PaymentStatus)))
		return nil
	}
}
