// Package payments defines the payment gateway capability used by settlement.
package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"artmarket/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChargeRequest is one charge sent to the gateway.
type ChargeRequest struct {
	PaymentID   string
	OrderNumber string
	Amount      decimal.Decimal
	Method      models.PaymentMethod
}

// ChargeResult is the gateway's verdict. Success=false is a decline, not an
// error; transport failures are returned as errors instead.
type ChargeResult struct {
	TransactionID string
	Success       bool
	Response      string
}

// Gateway charges a buyer.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway approves every charge except those paid with a method in
// its decline list.
type SimulatedGateway struct {
	declined map[models.PaymentMethod]bool
	logger   *zap.Logger
}

// NewSimulatedGateway creates a new SimulatedGateway.
func NewSimulatedGateway(declineMethods []string, logger *zap.Logger) *SimulatedGateway {
	declined := make(map[models.PaymentMethod]bool, len(declineMethods))
	for _, m := range declineMethods {
		declined[models.PaymentMethod(m)] = true
	}
	return &SimulatedGateway{declined: declined, logger: logger}
}

type gatewayResponse struct {
	Status      string `json:"status"`
	Gateway     string `json:"gateway"`
	OrderNumber string `json:"order_number"`
	Amount      string `json:"amount"`
	Reason      string `json:"reason,omitempty"`
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, fmt.Errorf("charge %s aborted: %w", req.PaymentID, err)
	}

	resp := gatewayResponse{
		Status:      "success",
		Gateway:     "simulated",
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount.StringFixed(2),
	}
	result := ChargeResult{Success: true, TransactionID: "TXN_" + req.PaymentID}
	if g.declined[req.Method] {
		resp.Status = "declined"
		resp.Reason = fmt.Sprintf("method %s declined", req.Method)
		result = ChargeResult{Success: false}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("failed to encode gateway response: %w", err)
	}
	result.Response = string(body)

	g.logger.Debug("simulated charge",
		zap.String("payment_id", req.PaymentID),
		zap.String("method", string(req.Method)),
		zap.Bool("success", result.Success))
	return result, nil
}
