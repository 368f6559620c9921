package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"artmarket/internal/models"
	"artmarket/internal/payments"
	"artmarket/internal/pricing"
	"artmarket/internal/repositories"
	"artmarket/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// placeOrder checks out a single 100.00 artwork for a fresh buyer; the total
// is 100 + 18 tax + 50 shipping.
func placeOrder(t *testing.T, store repositories.Store) (models.Identity, *models.Order) {
	t.Helper()
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	addToCart(t, store, buyer, seedArtwork(t, store, artist, "100.00"))
	order, err := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop()).
		CreateOrder(context.Background(), buyer, checkoutRequest())
	require.NoError(t, err)
	return buyer, order
}

func approved(txn string) payments.ChargeResult {
	return payments.ChargeResult{TransactionID: txn, Success: true, Response: `{"status":"success"}`}
}

func TestPaymentService_ProcessPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)

	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	service := services.NewPaymentService(store, gateway, publisher, zap.NewNop())

	gateway.On("Charge", mock.Anything, mock.MatchedBy(func(req payments.ChargeRequest) bool {
		return req.OrderNumber == order.OrderNumber && req.Amount.Equal(amount("168")) && req.Method == models.MethodCard
	})).Return(approved("TXN_1"), nil).Once()
	publisher.On("Publish", services.EventOrderPaid, mock.Anything).Return(nil).Once()

	result, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ChargeCompleted, result.Payment.Status)
	assert.Equal(t, "TXN_1", result.Payment.TransactionID)
	assert.True(t, amount("168").Equal(result.Payment.Amount))
	assert.Equal(t, models.PaymentPaid, result.Order.PaymentStatus)
	assert.Equal(t, models.OrderConfirmed, result.Order.Status)

	_, err = service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	assert.ErrorIs(t, err, services.ErrAlreadyPaid)

	gateway.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPaymentService_DeclineThenRetry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)
	service := services.NewPaymentService(store, payments.NewSimulatedGateway([]string{"paypal"}, zap.NewNop()), nil, zap.NewNop())

	declined, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "paypal"})
	require.NoError(t, err)
	assert.False(t, declined.Success)
	assert.Equal(t, models.ChargeFailed, declined.Payment.Status)
	assert.Contains(t, declined.Payment.GatewayResponse, "declined")

	unchanged, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, unchanged.PaymentStatus)
	assert.Equal(t, models.OrderPending, unchanged.Status)

	ok, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.True(t, ok.Success)

	attempts, err := service.ListPayments(ctx, buyer, order.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	statuses := []models.ChargeStatus{attempts[0].Status, attempts[1].Status}
	assert.ElementsMatch(t, []models.ChargeStatus{models.ChargeFailed, models.ChargeCompleted}, statuses)
}

func TestPaymentService_GatewayError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)
	gateway := new(MockGateway)
	service := services.NewPaymentService(store, gateway, nil, zap.NewNop())

	transport := errors.New("connection reset")
	gateway.On("Charge", mock.Anything, mock.Anything).Return(payments.ChargeResult{}, transport).Once()

	_, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	var gerr *services.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, transport)

	attempts, err := service.ListPayments(ctx, buyer, order.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.ChargeFailed, attempts[0].Status)

	current, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, current.PaymentStatus)
}

func TestPaymentService_LostSettlementRace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)
	gateway := new(MockGateway)
	service := services.NewPaymentService(store, gateway, nil, zap.NewNop())

	// Another attempt settles the order while this charge is in flight.
	gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			paid, err := store.Orders().MarkPaid(ctx, order.ID)
			require.NoError(t, err)
			require.True(t, paid)
		}).
		Return(approved("TXN_LATE"), nil).Once()

	_, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "wallet"})
	assert.ErrorIs(t, err, services.ErrAlreadyPaid)

	attempts, err := service.ListPayments(ctx, buyer, order.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.ChargeCancelled, attempts[0].Status)
	assert.Equal(t, "TXN_LATE", attempts[0].TransactionID)
}

func TestPaymentService_Preconditions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)
	stranger := seedUser(t, store, models.UserTypeBuyer, false)
	gateway := new(MockGateway)
	service := services.NewPaymentService(store, gateway, nil, zap.NewNop())

	_, err := service.ProcessPayment(ctx, stranger, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	_, err = service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "cash"})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "payment_method")

	_, err = services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop()).CancelOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	_, err = service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
	var invalid *services.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestPaymentService_ConcurrentAttemptsSettleOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	buyer, order := placeOrder(t, store)
	service := services.NewPaymentService(store, payments.NewSimulatedGateway(nil, zap.NewNop()), nil, zap.NewNop())

	var settled int32
	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			result, err := service.ProcessPayment(ctx, buyer, order.ID, services.PaymentRequest{PaymentMethod: "card"})
			switch {
			case err == nil && result.Success:
				atomic.AddInt32(&settled, 1)
				return nil
			case errors.Is(err, services.ErrAlreadyPaid):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, settled)

	attempts, err := service.ListPayments(ctx, buyer, order.ID)
	require.NoError(t, err)
	completed := 0
	for _, p := range attempts {
		if p.Status == models.ChargeCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}
