package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"artmarket/internal/models"
	"artmarket/internal/pricing"
	"artmarket/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	publisher := new(MockPublisher)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), publisher, zap.NewNop())

	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	other := seedUser(t, store, models.UserTypeBuyer, false)
	a := seedArtwork(t, store, artist, "400.00")
	b := seedArtwork(t, store, artist, "200.00")
	addToCart(t, store, buyer, a, b)
	addToCart(t, store, other, a)

	var event services.OrderEvent
	publisher.On("Publish", services.EventOrderCreated, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &event))
		}).
		Return(nil).Once()

	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	assert.Len(t, order.OrderNumber, 10)
	assert.Regexp(t, "^[A-Z0-9]{10}$", order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.True(t, amount("600").Equal(order.Subtotal))
	assert.True(t, amount("108").Equal(order.TaxAmount))
	assert.True(t, amount("0").Equal(order.ShippingAmount))
	assert.True(t, amount("708").Equal(order.TotalAmount))
	assert.Equal(t, "London", order.Billing.City, "billing defaults to shipping")
	require.Len(t, order.Items, 2)
	assert.True(t, amount("510").Equal(order.Items[0].ArtistEarnings.Add(order.Items[1].ArtistEarnings)))

	assert.Equal(t, models.AvailabilitySold, availabilityOf(t, store, a.ID))
	assert.Equal(t, models.AvailabilitySold, availabilityOf(t, store, b.ID))

	cart, err := services.NewCartService(store, zap.NewNop()).GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	otherCart, err := services.NewCartService(store, zap.NewNop()).GetCart(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, otherCart.Items, "sold artwork leaves every cart")

	publisher.AssertExpectations(t)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, "708.00", event.TotalAmount)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, event.ArtworkIDs)

	stored, err := service.GetOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.True(t, amount("708").Equal(stored.TotalAmount))
}

func TestOrderService_CreateOrderEmptyCart(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	buyer := seedUser(t, store, models.UserTypeBuyer, false)

	_, err := service.CreateOrder(context.Background(), buyer, checkoutRequest())
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	buyer := seedUser(t, store, models.UserTypeBuyer, false)

	req := checkoutRequest()
	req.Shipping.City = ""
	req.Shipping.Email = "not-an-email"

	_, err := service.CreateOrder(context.Background(), buyer, req)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shipping.city")
	assert.Contains(t, verr.Fields, "shipping.email")
}

func TestOrderService_CreateOrderUnavailableRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	a := seedArtwork(t, store, artist, "100.00")
	b := seedArtwork(t, store, artist, "150.00")
	addToCart(t, store, buyer, a, b)

	_, err := store.Artworks().CompareAndSetAvailability(ctx, b.ID, models.AvailabilityForSale, models.AvailabilityOnHold)
	require.NoError(t, err)

	_, err = service.CreateOrder(ctx, buyer, checkoutRequest())
	var unavailable *services.ArtworkUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, b.ID, unavailable.ArtworkID)

	assert.Equal(t, models.AvailabilityForSale, availabilityOf(t, store, a.ID), "claim on the first artwork is rolled back")
	orders, err := service.ListOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
	cart, err := services.NewCartService(store, zap.NewNop()).GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestOrderService_ConcurrentCheckoutSellsOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	artwork := seedArtwork(t, store, artist, "900.00")

	const buyers = 8
	identities := make([]models.Identity, buyers)
	for i := range identities {
		identities[i] = seedUser(t, store, models.UserTypeBuyer, false)
		addToCart(t, store, identities[i], artwork)
	}

	var succeeded int32
	var g errgroup.Group
	for _, buyer := range identities {
		buyer := buyer
		g.Go(func() error {
			_, err := service.CreateOrder(ctx, buyer, checkoutRequest())
			var unavailable *services.ArtworkUnavailableError
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
				return nil
			case errors.Is(err, services.ErrEmptyCart), errors.As(err, &unavailable):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, succeeded)
	assert.Equal(t, models.AvailabilitySold, availabilityOf(t, store, artwork.ID))
}

func TestOrderService_CancelOrderReleasesArtworks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), publisher, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	stranger := seedUser(t, store, models.UserTypeBuyer, false)
	artwork := seedArtwork(t, store, artist, "80.00")
	addToCart(t, store, buyer, artwork)

	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	_, err = service.CancelOrder(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	cancelled, err := service.CancelOrder(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.AvailabilityForSale, availabilityOf(t, store, artwork.ID))

	_, err = service.CancelOrder(ctx, buyer, order.ID)
	var invalid *services.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.OrderCancelled, invalid.From)

	publisher.AssertCalled(t, "Publish", services.EventOrderCancelled, mock.Anything)
}

func TestOrderService_CancelPaidOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	addToCart(t, store, buyer, seedArtwork(t, store, artist, "80.00"))
	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	_, err = store.Orders().MarkPaid(ctx, order.ID)
	require.NoError(t, err)

	_, err = service.CancelOrder(ctx, buyer, order.ID)
	var invalid *services.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	staff := seedUser(t, store, models.UserTypeBuyer, true)
	addToCart(t, store, buyer, seedArtwork(t, store, artist, "80.00"))
	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	_, err = service.UpdateOrderStatus(ctx, buyer, order.ID, services.StatusUpdateRequest{Status: "shipped"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "lost"})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	shipped, err := service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "shipped", TrackingNumber: "ZX-1"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, shipped.Status)
	assert.Equal(t, "ZX-1", shipped.TrackingNumber)

	_, err = service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "pending"})
	var invalid *services.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.OrderShipped, invalid.From)
	assert.Equal(t, models.OrderPending, invalid.To)

	refunded, err := service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, refunded.Status)
	assert.Equal(t, models.PaymentRefunded, refunded.PaymentStatus)
}

func TestOrderService_ListArtistSales(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	addToCart(t, store, buyer, seedArtwork(t, store, artist, "100.00"), seedArtwork(t, store, artist, "23.45"))
	_, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	_, err = service.ListArtistSales(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrForbidden)

	sales, err := service.ListArtistSales(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, 2, sales.TotalSales)
	assert.True(t, amount("123.45").Equal(sales.TotalRevenue))
	assert.True(t, amount("104.9325").Equal(sales.TotalEarnings))
}

func TestOrderService_CreateOrderUsesLivePrice(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	artwork := seedArtwork(t, store, artist, "100.00")
	addToCart(t, store, buyer, artwork)

	artwork.Price = amount("600.00")
	require.NoError(t, store.Artworks().Update(ctx, artwork))

	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)
	assert.True(t, amount("600").Equal(order.Subtotal), order.Subtotal.String())
	assert.True(t, amount("108").Equal(order.TaxAmount), order.TaxAmount.String())
	assert.True(t, order.ShippingAmount.IsZero(), order.ShippingAmount.String())
	assert.True(t, amount("708").Equal(order.TotalAmount), order.TotalAmount.String())
	require.Len(t, order.Items, 1)
	assert.True(t, amount("600").Equal(order.Items[0].Price), order.Items[0].Price.String())
}

func TestOrderService_CreateOrderClaimsInArtworkIDOrder(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t)
	artist := seedUser(t, base, models.UserTypeArtist, false)
	buyer := seedUser(t, base, models.UserTypeBuyer, false)
	artworks := []*models.Artwork{
		seedArtwork(t, base, artist, "10.00"),
		seedArtwork(t, base, artist, "20.00"),
		seedArtwork(t, base, artist, "30.00"),
	}
	sort.Slice(artworks, func(i, j int) bool { return artworks[i].ID > artworks[j].ID })
	addToCart(t, base, buyer, artworks...)

	store := newClaimRecorder(base)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	_, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	claims := store.Claims()
	require.Len(t, claims, 3)
	assert.True(t, sort.StringsAreSorted(claims), "claims out of order: %v", claims)
}

func TestOrderService_StaffCannotCancelPaidOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	staff := seedUser(t, store, models.UserTypeBuyer, true)
	artwork := seedArtwork(t, store, artist, "80.00")
	addToCart(t, store, buyer, artwork)
	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)
	paid, err := store.Orders().MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, paid)

	_, err = service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, services.ErrPaidOrderCancel)

	_, err = service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "processing"})
	require.NoError(t, err)
	_, err = service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, services.ErrPaidOrderCancel)

	current, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, current.Status)
	assert.Equal(t, models.PaymentPaid, current.PaymentStatus)
	assert.Equal(t, models.AvailabilitySold, availabilityOf(t, store, artwork.ID))

	refunded, err := service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, refunded.Status)
	assert.Equal(t, models.PaymentRefunded, refunded.PaymentStatus)
	assert.Equal(t, models.AvailabilitySold, availabilityOf(t, store, artwork.ID))
}

func TestOrderService_StaffCancelsUnpaidOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := services.NewOrderService(store, pricing.DefaultPolicy(), nil, zap.NewNop())
	artist := seedUser(t, store, models.UserTypeArtist, false)
	buyer := seedUser(t, store, models.UserTypeBuyer, false)
	staff := seedUser(t, store, models.UserTypeBuyer, true)
	artwork := seedArtwork(t, store, artist, "80.00")
	addToCart(t, store, buyer, artwork)
	order, err := service.CreateOrder(ctx, buyer, checkoutRequest())
	require.NoError(t, err)

	cancelled, err := service.UpdateOrderStatus(ctx, staff, order.ID, services.StatusUpdateRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.AvailabilityForSale, availabilityOf(t, store, artwork.ID))
}
