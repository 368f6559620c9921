package services_test

import (
	"context"
	"sync"
	"testing"

	"artmarket/internal/config"
	"artmarket/internal/database"
	"artmarket/internal/models"
	"artmarket/internal/payments"
	"artmarket/internal/repositories"
	"artmarket/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

// MockGateway is a mock implementation of payments.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payments.ChargeResult), args.Error(1)
}

var _ services.EventPublisher = (*MockPublisher)(nil)
var _ payments.Gateway = (*MockGateway)(nil)

func newTestStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.New().String() + "?mode=memory&cache=shared",
	}, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMStore(db)
}

func seedUser(t *testing.T, store repositories.Store, userType models.UserType, staff bool) models.Identity {
	t.Helper()
	name := string(userType) + "-" + uuid.New().String()[:8]
	user := &models.User{
		Username: name,
		Email:    name + "@example.com",
		UserType: userType,
		IsStaff:  staff,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return models.IdentityOf(user)
}

func seedArtwork(t *testing.T, store repositories.Store, artist models.Identity, price string) *models.Artwork {
	t.Helper()
	artwork := &models.Artwork{
		ArtistID: artist.UserID,
		Title:    "Study in " + price,
		Price:    decimal.RequireFromString(price),
	}
	require.NoError(t, store.Artworks().Create(context.Background(), artwork))
	return artwork
}

func addToCart(t *testing.T, store repositories.Store, buyer models.Identity, artworks ...*models.Artwork) {
	t.Helper()
	ctx := context.Background()
	cart, err := store.Carts().GetOrCreate(ctx, buyer.UserID)
	require.NoError(t, err)
	for _, a := range artworks {
		_, err := store.Carts().AddItem(ctx, cart.ID, a.ID)
		require.NoError(t, err)
	}
}

func availabilityOf(t *testing.T, store repositories.Store, id string) models.Availability {
	t.Helper()
	a, err := store.Artworks().GetByID(context.Background(), id)
	require.NoError(t, err)
	return a.Availability
}

func checkoutRequest() services.CreateOrderRequest {
	return services.CreateOrderRequest{
		Shipping: services.AddressRequest{
			FirstName:    "Ada",
			LastName:     "Byron",
			Email:        "ada@example.com",
			Phone:        "5551234",
			AddressLine1: "1 Gallery Row",
			City:         "London",
			State:        "London",
			PostalCode:   "N1 7AA",
			Country:      "UK",
		},
	}
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// claimRecorder wraps a Store and records the artwork IDs passed to
// CompareAndSetAvailability, in call order.
type claimRecorder struct {
	repositories.Store
	mu     *sync.Mutex
	claims *[]string
}

func newClaimRecorder(store repositories.Store) *claimRecorder {
	return &claimRecorder{Store: store, mu: &sync.Mutex{}, claims: &[]string{}}
}

func (r *claimRecorder) Artworks() repositories.ArtworkRepository {
	return recordingArtworks{ArtworkRepository: r.Store.Artworks(), recorder: r}
}

func (r *claimRecorder) InTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	return r.Store.InTx(ctx, func(tx repositories.Store) error {
		return fn(&claimRecorder{Store: tx, mu: r.mu, claims: r.claims})
	})
}

func (r *claimRecorder) Claims() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), *r.claims...)
}

type recordingArtworks struct {
	repositories.ArtworkRepository
	recorder *claimRecorder
}

func (a recordingArtworks) CompareAndSetAvailability(ctx context.Context, id string, from, to models.Availability) (bool, error) {
	a.recorder.mu.Lock()
	*a.recorder.claims = append(*a.recorder.claims, id)
	a.recorder.mu.Unlock()
	return a.ArtworkRepository.CompareAndSetAvailability(ctx, id, from, to)
}
