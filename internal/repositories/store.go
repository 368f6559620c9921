package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrRecordNotFound is wrapped by every lookup that finds nothing.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicate is wrapped when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// Store groups the repositories and opens transactions over them. The Store
// handed to an InTx callback is bound to that transaction, so every
// repository it returns commits or rolls back together.
type Store interface {
	Users() UserRepository
	Artworks() ArtworkRepository
	Carts() CartRepository
	Wishlists() WishlistRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Reviews() ReviewRepository

	InTx(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is the gorm implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Users() UserRepository         { return NewGORMUserRepository(s.db) }
func (s *GORMStore) Artworks() ArtworkRepository   { return NewGORMArtworkRepository(s.db) }
func (s *GORMStore) Carts() CartRepository         { return NewGORMCartRepository(s.db) }
func (s *GORMStore) Wishlists() WishlistRepository { return NewGORMWishlistRepository(s.db) }
func (s *GORMStore) Orders() OrderRepository       { return NewGORMOrderRepository(s.db) }
func (s *GORMStore) Payments() PaymentRepository   { return NewGORMPaymentRepository(s.db) }
func (s *GORMStore) Reviews() ReviewRepository     { return NewGORMReviewRepository(s.db) }

// InTx runs fn inside one database transaction. Any error returned by fn,
// or a panic, rolls back every write made through tx.
func (s *GORMStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}
