package repositories

import (
	"context"
	"errors"
	"fmt"

	"artmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetOrCreate returns the user's cart. A concurrent creator losing the race
// on the unique user_id index re-reads the winner's row.
func (r *GORMCartRepository) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where(models.Cart{UserID: userID}).
		Attrs(models.Cart{ID: uuid.New().String()}).
		FirstOrCreate(&cart).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// ListItems returns items oldest first with the current artwork row.
func (r *GORMCartRepository) ListItems(ctx context.Context, cartID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Artwork").
		Where("cart_id = ?", cartID).
		Order("added_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items of cart %s: %w", cartID, err)
	}
	return items, nil
}

func (r *GORMCartRepository) AddItem(ctx context.Context, cartID, artworkID string) (bool, error) {
	item := models.CartItem{ID: uuid.New().String(), CartID: cartID, ArtworkID: artworkID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add artwork %s to cart %s: %w", artworkID, cartID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMCartRepository) RemoveItem(ctx context.Context, cartID, artworkID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND artwork_id = ?", cartID, artworkID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove artwork %s from cart %s: %w", artworkID, cartID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GORMCartRepository) RemoveArtworks(ctx context.Context, artworkIDs []string) (int64, error) {
	if len(artworkIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("artwork_id IN ?", artworkIDs).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove sold artworks from carts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GORMWishlistRepository is a GORM implementation of WishlistRepository.
type GORMWishlistRepository struct {
	db *gorm.DB
}

// NewGORMWishlistRepository creates a new instance of GORMWishlistRepository.
func NewGORMWishlistRepository(db *gorm.DB) *GORMWishlistRepository {
	return &GORMWishlistRepository{db: db}
}

func (r *GORMWishlistRepository) GetOrCreate(ctx context.Context, userID string) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).
		Where(models.Wishlist{UserID: userID}).
		Attrs(models.Wishlist{ID: uuid.New().String()}).
		FirstOrCreate(&wishlist).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = r.db.WithContext(ctx).First(&wishlist, "user_id = ?", userID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist for user %s: %w", userID, err)
	}
	return &wishlist, nil
}

func (r *GORMWishlistRepository) ListItems(ctx context.Context, wishlistID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.db.WithContext(ctx).
		Preload("Artwork").
		Where("wishlist_id = ?", wishlistID).
		Order("added_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items of wishlist %s: %w", wishlistID, err)
	}
	return items, nil
}

func (r *GORMWishlistRepository) AddItem(ctx context.Context, wishlistID, artworkID string) (bool, error) {
	item := models.WishlistItem{ID: uuid.New().String(), WishlistID: wishlistID, ArtworkID: artworkID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add artwork %s to wishlist %s: %w", artworkID, wishlistID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMWishlistRepository) RemoveItem(ctx context.Context, wishlistID, artworkID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND artwork_id = ?", wishlistID, artworkID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove artwork %s from wishlist %s: %w", artworkID, wishlistID, res.Error)
	}
	return res.RowsAffected > 0, nil
}
