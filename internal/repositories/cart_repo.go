package repositories

import (
	"context"

	"artmarket/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	// ListItems returns the cart items with their live artwork loaded.
	ListItems(ctx context.Context, cartID string) ([]models.CartItem, error)
	// AddItem inserts the artwork and reports false if it was already there.
	AddItem(ctx context.Context, cartID, artworkID string) (bool, error)
	// RemoveItem deletes the artwork and reports false if it was not there.
	RemoveItem(ctx context.Context, cartID, artworkID string) (bool, error)
	// RemoveArtworks deletes the given artworks from every cart.
	RemoveArtworks(ctx context.Context, artworkIDs []string) (int64, error)
}

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Wishlist, error)
	ListItems(ctx context.Context, wishlistID string) ([]models.WishlistItem, error)
	AddItem(ctx context.Context, wishlistID, artworkID string) (bool, error)
	RemoveItem(ctx context.Context, wishlistID, artworkID string) (bool, error)
}
