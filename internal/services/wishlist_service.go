package services

import (
	"context"
	"errors"

	"artmarket/internal/models"
	"artmarket/internal/repositories"

	"go.uber.org/zap"
)

// WishlistService handles business logic related to wishlists.
type WishlistService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(store repositories.Store, logger *zap.Logger) *WishlistService {
	return &WishlistService{
		store:  store,
		logger: logger,
	}
}

func (s *WishlistService) GetWishlist(ctx context.Context, identity models.Identity) (*models.Wishlist, error) {
	wishlist, err := s.store.Wishlists().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Wishlists().ListItems(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}
	wishlist.Items = items
	wishlist.TotalItems = len(items)
	return wishlist, nil
}

// ToggleWishlist adds the artwork if absent and removes it if present. It
// reports whether the artwork is in the wishlist afterwards. Any artwork can
// be saved, sold or not.
func (s *WishlistService) ToggleWishlist(ctx context.Context, identity models.Identity, req ItemRequest) (bool, error) {
	if err := validateStruct(req); err != nil {
		return false, err
	}
	if _, err := s.store.Artworks().GetByID(ctx, req.ArtworkID); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return false, ErrArtworkNotFound
		}
		return false, err
	}
	wishlist, err := s.store.Wishlists().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return false, err
	}

	var inWishlist bool
	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		removed, err := tx.Wishlists().RemoveItem(ctx, wishlist.ID, req.ArtworkID)
		if err != nil || removed {
			return err
		}
		inWishlist, err = tx.Wishlists().AddItem(ctx, wishlist.ID, req.ArtworkID)
		return err
	})
	if err != nil {
		return false, err
	}
	return inWishlist, nil
}

func (s *WishlistService) RemoveFromWishlist(ctx context.Context, identity models.Identity, artworkID string) error {
	wishlist, err := s.store.Wishlists().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return err
	}
	removed, err := s.store.Wishlists().RemoveItem(ctx, wishlist.ID, artworkID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrWishlistItemNotFound
	}
	return nil
}
