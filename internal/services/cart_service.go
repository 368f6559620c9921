package services

import (
	"context"
	"errors"
	"fmt"

	"artmarket/internal/models"
	"artmarket/internal/repositories"

	"go.uber.org/zap"
)

// ItemRequest names the artwork a cart or wishlist call is about.
type ItemRequest struct {
	ArtworkID string `json:"artwork_id" validate:"required"`
}

// CartService handles business logic related to carts.
type CartService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.Store, logger *zap.Logger) *CartService {
	return &CartService{
		store:  store,
		logger: logger,
	}
}

// GetCart returns the caller's cart with live prices and totals.
func (s *CartService) GetCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	cart, err := s.store.Carts().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Carts().ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.Summarize()
	return cart, nil
}

// AddToCart adds a purchasable artwork. It reports false when the artwork was
// already in the cart.
func (s *CartService) AddToCart(ctx context.Context, identity models.Identity, req ItemRequest) (bool, error) {
	if err := validateStruct(req); err != nil {
		return false, err
	}
	artwork, err := s.store.Artworks().GetByID(ctx, req.ArtworkID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return false, ErrArtworkNotFound
		}
		return false, err
	}
	if !artwork.IsPurchasable() {
		return false, ErrArtworkNotFound
	}

	cart, err := s.store.Carts().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return false, err
	}
	added, err := s.store.Carts().AddItem(ctx, cart.ID, artwork.ID)
	if err != nil {
		return false, fmt.Errorf("failed to add to cart: %w", err)
	}
	s.logger.Debug("cart add",
		zap.String("user_id", identity.UserID),
		zap.String("artwork_id", artwork.ID),
		zap.Bool("added", added))
	return added, nil
}

// RemoveFromCart removes an artwork from the caller's cart.
func (s *CartService) RemoveFromCart(ctx context.Context, identity models.Identity, artworkID string) error {
	cart, err := s.store.Carts().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return err
	}
	removed, err := s.store.Carts().RemoveItem(ctx, cart.ID, artworkID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrCartItemNotFound
	}
	return nil
}
