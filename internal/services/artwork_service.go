package services

import (
	"context"
	"errors"
	"fmt"

	"artmarket/internal/models"
	"artmarket/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ArtworkRequest is the payload an artist sends to list a piece.
type ArtworkRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Medium      string `json:"medium" validate:"max=100"`
	Price       string `json:"price" validate:"required"`
}

// ArtworkService handles the catalog reads checkout depends on.
type ArtworkService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewArtworkService creates a new ArtworkService.
func NewArtworkService(store repositories.Store, logger *zap.Logger) *ArtworkService {
	return &ArtworkService{
		store:  store,
		logger: logger,
	}
}

// ListArtworks returns the catalog, optionally filtered by availability.
func (s *ArtworkService) ListArtworks(ctx context.Context, availability string) ([]models.Artwork, error) {
	a := models.Availability(availability)
	if a != "" && !a.Valid() {
		return nil, &ValidationError{Fields: map[string]string{
			"availability": "must be one of: for_sale sold not_for_sale on_hold",
		}}
	}
	return s.store.Artworks().GetAll(ctx, a)
}

// GetArtwork retrieves a single artwork by its ID.
func (s *ArtworkService) GetArtwork(ctx context.Context, id string) (*models.Artwork, error) {
	artwork, err := s.store.Artworks().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrArtworkNotFound
	}
	return artwork, err
}

// CreateArtwork lists a new piece for sale under the calling artist.
func (s *ArtworkService) CreateArtwork(ctx context.Context, identity models.Identity, req ArtworkRequest) (*models.Artwork, error) {
	if !identity.IsArtist() {
		return nil, ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() || !price.Equal(price.Round(2)) {
		return nil, &ValidationError{Fields: map[string]string{
			"price": "must be a positive amount with at most two decimal places",
		}}
	}

	artwork := &models.Artwork{
		ArtistID:     identity.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Medium:       req.Medium,
		Price:        price,
		Availability: models.AvailabilityForSale,
	}
	if err := s.store.Artworks().Create(ctx, artwork); err != nil {
		return nil, fmt.Errorf("failed to list artwork: %w", err)
	}
	s.logger.Info("artwork listed", zap.String("artwork_id", artwork.ID), zap.String("artist_id", identity.UserID))
	return artwork, nil
}
