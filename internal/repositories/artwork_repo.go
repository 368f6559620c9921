package repositories

import (
	"context"

	"artmarket/internal/models"
)

// ArtworkRepository defines the interface for catalog data access.
type ArtworkRepository interface {
	// GetAll lists artworks, optionally restricted to one availability.
	GetAll(ctx context.Context, availability models.Availability) ([]models.Artwork, error)
	GetByID(ctx context.Context, id string) (*models.Artwork, error)
	Create(ctx context.Context, artwork *models.Artwork) error
	Update(ctx context.Context, artwork *models.Artwork) error
	// CompareAndSetAvailability moves an artwork from one availability to
	// another only if it is currently in from. It reports whether the row
	// was changed.
	CompareAndSetAvailability(ctx context.Context, id string, from, to models.Availability) (bool, error)
}
