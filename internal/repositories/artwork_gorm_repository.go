package repositories

import (
	"context"
	"errors"
	"fmt"

	"artmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMArtworkRepository is a GORM implementation of ArtworkRepository.
type GORMArtworkRepository struct {
	db *gorm.DB
}

// NewGORMArtworkRepository creates a new instance of GORMArtworkRepository.
func NewGORMArtworkRepository(db *gorm.DB) *GORMArtworkRepository {
	return &GORMArtworkRepository{
		db: db,
	}
}

// GetAll retrieves artworks, newest first.
func (r *GORMArtworkRepository) GetAll(ctx context.Context, availability models.Availability) ([]models.Artwork, error) {
	var artworks []models.Artwork
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if availability != "" {
		query = query.Where("availability = ?", availability)
	}
	if err := query.Find(&artworks).Error; err != nil {
		return nil, fmt.Errorf("failed to get artworks: %w", err)
	}
	return artworks, nil
}

// GetByID retrieves a single artwork by its ID from the database.
func (r *GORMArtworkRepository) GetByID(ctx context.Context, id string) (*models.Artwork, error) {
	var artwork models.Artwork
	if err := r.db.WithContext(ctx).First(&artwork, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artwork with ID %s not found: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get artwork by ID %s: %w", id, err)
	}
	return &artwork, nil
}

// Create creates a new artwork in the database.
func (r *GORMArtworkRepository) Create(ctx context.Context, artwork *models.Artwork) error {
	if artwork.ID == "" {
		artwork.ID = uuid.New().String()
	}
	if artwork.Availability == "" {
		artwork.Availability = models.AvailabilityForSale
	}
	if err := r.db.WithContext(ctx).Create(artwork).Error; err != nil {
		return fmt.Errorf("failed to create artwork: %w", err)
	}
	return nil
}

// Update updates an existing artwork in the database.
func (r *GORMArtworkRepository) Update(ctx context.Context, artwork *models.Artwork) error {
	res := r.db.WithContext(ctx).Model(&models.Artwork{}).Where("id = ?", artwork.ID).Updates(map[string]any{
		"title":        artwork.Title,
		"description":  artwork.Description,
		"medium":       artwork.Medium,
		"price":        artwork.Price,
		"availability": artwork.Availability,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update artwork: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("artwork with ID %s not found for update: %w", artwork.ID, ErrRecordNotFound)
	}
	return nil
}

// CompareAndSetAvailability issues a single conditional UPDATE. Under
// concurrent callers the database row lock lets exactly one of them observe
// the expected prior state.
func (r *GORMArtworkRepository) CompareAndSetAvailability(ctx context.Context, id string, from, to models.Availability) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("id = ? AND availability = ?", id, from).
		Update("availability", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set availability of artwork %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
