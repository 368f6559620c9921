package services

import (
	"context"
	"errors"

	"artmarket/internal/models"
	"artmarket/internal/repositories"

	"go.uber.org/zap"
)

// ReviewRequest is the payload for reviewing a purchased piece.
type ReviewRequest struct {
	OrderItemID string `json:"order_item_id" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required,max=5000"`
}

// ReviewService handles buyer reviews of purchased artworks.
type ReviewService struct {
	store  repositories.Store
	logger *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store repositories.Store, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: logger,
	}
}

// CreateReview records a verified review for an item of one of the caller's
// paid orders. Each order item can be reviewed once.
func (s *ReviewService) CreateReview(ctx context.Context, identity models.Identity, req ReviewRequest) (*models.Review, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	item, err := s.store.Orders().GetItem(ctx, req.OrderItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	order, err := s.store.Orders().GetByID(ctx, item.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	if order.BuyerID != identity.UserID {
		return nil, ErrOrderItemNotFound
	}
	if !order.IsPaid() {
		return nil, ErrReviewNotAllowed
	}

	exists, err := s.store.Reviews().ExistsForOrderItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		OrderItemID: item.ID,
		ReviewerID:  identity.UserID,
		ArtistID:    item.ArtistID,
		ArtworkID:   item.ArtworkID,
		Rating:      req.Rating,
		Title:       req.Title,
		Content:     req.Content,
		IsVerified:  true,
		IsPublished: true,
	}
	if err := s.store.Reviews().Create(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrReviewExists
		}
		return nil, err
	}
	s.logger.Info("review created", zap.String("review_id", review.ID), zap.String("artwork_id", review.ArtworkID))
	return review, nil
}

// ListArtworkReviews returns the published reviews of an artwork.
func (s *ReviewService) ListArtworkReviews(ctx context.Context, artworkID string) ([]models.Review, error) {
	return s.store.Reviews().ListByArtwork(ctx, artworkID)
}
