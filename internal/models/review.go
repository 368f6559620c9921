package models

import "time"

// Review is buyer feedback on one purchased piece.
type Review struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderItemID string    `json:"order_item_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	ReviewerID  string    `json:"reviewer_id" gorm:"index;type:varchar(36);not null"`
	ArtistID    string    `json:"artist_id" gorm:"index;type:varchar(36);not null"`
	ArtworkID   string    `json:"artwork_id" gorm:"index;type:varchar(36);not null"`
	Rating      int       `json:"rating" gorm:"not null"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	IsVerified  bool      `json:"is_verified" gorm:"not null"`
	IsPublished bool      `json:"is_published" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
