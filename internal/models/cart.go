package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a user's set of artworks intended for purchase. There is exactly
// one per user and it outlives checkout.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	TotalItems  int             `json:"total_items" gorm:"-"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"-"`
}

// CartItem is one artwork in a cart. An artwork appears at most once.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string    `json:"cart_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_artwork"`
	ArtworkID string    `json:"artwork_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_artwork;index"`
	Artwork   *Artwork  `json:"artwork,omitempty" gorm:"foreignKey:ArtworkID"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
}

// Summarize fills TotalItems and TotalAmount from the live artwork prices of
// the loaded items.
func (c *Cart) Summarize() {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Artwork != nil {
			total = total.Add(item.Artwork.Price)
		}
	}
	c.TotalItems = len(c.Items)
	c.TotalAmount = total
}

// Wishlist is a user's saved artworks. It carries no pricing.
type Wishlist struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `json:"user_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	Items     []WishlistItem `json:"items" gorm:"foreignKey:WishlistID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	TotalItems int `json:"total_items" gorm:"-"`
}

type WishlistItem struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	WishlistID string    `json:"wishlist_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_artwork"`
	ArtworkID  string    `json:"artwork_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_artwork"`
	Artwork    *Artwork  `json:"artwork,omitempty" gorm:"foreignKey:ArtworkID"`
	AddedAt    time.Time `json:"added_at" gorm:"autoCreateTime"`
}
