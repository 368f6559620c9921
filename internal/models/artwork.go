package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability governs whether an artwork can be bought.
type Availability string

const (
	AvailabilityForSale    Availability = "for_sale"
	AvailabilitySold       Availability = "sold"
	AvailabilityNotForSale Availability = "not_for_sale"
	AvailabilityOnHold     Availability = "on_hold"
)

// Valid reports whether a is one of the known states.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityForSale, AvailabilitySold, AvailabilityNotForSale, AvailabilityOnHold:
		return true
	}
	return false
}

// Artwork is a unique physical piece listed by an artist.
type Artwork struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ArtistID     string          `json:"artist_id" gorm:"index;type:varchar(36);not null"`
	Title        string          `json:"title" gorm:"type:varchar(200);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Medium       string          `json:"medium" gorm:"type:varchar(100)"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Availability Availability    `json:"availability" gorm:"type:varchar(20);not null;default:for_sale;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsPurchasable reports whether the piece can be added to a cart.
func (a *Artwork) IsPurchasable() bool {
	return a.Availability == AvailabilityForSale
}
