// Package pricing holds the checkout price policy and the platform fee split.
//
// All amounts are shopspring decimals. Tax is rounded once, half-up to the
// currency minor unit (two places); subtotal and shipping are exact sums of
// two-place amounts so the total needs no further rounding.
package pricing

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of minor-unit digits kept on stored amounts.
const CurrencyPlaces = 2

var (
	defaultTaxRate               = decimal.RequireFromString("0.18")
	defaultFreeShippingThreshold = decimal.NewFromInt(500)
	defaultFlatShipping          = decimal.NewFromInt(50)

	// artistShare is the fraction of a sale price paid out to the artist.
	artistShare = decimal.RequireFromString("0.85")
)

// Policy describes how an order total is derived from its subtotal.
type Policy struct {
	TaxRate decimal.Decimal
	// Shipping is free only when the subtotal is strictly greater than this.
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
}

// DefaultPolicy is 18% flat tax, flat 50 shipping, free above 500.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               defaultTaxRate,
		FreeShippingThreshold: defaultFreeShippingThreshold,
		FlatShipping:          defaultFlatShipping,
	}
}

// Quote is the pricing snapshot frozen onto an order.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Quote prices a set of line prices.
func (p Policy) Quote(prices []decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, price := range prices {
		subtotal = subtotal.Add(price)
	}
	subtotal = RoundCurrency(subtotal)

	tax := RoundCurrency(subtotal.Mul(p.TaxRate))

	shipping := p.FlatShipping
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// RoundCurrency rounds half away from zero to the minor unit, which is
// half-up for the non-negative amounts handled here.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// ArtistEarnings is the artist's share of a sale price. It is not rounded.
func ArtistEarnings(price decimal.Decimal) decimal.Decimal {
	return price.Mul(artistShare)
}

// PlatformFee is what the platform keeps from a sale price.
func PlatformFee(price decimal.Decimal) decimal.Decimal {
	return price.Sub(ArtistEarnings(price))
}
