package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"artmarket/internal/models"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrAlreadyPaid          = errors.New("order is already paid")
	ErrOrderNotFound        = errors.New("order not found")
	ErrArtworkNotFound      = errors.New("artwork not found or not available")
	ErrCartItemNotFound     = errors.New("artwork is not in the cart")
	ErrWishlistItemNotFound = errors.New("artwork is not in the wishlist")
	ErrOrderItemNotFound    = errors.New("order item not found")
	ErrReviewExists         = errors.New("order item has already been reviewed")
	ErrReviewNotAllowed     = errors.New("only paid purchases can be reviewed")
	ErrForbidden            = errors.New("operation not permitted")
	ErrPaidOrderCancel      = errors.New("paid orders cannot be cancelled, refund them instead")
)

// ArtworkUnavailableError is returned when checkout loses an artwork to
// another buyer or finds it withdrawn.
type ArtworkUnavailableError struct {
	ArtworkID string
}

func (e *ArtworkUnavailableError) Error() string {
	return fmt.Sprintf("artwork %s is no longer available", e.ArtworkID)
}

// InvalidTransitionError is returned when an order cannot move from its
// current status to the requested one.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// ValidationError lists invalid request fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GatewayError wraps a payment gateway transport failure.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
