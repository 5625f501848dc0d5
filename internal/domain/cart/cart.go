package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Cart is the single durable cart owned by a user identity. There is at most
// one per user, keyed on the verified identity rather than any session token.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line binds a cart to one catalog entry. Quantity is strictly positive for
// as long as the line exists; reducing it to zero deletes the row. The unit
// price is fixed when the line is first created and never regenerated.
type Line struct {
	ID             string
	CartID         string
	EntryID        string
	EntryName      string
	Quantity       int
	UnitPriceCents int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubtotalCents is the line total in euro cents.
func (l Line) SubtotalCents() int64 {
	return int64(l.Quantity) * l.UnitPriceCents
}
