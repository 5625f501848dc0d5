package cart

import "fmt"

// FailureKind classifies a per-item add failure. These are result values,
// not errors: one bad item never aborts its siblings in a batch.
type FailureKind string

const (
	FailureNoMatch           FailureKind = "no_match"
	FailureInsufficientStock FailureKind = "insufficient_stock"
	FailureInvalidQuantity   FailureKind = "invalid_quantity"
)

// AddItem is one requested line of a batch add.
type AddItem struct {
	Description  string
	Quantity     int
	CategoryHint string
}

// AddInput carries the verified caller identity and the requested items.
type AddInput struct {
	UserID     string
	Privileged bool
	Items      []AddItem
}

// ItemResult is the outcome for a single requested item.
type ItemResult struct {
	Description    string
	Success        bool
	EntryID        string
	MatchedName    string
	Quantity       int
	UnitPriceCents int64

	Failure   FailureKind
	Reason    string
	Available int // available stock, set on insufficient-stock failures
}

// Totals summarizes the cart after a mutation.
type Totals struct {
	ItemCount       int
	TotalPriceCents int64
}

// AddResult aggregates per-item outcomes. Success means every item landed.
type AddResult struct {
	Success bool
	Items   []ItemResult
	Totals  Totals
}

// LineView is one cart line as reported to callers.
type LineView struct {
	EntryID        string
	Name           string
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
}

// View is a point-in-time snapshot of the cart. It does not re-validate
// stock.
type View struct {
	Lines           []LineView
	TotalItems      int
	TotalPriceCents int64
	Currency        string
}

// InsufficientStockError rejects an update that would exceed availability.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cart: insufficient stock (only %d available)", e.Available)
}
