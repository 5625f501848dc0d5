package cart

import "context"

// Repository is the durable cart store. Implementations must make
// GetOrCreate and UpsertLine atomic: the uniqueness of (user) carts and of
// (cart, entry) lines is enforced here, not in the application layer.
type Repository interface {
	// GetOrCreate returns the cart owned by userID, creating it atomically
	// when absent. Concurrent first access by the same identity must yield
	// a single cart.
	GetOrCreate(ctx context.Context, userID string) (Cart, error)

	// Find returns the cart owned by userID or ErrNotFound.
	Find(ctx context.Context, userID string) (Cart, error)

	// GetLine returns the line for (cartID, entryID) or ErrLineNotFound.
	GetLine(ctx context.Context, cartID, entryID string) (Line, error)

	// UpsertLine atomically increments the quantity of an existing
	// (cartID, entryID) line by quantityDelta, or inserts a new line with
	// quantity = quantityDelta and the given name and unit price. The unit
	// price of an existing line is left untouched. quantityDelta must be
	// positive. Returns the resulting line.
	UpsertLine(ctx context.Context, cartID, entryID, entryName string, quantityDelta int, unitPriceCents int64) (Line, error)

	// SetLineQuantity sets an absolute quantity. Zero deletes the line
	// (idempotently); a positive quantity updates an existing line or
	// returns ErrLineNotFound. Negative quantities are ErrInvalidQuantity.
	SetLineQuantity(ctx context.Context, cartID, entryID string, quantity int) error

	// ListLines returns all lines of the cart, most recently added first.
	ListLines(ctx context.Context, cartID string) ([]Line, error)

	// Clear deletes every line of the cart in one operation, keeping the
	// cart record itself.
	Clear(ctx context.Context, cartID string) error
}
