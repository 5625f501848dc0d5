package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/freshmart/cart-service/internal/domain/cart"
	"github.com/freshmart/cart-service/internal/infrastructure/id"
)

// CartRepository persists carts and cart lines in PostgreSQL. The two hard
// concurrency invariants live in the schema and the statements below: a
// unique index on carts.user_id with an on-conflict upsert for GetOrCreate,
// and a unique index on (cart_id, entry_id) with an atomic
// increment-or-insert for UpsertLine. No read-then-write anywhere.
type CartRepository struct {
	db  *sql.DB
	ids id.UUIDGenerator
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	// The DO UPDATE arm makes the conflicting row visible to RETURNING, so
	// concurrent first access by the same identity settles on one cart.
	const q = `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at`

	var c domain.Cart
	err := r.db.QueryRowContext(ctx, q, r.ids.NewID(), userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("cart repository: get or create: %w", err)
	}
	return c, nil
}

func (r *CartRepository) Find(ctx context.Context, userID string) (domain.Cart, error) {
	const q = `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1`

	var c domain.Cart
	err := r.db.QueryRowContext(ctx, q, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("cart repository: find: %w", err)
	}
	return c, nil
}

func (r *CartRepository) GetLine(ctx context.Context, cartID, entryID string) (domain.Line, error) {
	const q = `
		SELECT id, cart_id, entry_id, entry_name, quantity, unit_price_cents, created_at, updated_at
		FROM cart_lines
		WHERE cart_id = $1 AND entry_id = $2`

	var l domain.Line
	err := r.db.QueryRowContext(ctx, q, cartID, entryID).
		Scan(&l.ID, &l.CartID, &l.EntryID, &l.EntryName, &l.Quantity, &l.UnitPriceCents, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Line{}, domain.ErrLineNotFound
	}
	if err != nil {
		return domain.Line{}, fmt.Errorf("cart repository: get line: %w", err)
	}
	return l, nil
}

func (r *CartRepository) UpsertLine(ctx context.Context, cartID, entryID, entryName string, quantityDelta int, unitPriceCents int64) (domain.Line, error) {
	if quantityDelta <= 0 {
		return domain.Line{}, domain.ErrInvalidQuantity
	}

	// On conflict the stored unit price wins: EXCLUDED.unit_price_cents is
	// deliberately not referenced.
	const q = `
		INSERT INTO cart_lines (id, cart_id, entry_id, entry_name, quantity, unit_price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (cart_id, entry_id) DO UPDATE SET
			quantity   = cart_lines.quantity + EXCLUDED.quantity,
			updated_at = NOW()
		RETURNING id, cart_id, entry_id, entry_name, quantity, unit_price_cents, created_at, updated_at`

	var l domain.Line
	err := r.db.QueryRowContext(ctx, q, r.ids.NewID(), cartID, entryID, entryName, quantityDelta, unitPriceCents).
		Scan(&l.ID, &l.CartID, &l.EntryID, &l.EntryName, &l.Quantity, &l.UnitPriceCents, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Line{}, fmt.Errorf("cart repository: upsert line: %w", err)
	}
	return l, nil
}

func (r *CartRepository) SetLineQuantity(ctx context.Context, cartID, entryID string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	if quantity == 0 {
		const del = `DELETE FROM cart_lines WHERE cart_id = $1 AND entry_id = $2`
		if _, err := r.db.ExecContext(ctx, del, cartID, entryID); err != nil {
			return fmt.Errorf("cart repository: delete line: %w", err)
		}
		return nil
	}

	const upd = `
		UPDATE cart_lines
		SET quantity = $3, updated_at = NOW()
		WHERE cart_id = $1 AND entry_id = $2`

	res, err := r.db.ExecContext(ctx, upd, cartID, entryID, quantity)
	if err != nil {
		return fmt.Errorf("cart repository: set quantity: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) ListLines(ctx context.Context, cartID string) ([]domain.Line, error) {
	const q = `
		SELECT id, cart_id, entry_id, entry_name, quantity, unit_price_cents, created_at, updated_at
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart repository: list lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.EntryID, &l.EntryName, &l.Quantity, &l.UnitPriceCents, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("cart repository: scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	const q = `DELETE FROM cart_lines WHERE cart_id = $1`
	if _, err := r.db.ExecContext(ctx, q, cartID); err != nil {
		return fmt.Errorf("cart repository: clear: %w", err)
	}
	return nil
}
