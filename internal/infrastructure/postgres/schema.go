package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates everything the service owns. catalog_entries is owned by the
// catalog subsystem; it is created here only so local setups work out of the
// box, and this service never writes to it.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		restricted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
		id               UUID PRIMARY KEY,
		cart_id          UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		entry_id         UUID NOT NULL,
		entry_name       TEXT NOT NULL,
		quantity         INTEGER NOT NULL CHECK (quantity > 0),
		unit_price_cents BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (cart_id, entry_id)
	)`,
}

// EnsureSchema applies the service schema. Idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}
