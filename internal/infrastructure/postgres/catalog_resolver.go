package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/freshmart/cart-service/internal/domain/catalog"
)

// CatalogResolver resolves free text against the catalog_entries table using
// pg_trgm similarity. Visibility fencing happens inside the query, so a
// crafted category hint can never surface a restricted entry.
type CatalogResolver struct {
	db        *sql.DB
	threshold float64
}

func NewCatalogResolver(db *sql.DB, threshold float64) *CatalogResolver {
	if threshold <= 0 {
		threshold = domain.DefaultThreshold
	}
	return &CatalogResolver{db: db, threshold: threshold}
}

func (r *CatalogResolver) Resolve(ctx context.Context, q domain.Query) (domain.Entry, error) {
	// Ties on similarity resolve by id so repeated runs agree.
	const query = `
		SELECT id, name, category, restricted
		FROM catalog_entries
		WHERE (restricted = FALSE OR $2 = TRUE)
		  AND ($3 = '' OR LOWER(category) = LOWER($3))
		  AND similarity(name, $1) >= $4
		ORDER BY similarity(name, $1) DESC, id
		LIMIT 1`

	var e domain.Entry
	err := r.db.QueryRowContext(ctx, query, q.Text, q.Privileged, q.CategoryHint, r.threshold).
		Scan(&e.ID, &e.Name, &e.Category, &e.Restricted)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrNoMatch
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("catalog resolver: %w", err)
	}
	return e, nil
}
