package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/freshmart/cart-service/internal/domain/cart"
	"github.com/freshmart/cart-service/internal/infrastructure/id"
)

// CartRepository keeps carts in process memory. It enforces the same
// invariants as the Postgres store (one cart per user, one line per
// (cart, entry), quantity never persisted at or below zero) under a single
// mutex, which makes it a faithful stand-in for tests and local runs.
type CartRepository struct {
	mu          sync.RWMutex
	cartsByUser map[string]*domain.Cart
	lines       map[string]map[string]*domain.Line // cartID -> entryID -> line
	seq         int64
	ids         id.UUIDGenerator
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		cartsByUser: make(map[string]*domain.Cart),
		lines:       make(map[string]map[string]*domain.Line),
	}
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cartsByUser[userID]; ok {
		c.UpdatedAt = time.Now().UTC()
		return *c, nil
	}

	now := time.Now().UTC()
	c := &domain.Cart{
		ID:        r.ids.NewID(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.cartsByUser[userID] = c
	r.lines[c.ID] = make(map[string]*domain.Line)
	return *c, nil
}

func (r *CartRepository) Find(ctx context.Context, userID string) (domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cartsByUser[userID]
	if !ok {
		return domain.Cart{}, domain.ErrNotFound
	}
	return *c, nil
}

func (r *CartRepository) GetLine(ctx context.Context, cartID, entryID string) (domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lines[cartID][entryID]
	if !ok {
		return domain.Line{}, domain.ErrLineNotFound
	}
	return *l, nil
}

func (r *CartRepository) UpsertLine(ctx context.Context, cartID, entryID, entryName string, quantityDelta int, unitPriceCents int64) (domain.Line, error) {
	_ = ctx
	if quantityDelta <= 0 {
		return domain.Line{}, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byEntry, ok := r.lines[cartID]
	if !ok {
		return domain.Line{}, domain.ErrNotFound
	}

	now := time.Now().UTC()
	if l, exists := byEntry[entryID]; exists {
		l.Quantity += quantityDelta
		l.UpdatedAt = now
		return *l, nil
	}

	r.seq++
	l := &domain.Line{
		ID:             r.ids.NewID(),
		CartID:         cartID,
		EntryID:        entryID,
		EntryName:      entryName,
		Quantity:       quantityDelta,
		UnitPriceCents: unitPriceCents,
		CreatedAt:      now.Add(time.Duration(r.seq)), // strictly increasing for stable ordering
		UpdatedAt:      now,
	}
	byEntry[entryID] = l
	return *l, nil
}

func (r *CartRepository) SetLineQuantity(ctx context.Context, cartID, entryID string, quantity int) error {
	_ = ctx
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byEntry := r.lines[cartID]
	if quantity == 0 {
		delete(byEntry, entryID)
		return nil
	}

	l, ok := byEntry[entryID]
	if !ok {
		return domain.ErrLineNotFound
	}
	l.Quantity = quantity
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CartRepository) ListLines(ctx context.Context, cartID string) ([]domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	byEntry := r.lines[cartID]
	out := make([]domain.Line, 0, len(byEntry))
	for _, l := range byEntry {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[cartID]; ok {
		r.lines[cartID] = make(map[string]*domain.Line)
	}
	return nil
}
