package catalog

import (
	"context"
	"errors"
)

var ErrNoMatch = errors.New("catalog: no matching entry")

// DefaultThreshold is the minimum normalized similarity score at which a
// fuzzy match is accepted. A score exactly at the threshold passes; anything
// below is ErrNoMatch rather than a low-confidence guess.
const DefaultThreshold = 0.3

// Entry is a sellable item owned by the catalog subsystem. This service only
// ever reads entries.
type Entry struct {
	ID         string
	Name       string
	Category   string
	Restricted bool
}

// Query describes one free-text resolution request.
type Query struct {
	Text string
	// CategoryHint narrows candidates to one category when set. It can
	// never widen visibility: restricted entries stay fenced regardless.
	CategoryHint string
	// Privileged grants access to restricted entries.
	Privileged bool
}

// Resolver maps free text to the single best-matching catalog entry.
// Implementations are pure reads; an unmatched query is ErrNoMatch, never a
// fault. Ties above the threshold resolve deterministically by entry ID.
type Resolver interface {
	Resolve(ctx context.Context, q Query) (Entry, error)
}
