package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domain "github.com/freshmart/cart-service/internal/domain/catalog"
)

// CatalogResolver resolves free text against an in-memory entry set using the
// same padded-trigram similarity the Postgres resolver gets from pg_trgm, so
// threshold behavior matches across both implementations.
type CatalogResolver struct {
	mu        sync.RWMutex
	entries   []domain.Entry
	threshold float64
}

func NewCatalogResolver(entries []domain.Entry, threshold float64) *CatalogResolver {
	if threshold <= 0 {
		threshold = domain.DefaultThreshold
	}
	sorted := append([]domain.Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &CatalogResolver{entries: sorted, threshold: threshold}
}

func (r *CatalogResolver) Resolve(ctx context.Context, q domain.Query) (domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	queryGrams := trigrams(q.Text)

	var (
		best      domain.Entry
		bestScore = -1.0
	)
	// entries are kept sorted by ID, so equal scores resolve to the lowest
	// ID and repeated runs return the same entry.
	for _, e := range r.entries {
		if e.Restricted && !q.Privileged {
			continue
		}
		if q.CategoryHint != "" && !strings.EqualFold(e.Category, q.CategoryHint) {
			continue
		}
		score := Similarity(queryGrams, trigrams(e.Name))
		if score >= r.threshold && score > bestScore {
			best = e
			bestScore = score
		}
	}

	if bestScore < 0 {
		return domain.Entry{}, domain.ErrNoMatch
	}
	return best, nil
}

// trigrams extracts the padded trigram set of s the way pg_trgm does: each
// alphanumeric word is lowercased, padded with two leading and one trailing
// space, and split into runs of three characters.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range splitWords(strings.ToLower(s)) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r >= 0x80: // keep non-ASCII letters together
			return false
		}
		return true
	})
}

// Similarity is the trigram set similarity |A ∩ B| / |A ∪ B|.
func Similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for g := range a {
		if _, ok := b[g]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
