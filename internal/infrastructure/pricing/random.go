package pricing

import (
	"math/rand/v2"
	"sync"
)

// priceRange bounds a unit price in euro cents, inclusive on both ends.
type priceRange struct {
	min, max int64
}

var categoryRanges = map[string]priceRange{
	"Vegetables": {200, 800},
	"Fruits":     {300, 1000},
	"Dairy":      {100, 500},
	"Meat":       {800, 2500},
	"Bakery":     {200, 600},
	"Seafood":    {1000, 3000},
	"Beverages":  {150, 800},
	"Grains":     {150, 600},
	"Snacks":     {200, 800},
	"Condiments": {150, 700},
}

var defaultRange = priceRange{200, 1000}

// RandomAssigner draws a uniform price from a category-bounded range. It is a
// placeholder for an authoritative pricing source; the orchestrator calls it
// once per new cart line and the result stays frozen on that line.
type RandomAssigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomAssigner() *RandomAssigner {
	return &RandomAssigner{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededAssigner fixes the random source, for reproducible tests.
func NewSeededAssigner(seed1, seed2 uint64) *RandomAssigner {
	return &RandomAssigner{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (a *RandomAssigner) UnitPriceCents(category string) int64 {
	r, ok := categoryRanges[category]
	if !ok {
		r = defaultRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return r.min + a.rng.Int64N(r.max-r.min+1)
}

// Fixed returns an assigner that always prices at the given cents value.
// Useful in tests and as a stand-in when randomness is undesirable.
func Fixed(cents int64) FixedAssigner { return FixedAssigner(cents) }

type FixedAssigner int64

func (f FixedAssigner) UnitPriceCents(string) int64 { return int64(f) }
