package inventory

import "context"

// StockReader queries the external inventory boundary for current
// availability. It is strictly read-only: this service never reserves,
// decrements or otherwise mutates stock.
type StockReader interface {
	// Availability returns the available quantity for each requested entry
	// in a single batched round trip. Entries unknown to the boundary are
	// reported as zero.
	Availability(ctx context.Context, entryIDs []string) (map[string]int, error)
}
