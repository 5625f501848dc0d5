package pricing

// Assigner produces a unit price for a catalog entry the first time it enters
// a cart. The only hard contract is "stable once assigned": the orchestrator
// calls this exactly once per new line and freezes the result on the line.
// It stands in for a future authoritative pricing source and is deliberately
// pluggable.
type Assigner interface {
	UnitPriceCents(category string) int64
}
