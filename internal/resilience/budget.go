package resilience

import "sync/atomic"

// Budget caps the number of successful LLM calls in a single run. Once
// the ceiling is reached every further request must be refused without
// contacting any provider. A zero or negative limit refuses everything.
type Budget struct {
	limit int64
	used  atomic.Int64
}

// NewBudget creates a budget with the given ceiling.
func NewBudget(limit int) *Budget {
	return &Budget{limit: int64(limit)}
}

// Exhausted reports whether the ceiling has been reached.
func (b *Budget) Exhausted() bool {
	return b.used.Load() >= b.limit
}

// Spend records one successful call.
func (b *Budget) Spend() {
	b.used.Add(1)
}

// Used returns how many successful calls have been recorded.
func (b *Budget) Used() int {
	return int(b.used.Load())
}

// Limit returns the configured ceiling.
func (b *Budget) Limit() int {
	return int(b.limit)
}
