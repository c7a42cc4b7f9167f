// Package ratelimit caps provider API usage within a single run.
package ratelimit

import (
	"sync"

	"engnews/internal/logger"
)

// Budget counts provider calls against a shared per-run maximum.
// Zero max means unlimited.
type Budget struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
	max    int
}

func NewBudget(maxTotal int) *Budget {
	return &Budget{
		counts: make(map[string]int),
		max:    maxTotal,
	}
}

// Allow reports whether another call may be made.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.total >= b.max {
		logger.Warn("provider budget exhausted", "used", b.total, "max", b.max)
		return false
	}
	return true
}

// Use records one call made by the named provider.
func (b *Budget) Use(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts[provider]++
	b.total++
}

// Snapshot returns per-provider usage for the run summary.
func (b *Budget) Snapshot() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}
