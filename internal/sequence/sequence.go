// Package sequence allocates day-scoped counters for claim references and bank file numbers.
package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/claimflow/internal/dateutils"
)

// Allocator hands out strictly increasing values per scope, starting at 1.
// Implementations must be safe for concurrent use; a value is never handed out twice.
type Allocator interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// Scope prefixes for the day-scoped counters.
const (
	ClaimScopePrefix = "claim:"
	BatchScopePrefix = "aba:"
)

// ClaimScope is the counter scope for claim references created on day.
func ClaimScope(day time.Time) string {
	return ClaimScopePrefix + dateutils.ToCompact(day)
}

// BatchScope is the counter scope for bank files generated on day.
func BatchScope(day time.Time) string {
	return BatchScopePrefix + dateutils.ToDDMMYY(day)
}

// MemoryAllocator keeps counters in process memory.
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryAllocator creates an empty MemoryAllocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

// Next returns the next value for scope.
func (a *MemoryAllocator) Next(ctx context.Context, scope string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if scope == "" {
		return 0, fmt.Errorf("sequence scope must not be empty")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[scope]++
	return a.counters[scope], nil
}

// Seed raises the counter for scope to at least value. It is used when loading
// existing references so that new ones continue after the highest seen.
func (a *MemoryAllocator) Seed(scope string, value int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if value > a.counters[scope] {
		a.counters[scope] = value
	}
}
