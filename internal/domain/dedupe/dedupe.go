// Package dedupe groups records by an equality key and tracks group sizes.
package dedupe

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/drainwatch/internal/domain/model"
)

// Grouper counts how many records share each key.
type Grouper interface {
	// Add records one more member for key and returns the group size after
	// the addition.
	Add(ctx context.Context, key string) int

	// Count returns the current group size for key (0 when unseen).
	Count(ctx context.Context, key string) int

	// Size returns the number of distinct keys.
	Size() int64
}

// inMemoryGrouper implements Grouper with a map guarded by a mutex.
type inMemoryGrouper struct {
	mu     sync.RWMutex
	counts map[string]int
	size   atomic.Int64
	hint   int
}

// NewInMemoryGrouper creates an empty grouper.
func NewInMemoryGrouper(opts ...Option) Grouper {
	g := &inMemoryGrouper{}
	for _, opt := range opts {
		opt(g)
	}
	g.counts = make(map[string]int, g.hint)
	return g
}

func (g *inMemoryGrouper) Add(_ context.Context, key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.counts[key]
	if !ok {
		g.size.Add(1)
	}
	n++
	g.counts[key] = n
	return n
}

func (g *inMemoryGrouper) Count(_ context.Context, key string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.counts[key]
}

func (g *inMemoryGrouper) Size() int64 {
	return g.size.Load()
}

// invalidDay stands in for the day component of tickets whose date could not
// be parsed, so they only group with each other.
const invalidDay = "invalid-date"

// TicketKey builds the duplicate-group key for a ticket: vessel, UTC calendar
// day and exact amount.
func TicketKey(t model.Ticket) string {
	day := invalidDay
	if d, ok := t.Day(); ok {
		day = d.Format("2006-01-02")
	}
	amount := t.Amount
	if amount == 0 {
		amount = 0 // fold -0 into 0
	}
	var b strings.Builder
	b.WriteString(t.VesselID)
	b.WriteByte('|')
	b.WriteString(day)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(amount, 'g', -1, 64))
	return b.String()
}
