package app

import (
	"sync"
	"time"
)

// IDGenerator hands out strictly increasing ids derived from a millisecond
// clock. Two calls in the same millisecond still get distinct ids.
type IDGenerator struct {
	mu     sync.Mutex
	last   int64
	now    func() time.Time
	exists func(id int64) bool
}

// NewIDGenerator creates a generator whose ids are above seed. exists, when
// non-nil, is consulted so ids already in use are skipped.
func NewIDGenerator(seed int64, exists func(id int64) bool) *IDGenerator {
	return &IDGenerator{
		last:   seed,
		now:    time.Now,
		exists: exists,
	}
}

// Next returns max(now in ms, last+1), skipping ids reported by exists.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	for g.exists != nil && g.exists(id) {
		id++
	}
	g.last = id
	return id
}

// Observe raises the floor so later ids are above id.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
