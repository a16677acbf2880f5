package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/sealstore/internal/record"
)

// collection is an insertion-ordered, id-indexed list of entries guarded by
// its own lock.
type collection struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

func newCollection() *collection {
	return &collection{index: make(map[string]int)}
}

func (c *collection) all() []entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = entry{ID: e.ID, Fields: e.Fields.Clone()}
	}
	return out
}

func (c *collection) insert(e entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	c.index[e.ID] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

func (c *collection) get(id string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return entry{}, false
	}
	e := c.entries[i]
	return entry{ID: e.ID, Fields: e.Fields.Clone()}, true
}

// memoryBackend keeps one collection per record kind.
type memoryBackend struct {
	collections map[record.Kind]*collection
}

// NewMemory creates a store backed by plain Go maps and slices.
func NewMemory(opts ...Option) (*RecordStore, error) {
	b := &memoryBackend{collections: make(map[record.Kind]*collection, len(record.Kinds))}
	for _, k := range record.Kinds {
		b.collections[k] = newCollection()
	}
	return newRecordStore(b, buildOptions(opts))
}

func (b *memoryBackend) list(_ context.Context, kind record.Kind) ([]entry, error) {
	return b.collections[kind].all(), nil
}

func (b *memoryBackend) insert(_ context.Context, kind record.Kind, e entry) error {
	return b.collections[kind].insert(e)
}

func (b *memoryBackend) lookup(_ context.Context, kind record.Kind, id string) (entry, bool, error) {
	e, ok := b.collections[kind].get(id)
	return e, ok, nil
}

func (b *memoryBackend) close() error {
	return nil
}
