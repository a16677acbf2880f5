package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/roach88/sealstore/internal/record"
)

// Key layout:
//
//	<kind>/seq/<%020d>  -> flat record JSON (listing order)
//	<kind>/id/<id>      -> seq key (uniqueness and lookup)
//
// Zero-padded sequence numbers make byte order match insertion order.

// pebbleBackend stores records in a pebble LSM on an in-memory filesystem.
type pebbleBackend struct {
	db    *pebble.DB
	kinds map[record.Kind]*pebbleKind
}

// pebbleKind serializes inserts for one kind so seq assignment and the
// uniqueness check happen together.
type pebbleKind struct {
	mu  sync.Mutex
	seq uint64
}

// NewPebble creates a store backed by pebble on vfs.NewMem(). Nothing
// touches disk; the data is gone after Close.
func NewPebble(opts ...Option) (*RecordStore, error) {
	db, err := pebble.Open("sealstore", &pebble.Options{
		FS:         vfs.NewMem(),
		DisableWAL: true, // nothing to recover on an in-memory filesystem
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}

	b := &pebbleBackend{
		db:    db,
		kinds: make(map[record.Kind]*pebbleKind, len(record.Kinds)),
	}
	for _, k := range record.Kinds {
		b.kinds[k] = &pebbleKind{}
	}
	return newRecordStore(b, buildOptions(opts))
}

func (b *pebbleBackend) list(_ context.Context, kind record.Kind) ([]entry, error) {
	prefix := seqPrefix(kind)
	iter, err := b.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	defer iter.Close()

	entries := []entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		e, err := unmarshalEntry(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s key %q: %w", kind, iter.Key(), err)
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return entries, nil
}

func (b *pebbleBackend) insert(_ context.Context, kind record.Kind, e entry) error {
	k := b.kinds[kind]
	k.mu.Lock()
	defer k.mu.Unlock()

	idKey := idKeyFor(kind, e.ID)
	_, closer, err := b.db.Get(idKey)
	switch {
	case err == nil:
		closer.Close()
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	case !errors.Is(err, pebble.ErrNotFound):
		return fmt.Errorf("check %s id: %w", kind, err)
	}

	value, err := marshalEntry(e)
	if err != nil {
		return err
	}

	seqKey := seqKeyFor(kind, k.seq+1)
	batch := b.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(seqKey, value, nil); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	if err := batch.Set(idKey, seqKey, nil); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}

	k.seq++
	return nil
}

func (b *pebbleBackend) lookup(_ context.Context, kind record.Kind, id string) (entry, bool, error) {
	seqKey, ok, err := b.get(idKeyFor(kind, id))
	if err != nil || !ok {
		return entry{}, false, err
	}
	value, ok, err := b.get(seqKey)
	if err != nil {
		return entry{}, false, err
	}
	if !ok {
		return entry{}, false, fmt.Errorf("%s %q: index points at missing key %q", kind, id, seqKey)
	}
	e, err := unmarshalEntry(value)
	if err != nil {
		return entry{}, false, err
	}
	return e, true, nil
}

// get copies the value out before releasing pebble's buffer.
func (b *pebbleBackend) get(key []byte) ([]byte, bool, error) {
	val, closer, err := b.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), true, nil
}

func (b *pebbleBackend) close() error {
	return b.db.Close()
}

func seqPrefix(kind record.Kind) []byte {
	return []byte(string(kind) + "/seq/")
}

func seqKeyFor(kind record.Kind, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s/seq/%020d", kind, seq))
}

func idKeyFor(kind record.Kind, id string) []byte {
	return []byte(string(kind) + "/id/" + id)
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
