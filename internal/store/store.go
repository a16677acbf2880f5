package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/sealstore/internal/record"
)

// Sentinel errors for store operations.
var (
	ErrClosed         = errors.New("store closed")
	ErrDuplicateID    = errors.New("duplicate record id")
	ErrEmptyID        = errors.New("record id is empty")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is the record store contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// ListCommitments returns every commitment in insertion order.
	ListCommitments(ctx context.Context) ([]record.Commitment, error)
	// AddCommitment stores fields under a newly generated id.
	AddCommitment(ctx context.Context, fields record.Object) (record.Commitment, error)

	// ListSealedOrders returns every sealed order in insertion order.
	ListSealedOrders(ctx context.Context) ([]record.SealedOrder, error)
	// AddSealedOrder stores fields under a newly generated id.
	AddSealedOrder(ctx context.Context, fields record.Object) (record.SealedOrder, error)

	// ListAuditEvents returns every audit event in insertion order.
	ListAuditEvents(ctx context.Context) ([]record.AuditEvent, error)
	// AddAuditEvent stores fields under a newly generated id.
	AddAuditEvent(ctx context.Context, fields record.Object) (record.AuditEvent, error)

	// GetEscrow looks up an escrow. found is false when no escrow has the id.
	GetEscrow(ctx context.Context, id string) (escrow record.Escrow, found bool, err error)

	// Close releases backend resources. Later calls return ErrClosed.
	Close() error
}

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendMemory, BackendSQLite, BackendPebble}

// Config holds store initialization parameters.
type Config struct {
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"` // memory | sqlite | pebble
}

// DefaultConfig returns the default store configuration (memory backend).
func DefaultConfig() Config {
	return Config{Backend: BackendMemory}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
}

// Open creates a Store for cfg.Backend. When WithLogger is supplied the
// result is wrapped with Logged.
func Open(cfg Config, opts ...Option) (Store, error) {
	var (
		s   *RecordStore
		err error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		s, err = NewMemory(opts...)
	case BackendSQLite:
		s, err = NewSQLite(opts...)
	case BackendPebble:
		s, err = NewPebble(opts...)
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownBackend, cfg.Backend, Backends)
	}
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	if o.logger != nil {
		return Logged(s, o.logger), nil
	}
	return s, nil
}

// Option configures a store at construction.
type Option func(*options)

type options struct {
	ids     IDGenerator
	escrows []record.Escrow
	logger  *slog.Logger
}

func buildOptions(opts []Option) options {
	o := options{ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithIDGenerator replaces the default UUIDv4 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

// WithEscrows pre-populates the escrow collection. Escrows cannot be added
// after construction. Each escrow needs a non-empty, unique id.
func WithEscrows(escrows ...record.Escrow) Option {
	return func(o *options) {
		o.escrows = append(o.escrows, escrows...)
	}
}

// WithLogger makes Open wrap the store with Logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// entry is the backend-side shape shared by every record kind.
// Its underlying type matches the record structs, so conversion is direct.
type entry struct {
	ID     string
	Fields record.Object
}

// backend is a keyed, insertion-ordered collection per record kind.
// Backends own their locking and return entries the caller may keep.
type backend interface {
	list(ctx context.Context, kind record.Kind) ([]entry, error)
	insert(ctx context.Context, kind record.Kind, e entry) error
	lookup(ctx context.Context, kind record.Kind, id string) (entry, bool, error)
	close() error
}

// RecordStore implements Store over one backend. It assigns identifiers,
// copies payloads, and enforces the closed state.
//
// Operations hold mu for reading across the closed check and the backend
// call; Close holds it for writing, so the backend is never closed under a
// running operation.
type RecordStore struct {
	b   backend
	ids IDGenerator

	mu     sync.RWMutex
	closed bool
}

func newRecordStore(b backend, o options) (*RecordStore, error) {
	s := &RecordStore{b: b, ids: o.ids}
	seen := make(map[string]bool, len(o.escrows))
	for _, esc := range o.escrows {
		if esc.ID == "" {
			b.close()
			return nil, fmt.Errorf("seed escrow: %w", ErrEmptyID)
		}
		if seen[esc.ID] {
			b.close()
			return nil, fmt.Errorf("seed escrow %q: %w", esc.ID, ErrDuplicateID)
		}
		seen[esc.ID] = true
		e := entry{ID: esc.ID, Fields: esc.Fields.Without(record.IDField)}
		if err := b.insert(context.Background(), record.KindEscrow, e); err != nil {
			b.close()
			return nil, fmt.Errorf("seed escrow %q: %w", esc.ID, err)
		}
	}
	return s, nil
}

// ListCommitments implements Store.
func (s *RecordStore) ListCommitments(ctx context.Context) ([]record.Commitment, error) {
	entries, err := s.list(ctx, record.KindCommitment)
	if err != nil {
		return nil, err
	}
	return convert(entries, func(e entry) record.Commitment { return record.Commitment(e) }), nil
}

// AddCommitment implements Store.
func (s *RecordStore) AddCommitment(ctx context.Context, fields record.Object) (record.Commitment, error) {
	e, err := s.add(ctx, record.KindCommitment, fields)
	return record.Commitment(e), err
}

// ListSealedOrders implements Store.
func (s *RecordStore) ListSealedOrders(ctx context.Context) ([]record.SealedOrder, error) {
	entries, err := s.list(ctx, record.KindSealedOrder)
	if err != nil {
		return nil, err
	}
	return convert(entries, func(e entry) record.SealedOrder { return record.SealedOrder(e) }), nil
}

// AddSealedOrder implements Store.
func (s *RecordStore) AddSealedOrder(ctx context.Context, fields record.Object) (record.SealedOrder, error) {
	e, err := s.add(ctx, record.KindSealedOrder, fields)
	return record.SealedOrder(e), err
}

// ListAuditEvents implements Store.
func (s *RecordStore) ListAuditEvents(ctx context.Context) ([]record.AuditEvent, error) {
	entries, err := s.list(ctx, record.KindAuditEvent)
	if err != nil {
		return nil, err
	}
	return convert(entries, func(e entry) record.AuditEvent { return record.AuditEvent(e) }), nil
}

// AddAuditEvent implements Store.
func (s *RecordStore) AddAuditEvent(ctx context.Context, fields record.Object) (record.AuditEvent, error) {
	e, err := s.add(ctx, record.KindAuditEvent, fields)
	return record.AuditEvent(e), err
}

// GetEscrow implements Store.
func (s *RecordStore) GetEscrow(ctx context.Context, id string) (record.Escrow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return record.Escrow{}, false, ErrClosed
	}
	e, found, err := s.b.lookup(ctx, record.KindEscrow, id)
	if err != nil {
		return record.Escrow{}, false, fmt.Errorf("get escrow %q: %w", id, err)
	}
	if !found {
		return record.Escrow{}, false, nil
	}
	return record.Escrow(e), true, nil
}

// Close implements Store. Closing twice returns ErrClosed.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.b.close()
}

func (s *RecordStore) list(ctx context.Context, kind record.Kind) ([]entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	entries, err := s.b.list(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return entries, nil
}

func (s *RecordStore) add(ctx context.Context, kind record.Kind, fields record.Object) (entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return entry{}, ErrClosed
	}
	id := s.ids.Generate()
	if id == "" {
		return entry{}, fmt.Errorf("add %s: %w", kind, ErrEmptyID)
	}
	e := entry{ID: id, Fields: fields.Without(record.IDField)}
	if err := s.b.insert(ctx, kind, e); err != nil {
		return entry{}, fmt.Errorf("add %s: %w", kind, err)
	}
	// The backend may hold e.Fields; the caller gets its own copy.
	e.Fields = e.Fields.Clone()
	return e, nil
}

func convert[T any](entries []entry, fn func(entry) T) []T {
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = fn(e)
	}
	return out
}
