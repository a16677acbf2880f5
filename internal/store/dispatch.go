package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/sealstore/internal/record"
)

// ErrUnsupportedKind is returned when a kind lacks the requested operation:
// escrows can be neither listed nor added.
var ErrUnsupportedKind = errors.New("operation not supported for record kind")

// Record is a record of any kind, for callers that pick the kind at run
// time (the CLI and the scenario harness).
type Record struct {
	Kind   record.Kind
	ID     string
	Fields record.Object
}

// Flat returns the record in its wire form, id included.
func (r Record) Flat() record.Object {
	return record.Flatten(r.ID, r.Fields)
}

// ListKind lists the collection for kind.
func ListKind(ctx context.Context, s Store, kind record.Kind) ([]Record, error) {
	switch kind {
	case record.KindCommitment:
		list, err := s.ListCommitments(ctx)
		return toRecords(kind, list, func(c record.Commitment) entry { return entry(c) }), err
	case record.KindSealedOrder:
		list, err := s.ListSealedOrders(ctx)
		return toRecords(kind, list, func(o record.SealedOrder) entry { return entry(o) }), err
	case record.KindAuditEvent:
		list, err := s.ListAuditEvents(ctx)
		return toRecords(kind, list, func(e record.AuditEvent) entry { return entry(e) }), err
	}
	return nil, fmt.Errorf("list %s: %w", kind, ErrUnsupportedKind)
}

// AddKind adds fields to the collection for kind.
func AddKind(ctx context.Context, s Store, kind record.Kind, fields record.Object) (Record, error) {
	var (
		e   entry
		err error
	)
	switch kind {
	case record.KindCommitment:
		var c record.Commitment
		c, err = s.AddCommitment(ctx, fields)
		e = entry(c)
	case record.KindSealedOrder:
		var o record.SealedOrder
		o, err = s.AddSealedOrder(ctx, fields)
		e = entry(o)
	case record.KindAuditEvent:
		var a record.AuditEvent
		a, err = s.AddAuditEvent(ctx, fields)
		e = entry(a)
	default:
		return Record{}, fmt.Errorf("add %s: %w", kind, ErrUnsupportedKind)
	}
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: kind, ID: e.ID, Fields: e.Fields}, nil
}

func toRecords[T any](kind record.Kind, in []T, fn func(T) entry) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		e := fn(r)
		out[i] = Record{Kind: kind, ID: e.ID, Fields: e.Fields}
	}
	return out
}
