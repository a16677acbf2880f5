package store

import (
	"context"
	"log/slog"

	"github.com/roach88/sealstore/internal/record"
)

// loggedStore records every operation on a slog.Logger.
type loggedStore struct {
	next   Store
	logger *slog.Logger
}

// Logged wraps next so each operation is logged. Adds log at Info, reads at
// Debug, failures at Error. Payload contents are never logged.
func Logged(next Store, logger *slog.Logger) Store {
	return &loggedStore{next: next, logger: logger}
}

func (s *loggedStore) ListCommitments(ctx context.Context) ([]record.Commitment, error) {
	out, err := s.next.ListCommitments(ctx)
	s.logList(ctx, record.KindCommitment, len(out), err)
	return out, err
}

func (s *loggedStore) AddCommitment(ctx context.Context, fields record.Object) (record.Commitment, error) {
	out, err := s.next.AddCommitment(ctx, fields)
	s.logAdd(ctx, record.KindCommitment, out.ID, len(fields), err)
	return out, err
}

func (s *loggedStore) ListSealedOrders(ctx context.Context) ([]record.SealedOrder, error) {
	out, err := s.next.ListSealedOrders(ctx)
	s.logList(ctx, record.KindSealedOrder, len(out), err)
	return out, err
}

func (s *loggedStore) AddSealedOrder(ctx context.Context, fields record.Object) (record.SealedOrder, error) {
	out, err := s.next.AddSealedOrder(ctx, fields)
	s.logAdd(ctx, record.KindSealedOrder, out.ID, len(fields), err)
	return out, err
}

func (s *loggedStore) ListAuditEvents(ctx context.Context) ([]record.AuditEvent, error) {
	out, err := s.next.ListAuditEvents(ctx)
	s.logList(ctx, record.KindAuditEvent, len(out), err)
	return out, err
}

func (s *loggedStore) AddAuditEvent(ctx context.Context, fields record.Object) (record.AuditEvent, error) {
	out, err := s.next.AddAuditEvent(ctx, fields)
	s.logAdd(ctx, record.KindAuditEvent, out.ID, len(fields), err)
	return out, err
}

func (s *loggedStore) GetEscrow(ctx context.Context, id string) (record.Escrow, bool, error) {
	out, found, err := s.next.GetEscrow(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "get escrow failed", "kind", record.KindEscrow, "id", id, "error", err)
		return out, found, err
	}
	s.logger.DebugContext(ctx, "get escrow", "kind", record.KindEscrow, "id", id, "found", found)
	return out, found, nil
}

func (s *loggedStore) Close() error {
	err := s.next.Close()
	if err != nil {
		s.logger.Error("close failed", "error", err)
		return err
	}
	s.logger.Debug("store closed")
	return nil
}

func (s *loggedStore) logList(ctx context.Context, kind record.Kind, count int, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "list failed", "kind", kind, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "list", "kind", kind, "count", count)
}

func (s *loggedStore) logAdd(ctx context.Context, kind record.Kind, id string, fieldCount int, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "add failed", "kind", kind, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "record added", "kind", kind, "id", id, "fields", fieldCount)
}
