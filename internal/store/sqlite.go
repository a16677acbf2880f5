package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/sealstore/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// tables maps each record kind to its sqlite table.
var tables = map[record.Kind]string{
	record.KindCommitment:  "commitments",
	record.KindSealedOrder: "sealed_orders",
	record.KindAuditEvent:  "audit_events",
	record.KindEscrow:      "escrows",
}

// sqliteBackend stores records in a private in-memory SQLite database.
// The pool is pinned to one connection: every :memory: connection is a
// separate database, and SQLite allows one writer anyway.
type sqliteBackend struct {
	db *sql.DB
}

// NewSQLite creates a store backed by an in-memory SQLite database.
// Nothing is written to disk; the data is gone after Close.
//
// The database is configured with:
//   - journal in memory
//   - synchronous OFF (nothing to sync)
//   - 5-second busy timeout
func NewSQLite(opts ...Option) (*RecordStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newRecordStore(&sqliteBackend{db: db}, buildOptions(opts))
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = OFF",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func (b *sqliteBackend) list(ctx context.Context, kind record.Kind) ([]entry, error) {
	// Insertion order is seq order.
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, fields
		FROM %s
		ORDER BY seq ASC
	`, tables[kind]))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tables[kind], err)
	}
	defer rows.Close()

	entries := []entry{}
	for rows.Next() {
		var id, fieldsJSON string
		if err := rows.Scan(&id, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan %s: %w", tables[kind], err)
		}
		fields, err := unmarshalFields(fieldsJSON)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, id, err)
		}
		entries = append(entries, entry{ID: id, Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", tables[kind], err)
	}

	return entries, nil
}

func (b *sqliteBackend) insert(ctx context.Context, kind record.Kind, e entry) error {
	fieldsJSON, err := marshalFields(e.Fields)
	if err != nil {
		return err
	}

	_, err = b.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, fields)
		VALUES (?, ?)
	`, tables[kind]), e.ID, fieldsJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		return fmt.Errorf("insert %s: %w", tables[kind], err)
	}

	return nil
}

func (b *sqliteBackend) lookup(ctx context.Context, kind record.Kind, id string) (entry, bool, error) {
	var fieldsJSON string
	err := b.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT fields
		FROM %s
		WHERE id = ?
	`, tables[kind]), id).Scan(&fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return entry{}, false, nil
	}
	if err != nil {
		return entry{}, false, fmt.Errorf("query %s: %w", tables[kind], err)
	}

	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return entry{}, false, fmt.Errorf("%s %q: %w", kind, id, err)
	}
	return entry{ID: id, Fields: fields}, true, nil
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (b *sqliteBackend) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := b.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
