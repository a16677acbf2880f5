package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sealstore/internal/record"
)

func openSQLiteBackend(t *testing.T) *sqliteBackend {
	t.Helper()
	s, err := NewSQLite()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.b.(*sqliteBackend)
}

func TestSQLite_Pragmas(t *testing.T) {
	b := openSQLiteBackend(t)

	assert.NoError(t, b.verifyPragma("journal_mode", "memory"))
	assert.NoError(t, b.verifyPragma("synchronous", "0"))
	assert.NoError(t, b.verifyPragma("busy_timeout", "5000"))
}

func TestSQLite_SchemaTables(t *testing.T) {
	b := openSQLiteBackend(t)

	for _, table := range tables {
		var name string
		err := b.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestSQLite_StoresCanonicalKeyOrder(t *testing.T) {
	b := openSQLiteBackend(t)
	ctx := context.Background()

	err := b.insert(ctx, record.KindCommitment, entry{
		ID:     "c-1",
		Fields: record.Object{"zebra": record.Int(1), "alpha": record.Int(2)},
	})
	require.NoError(t, err)

	var fields string
	require.NoError(t, b.db.QueryRow("SELECT fields FROM commitments WHERE id = 'c-1'").Scan(&fields))
	assert.Equal(t, `{"alpha":2,"zebra":1}`, fields)
}

func TestSQLite_IsolatedDatabases(t *testing.T) {
	first := openSQLiteBackend(t)
	second := openSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, first.insert(ctx, record.KindAuditEvent, entry{ID: "a", Fields: record.Object{}}))

	entries, err := second.list(ctx, record.KindAuditEvent)
	require.NoError(t, err)
	assert.Empty(t, entries, "each store owns a private :memory: database")
}
