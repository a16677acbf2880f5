package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/testutil"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := Open(DefaultConfig(),
		WithIDGenerator(testutil.NewSequentialIDs("c")),
		WithLogger(logger),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.AddCommitment(ctx, record.Object{"amount": record.Int(100), "secret": record.String("do-not-log")})
	require.NoError(t, err)
	_, err = s.ListCommitments(ctx)
	require.NoError(t, err)
	_, _, err = s.GetEscrow(ctx, "missing")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.NotContains(t, buf.String(), "do-not-log", "payloads are never logged")

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "record added", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "commitment", lines[0]["kind"])
	assert.Equal(t, "c-0001", lines[0]["id"])
	assert.EqualValues(t, 2, lines[0]["fields"])

	assert.Equal(t, "list", lines[1]["msg"])
	assert.EqualValues(t, 1, lines[1]["count"])

	assert.Equal(t, "get escrow", lines[2]["msg"])
	assert.Equal(t, false, lines[2]["found"])

	assert.Equal(t, "store closed", lines[3]["msg"])
}

func TestLoggedErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	inner, err := NewMemory()
	require.NoError(t, err)
	s := Logged(inner, logger)
	require.NoError(t, s.Close())

	_, err = s.AddSealedOrder(context.Background(), record.Object{})
	require.ErrorIs(t, err, ErrClosed)

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 1, "debug lines are filtered at the default level")
	assert.Equal(t, "add failed", lines[0]["msg"])
	assert.Equal(t, "sealed_order", lines[0]["kind"])
}
