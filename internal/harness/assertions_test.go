package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
	"github.com/roach88/sealstore/internal/testutil"
)

func sampleTrace() []TraceEvent {
	r := NewResult()
	r.AddTrace(TraceEvent{Op: OpAdd, Kind: record.KindCommitment, ID: "c-1",
		Record: record.Object{"id": record.String("c-1"), "amount": record.Int(100)}})
	r.AddTrace(TraceEvent{Op: OpAdd, Kind: record.KindSealedOrder, ID: "o-1",
		Record: record.Object{"id": record.String("o-1"), "side": record.String("buy")}})
	r.AddTrace(TraceEvent{Op: OpAdd, Kind: record.KindCommitment, ID: "c-2",
		Record: record.Object{"id": record.String("c-2"), "amount": record.Int(5)}})
	r.AddTrace(TraceEvent{Op: OpList, Kind: record.KindCommitment, Count: 2, IDs: []string{"c-1", "c-2"}})
	return r.Trace
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpAdd, Kind: "commitment"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpAdd, Kind: "commitment", Fields: record.Object{"amount": record.Int(5)}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpList, Kind: "commitments"}))

	err := assertTraceContains(trace, Assertion{Op: OpAdd, Kind: "commitment", Fields: record.Object{"amount": record.Int(7)}})
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, err.Error(), "[2] add sealed_order o-1")

	assert.Error(t, assertTraceContains(trace, Assertion{Op: OpAdd, Kind: "audit_event"}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{IDs: []string{"c-1", "c-2"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{IDs: []string{"c-1", "o-1", "c-2"}}))

	err := assertTraceOrder(trace, Assertion{IDs: []string{"c-2", "c-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c-2 (pos 3) should be before c-1 (pos 1)")

	err = assertTraceOrder(trace, Assertion{IDs: []string{"c-1", "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id: x")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpAdd, Kind: "commitment", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpAdd, Kind: "audit_event", Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpAdd, Kind: "sealed_order", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func openAssertionStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(store.DefaultConfig(),
		store.WithIDGenerator(testutil.NewSequentialIDs("r")),
		store.WithEscrows(record.Escrow{ID: "esc-1", Fields: record.Object{"state": record.String("held")}}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.AddAuditEvent(context.Background(), record.Object{"action": record.String("seal")})
	require.NoError(t, err)
	return st
}

func TestAssertRecordCount(t *testing.T) {
	st := openAssertionStore(t)
	ctx := context.Background()

	assert.NoError(t, assertRecordCount(ctx, st, Assertion{Kind: "audit_event", Count: 1}))
	assert.NoError(t, assertRecordCount(ctx, st, Assertion{Kind: "commitment", Count: 0}))

	err := assertRecordCount(ctx, st, Assertion{Kind: "audit_event", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 audit_event records")
}

func TestAssertFinalState(t *testing.T) {
	st := openAssertionStore(t)
	ctx := context.Background()

	assert.NoError(t, assertFinalState(ctx, st, Assertion{Kind: "audit_event", ID: "r-0001", Fields: record.Object{"action": record.String("seal")}}))
	assert.NoError(t, assertFinalState(ctx, st, Assertion{Kind: "escrow", ID: "esc-1", Fields: record.Object{"id": record.String("esc-1"), "state": record.String("held")}}))

	err := assertFinalState(ctx, st, Assertion{Kind: "audit_event", ID: "r-0001", Fields: record.Object{"action": record.String("open")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "action" = "seal", expected "open"`)

	err = assertFinalState(ctx, st, Assertion{Kind: "escrow", ID: "esc-9", Fields: record.Object{"state": record.String("held")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

func TestMatchFields(t *testing.T) {
	actual := record.Object{
		"amount": record.Int(100),
		"legs":   record.Array{record.Object{"qty": record.Int(2)}},
	}

	_, ok := matchFields(actual, nil)
	assert.True(t, ok)
	_, ok = matchFields(actual, record.Object{"legs": record.Array{record.Object{"qty": record.Int(2)}}})
	assert.True(t, ok)

	msg, ok := matchFields(actual, record.Object{"missing": record.Int(1)})
	assert.False(t, ok)
	assert.Equal(t, `field "missing" missing`, msg)

	msg, ok = matchFields(actual, record.Object{"amount": record.Number("100.0")})
	assert.False(t, ok)
	assert.Equal(t, `field "amount" = 100, expected 100.0`, msg)
}

func TestEvaluateAssertions(t *testing.T) {
	st := openAssertionStore(t)
	result := &Result{Pass: true, Trace: sampleTrace()}

	errs := EvaluateAssertions(context.Background(), result, []Assertion{
		{Type: AssertTraceCount, Op: OpAdd, Kind: "commitment", Count: 2},
		{Type: AssertRecordCount, Kind: "audit_event", Count: 1},
		{Type: AssertTraceOrder, IDs: []string{"c-2", "c-1"}},
		{Type: "bogus"},
	}, st)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_order")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)

	errs = EvaluateAssertions(context.Background(), result, []Assertion{
		{Type: AssertRecordCount, Kind: "audit_event", Count: 1},
	}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a store")
}
