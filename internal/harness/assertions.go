package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Kind)
			if event.ID != "" {
				fmt.Fprintf(&buf, " %s", event.ID)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an event with the
// assertion's op and kind whose record contains the expected fields.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	kind, err := record.ParseKind(assertion.Kind)
	if err != nil {
		return err
	}
	for _, event := range trace {
		if event.Op != assertion.Op || event.Kind != kind {
			continue
		}
		if _, ok := matchFields(event.Record, assertion.Fields); ok {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s with fields %v", assertion.Op, kind, assertion.Fields),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed ids were added in the given order.
// Other adds may come between them.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Op == OpAdd && event.ID != "" && positions[event.ID] == 0 {
			positions[event.ID] = i + 1 // 1-indexed for readability
		}
	}

	for _, id := range assertion.IDs {
		if positions[id] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ids added: %v", assertion.IDs),
				Actual:   fmt.Sprintf("missing id: %s", id),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.IDs); i++ {
		prev := assertion.IDs[i-1]
		curr := assertion.IDs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ids in order: %v", assertion.IDs),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that the op ran exactly Count times for the kind.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	kind, err := record.ParseKind(assertion.Kind)
	if err != nil {
		return err
	}

	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op && event.Kind == kind {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s %s", assertion.Count, assertion.Op, kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertRecordCount checks the final size of a collection.
func assertRecordCount(ctx context.Context, st store.Store, assertion Assertion) error {
	kind, err := record.ParseKind(assertion.Kind)
	if err != nil {
		return err
	}
	listed, err := store.ListKind(ctx, st, kind)
	if err != nil {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("list %s", kind),
			Actual:   fmt.Sprintf("list error: %v", err),
		}
	}
	if len(listed) != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d %s records", assertion.Count, kind),
			Actual:   fmt.Sprintf("%d records", len(listed)),
		}
	}
	return nil
}

// assertFinalState checks that the record with the assertion's id exists
// and contains the expected fields. Escrows are read with GetEscrow, other
// kinds by scanning their listing.
func assertFinalState(ctx context.Context, st store.Store, assertion Assertion) error {
	kind, err := record.ParseKind(assertion.Kind)
	if err != nil {
		return err
	}

	var (
		flat  record.Object
		found bool
	)
	if kind == record.KindEscrow {
		esc, ok, err := st.GetEscrow(ctx, assertion.ID)
		if err != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("get escrow %s", assertion.ID),
				Actual:   fmt.Sprintf("get error: %v", err),
			}
		}
		if ok {
			flat, found = record.Flatten(esc.ID, esc.Fields), true
		}
	} else {
		listed, err := store.ListKind(ctx, st, kind)
		if err != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("list %s", kind),
				Actual:   fmt.Sprintf("list error: %v", err),
			}
		}
		for _, r := range listed {
			if r.ID == assertion.ID {
				flat, found = r.Flat(), true
				break
			}
		}
	}

	if !found {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s record %s", kind, assertion.ID),
			Actual:   "record not found",
		}
	}
	if msg, ok := matchFields(flat, assertion.Fields); !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s record %s with fields %v", kind, assertion.ID, assertion.Fields),
			Actual:   msg,
		}
	}
	return nil
}

// matchFields checks that actual contains every expected key with an equal
// value (subset match). Extra keys in actual are ignored. On mismatch it
// returns a description of the first differing key, in sorted key order.
func matchFields(actual record.Object, want record.Object) (string, bool) {
	for _, key := range want.SortedKeys() {
		got, exists := actual[key]
		if !exists {
			return fmt.Sprintf("field %q missing", key), false
		}
		if !record.Equal(got, want[key]) {
			gotJSON, _ := record.MarshalValue(got)
			wantJSON, _ := record.MarshalValue(want[key])
			return fmt.Sprintf("field %q = %s, expected %s", key, gotJSON, wantJSON), false
		}
	}
	return "", true
}

// EvaluateAssertions evaluates all assertions against the result and the
// final store contents. Returns a slice of error messages for failed
// assertions.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st store.Store) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertRecordCount, AssertFinalState:
			if st == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
			} else if assertion.Type == AssertRecordCount {
				err = assertRecordCount(ctx, st, assertion)
			} else {
				err = assertFinalState(ctx, st, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
