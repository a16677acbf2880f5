package harness

import "github.com/roach88/sealstore/internal/record"

// TraceEvent records one store operation performed by a scenario step.
type TraceEvent struct {
	Seq    int64         `json:"seq"`
	Op     string        `json:"op"` // add | list | get_escrow
	Kind   record.Kind   `json:"kind"`
	ID     string        `json:"id,omitempty"`     // add, get_escrow
	Record record.Object `json:"record,omitempty"` // flat record returned by add or a found escrow
	Count  int           `json:"count"`            // list only
	IDs    []string      `json:"ids,omitempty"`    // list only, in listing order
	Found  bool          `json:"found"`            // get_escrow only
	Error  string        `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, assigning the next sequence number.
func (r *Result) AddTrace(event TraceEvent) TraceEvent {
	event.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, event)
	return event
}

// canonical converts the event to the plain shape MarshalCanonical accepts.
// Only the fields meaningful for the event's op are included.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"op":   e.Op,
		"kind": string(e.Kind),
	}
	switch e.Op {
	case OpAdd:
		if e.ID != "" {
			m["id"] = e.ID
		}
		if e.Record != nil {
			m["record"] = e.Record
		}
	case OpList:
		m["count"] = e.Count
		ids := make([]any, len(e.IDs))
		for i, id := range e.IDs {
			ids[i] = id
		}
		m["ids"] = ids
	case OpGetEscrow:
		m["id"] = e.ID
		m["found"] = e.Found
		if e.Record != nil {
			m["record"] = e.Record
		}
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}
