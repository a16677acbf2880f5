package record

import (
	"errors"
	"fmt"
	"strings"
)

// IDField is the JSON key that carries a record's identifier in its flat form.
const IDField = "id"

// Kind names one of the four record collections.
type Kind string

const (
	KindCommitment  Kind = "commitment"
	KindSealedOrder Kind = "sealed_order"
	KindAuditEvent  Kind = "audit_event"
	KindEscrow      Kind = "escrow"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindCommitment, KindSealedOrder, KindAuditEvent, KindEscrow}

// ErrUnknownKind is returned by ParseKind for names outside Kinds.
var ErrUnknownKind = errors.New("unknown record kind")

// ParseKind accepts a kind name, its plural, or a hyphenated spelling:
// "sealed_order", "sealed-orders" and "SealedOrders" all parse.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch norm {
	case "commitment", "commitments":
		return KindCommitment, nil
	case "sealed_order", "sealed_orders", "sealedorder", "sealedorders":
		return KindSealedOrder, nil
	case "audit_event", "audit_events", "auditevent", "auditevents":
		return KindAuditEvent, nil
	case "escrow", "escrows":
		return KindEscrow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Insertable reports whether records of this kind can be added through the
// store. Escrows are read-only.
func (k Kind) Insertable() bool {
	return k == KindCommitment || k == KindSealedOrder || k == KindAuditEvent
}

// Commitment is a pledged value or agreement.
type Commitment struct {
	ID     string
	Fields Object
}

// SealedOrder is an order whose details are protected.
type SealedOrder struct {
	ID     string
	Fields Object
}

// AuditEvent is a logged occurrence kept for traceability.
type AuditEvent struct {
	ID     string
	Fields Object
}

// Escrow is held or intermediary value state. Escrows are looked up by
// identifier only.
type Escrow struct {
	ID     string
	Fields Object
}

// Flatten returns fields plus the id key, the way records appear on the wire.
// The assigned id overrides any id carried in fields.
func Flatten(id string, fields Object) Object {
	flat := fields.Clone()
	flat[IDField] = String(id)
	return flat
}

// Split separates the id key from a flat record object. A missing id yields
// an empty string; a non-string id is an error.
func Split(flat Object) (string, Object, error) {
	fields := flat.Without(IDField)
	raw, ok := flat[IDField]
	if !ok {
		return "", fields, nil
	}
	id, ok := raw.(String)
	if !ok {
		return "", nil, fmt.Errorf("record id must be a string, got %s", kindName(raw))
	}
	return string(id), fields, nil
}

func marshalFlat(id string, fields Object) ([]byte, error) {
	return Flatten(id, fields).MarshalJSON()
}

func unmarshalFlat(data []byte) (string, Object, error) {
	var flat Object
	if err := flat.UnmarshalJSON(data); err != nil {
		return "", nil, err
	}
	return Split(flat)
}

// MarshalJSON implements json.Marshaler.
func (c Commitment) MarshalJSON() ([]byte, error) { return marshalFlat(c.ID, c.Fields) }

// UnmarshalJSON implements json.Unmarshaler.
func (c *Commitment) UnmarshalJSON(data []byte) (err error) {
	c.ID, c.Fields, err = unmarshalFlat(data)
	return err
}

// MarshalJSON implements json.Marshaler.
func (o SealedOrder) MarshalJSON() ([]byte, error) { return marshalFlat(o.ID, o.Fields) }

// UnmarshalJSON implements json.Unmarshaler.
func (o *SealedOrder) UnmarshalJSON(data []byte) (err error) {
	o.ID, o.Fields, err = unmarshalFlat(data)
	return err
}

// MarshalJSON implements json.Marshaler.
func (e AuditEvent) MarshalJSON() ([]byte, error) { return marshalFlat(e.ID, e.Fields) }

// UnmarshalJSON implements json.Unmarshaler.
func (e *AuditEvent) UnmarshalJSON(data []byte) (err error) {
	e.ID, e.Fields, err = unmarshalFlat(data)
	return err
}

// MarshalJSON implements json.Marshaler.
func (e Escrow) MarshalJSON() ([]byte, error) { return marshalFlat(e.ID, e.Fields) }

// UnmarshalJSON implements json.Unmarshaler.
func (e *Escrow) UnmarshalJSON(data []byte) (err error) {
	e.ID, e.Fields, err = unmarshalFlat(data)
	return err
}
