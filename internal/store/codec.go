package store

import (
	"fmt"

	"github.com/roach88/sealstore/internal/record"
)

// marshalFields converts a payload to JSON TEXT for storage.
// Keys are written in RFC 8785 order so identical payloads store identically.
func marshalFields(fields record.Object) (string, error) {
	if fields == nil {
		fields = record.Object{}
	}
	data, err := fields.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses stored JSON TEXT back into a payload.
// Numbers keep their literal text, so 0.5 and values above 2^53 survive.
func unmarshalFields(data string) (record.Object, error) {
	if data == "" || data == "{}" {
		return record.Object{}, nil
	}
	var obj record.Object
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if obj == nil {
		obj = record.Object{}
	}
	return obj, nil
}

// marshalEntry encodes an entry in the flat record form.
func marshalEntry(e entry) ([]byte, error) {
	data, err := record.Flatten(e.ID, e.Fields).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal entry %q: %w", e.ID, err)
	}
	return data, nil
}

// unmarshalEntry decodes the flat record form written by marshalEntry.
func unmarshalEntry(data []byte) (entry, error) {
	var flat record.Object
	if err := flat.UnmarshalJSON(data); err != nil {
		return entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	id, fields, err := record.Split(flat)
	if err != nil {
		return entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	return entry{ID: id, Fields: fields}, nil
}
