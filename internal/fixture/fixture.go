package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
)

// Errors returned while loading seeds.
var (
	ErrMissingEscrowID   = errors.New("escrow is missing an id")
	ErrDuplicateEscrowID = errors.New("duplicate escrow id")
	ErrUnsupportedFormat = errors.New("unsupported seed format")
)

// Format identifies a seed encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Seed is a decoded seed document.
type Seed struct {
	Escrows      []record.Escrow
	Commitments  []record.Object
	SealedOrders []record.Object
	AuditEvents  []record.Object
}

// document is the raw shape shared by every format.
type document struct {
	Escrows      []record.Object `yaml:"escrows" json:"escrows"`
	Commitments  []record.Object `yaml:"commitments" json:"commitments"`
	SealedOrders []record.Object `yaml:"sealed_orders" json:"sealed_orders"`
	AuditEvents  []record.Object `yaml:"audit_events" json:"audit_events"`
}

// Load reads and decodes the seed file at path.
func Load(path string) (*Seed, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	seed, err := Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// Parse decodes seed data in the given format. name is used in CUE
// diagnostics only.
func Parse(data []byte, format Format, name string) (*Seed, error) {
	var (
		doc document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatJSON:
		doc, err = decodeJSON(data)
	case FormatCUE:
		doc, err = decodeCUE(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return doc.seed()
}

func decodeYAML(data []byte) (document, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return document{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc, nil
}

func decodeJSON(data []byte) (document, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return document{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if dec.More() {
		return document{}, fmt.Errorf("failed to parse JSON: trailing data")
	}
	return doc, nil
}

// decodeCUE evaluates the file and reads its concrete JSON export.
// Definitions and hidden fields do not appear in the export, so seeds can
// carry schemas next to their data.
func decodeCUE(data []byte, name string) (document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return document{}, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return document{}, fmt.Errorf("invalid CUE seed: %w", err)
	}
	exported, err := value.MarshalJSON()
	if err != nil {
		return document{}, fmt.Errorf("failed to export CUE: %w", err)
	}
	return decodeJSON(exported)
}

func (d document) seed() (*Seed, error) {
	seed := &Seed{
		Escrows: make([]record.Escrow, 0, len(d.Escrows)),
	}

	seen := make(map[string]bool, len(d.Escrows))
	for i, flat := range d.Escrows {
		id, fields, err := record.Split(flat)
		if err != nil {
			return nil, fmt.Errorf("escrows[%d]: %w", i, err)
		}
		if id == "" {
			return nil, fmt.Errorf("escrows[%d]: %w", i, ErrMissingEscrowID)
		}
		if seen[id] {
			return nil, fmt.Errorf("escrows[%d]: %w: %q", i, ErrDuplicateEscrowID, id)
		}
		seen[id] = true
		seed.Escrows = append(seed.Escrows, record.Escrow{ID: id, Fields: fields})
	}

	seed.Commitments = objects(d.Commitments)
	seed.SealedOrders = objects(d.SealedOrders)
	seed.AuditEvents = objects(d.AuditEvents)
	return seed, nil
}

func objects(raws []record.Object) []record.Object {
	out := make([]record.Object, 0, len(raws))
	for _, raw := range raws {
		out = append(out, raw.Clone())
	}
	return out
}

// Options returns the store options that install the seed's escrows.
func (s *Seed) Options() []store.Option {
	if len(s.Escrows) == 0 {
		return nil
	}
	return []store.Option{store.WithEscrows(s.Escrows...)}
}

// Apply adds the seed's commitments, sealed orders and audit events to st,
// in that order and in file order within each section.
func (s *Seed) Apply(ctx context.Context, st store.Store) error {
	for i, fields := range s.Commitments {
		if _, err := st.AddCommitment(ctx, fields); err != nil {
			return fmt.Errorf("seed commitments[%d]: %w", i, err)
		}
	}
	for i, fields := range s.SealedOrders {
		if _, err := st.AddSealedOrder(ctx, fields); err != nil {
			return fmt.Errorf("seed sealed_orders[%d]: %w", i, err)
		}
	}
	for i, fields := range s.AuditEvents {
		if _, err := st.AddAuditEvent(ctx, fields); err != nil {
			return fmt.Errorf("seed audit_events[%d]: %w", i, err)
		}
	}
	return nil
}

// Counts reports how many records the seed holds per kind.
func (s *Seed) Counts() map[record.Kind]int {
	return map[record.Kind]int{
		record.KindEscrow:      len(s.Escrows),
		record.KindCommitment:  len(s.Commitments),
		record.KindSealedOrder: len(s.SealedOrders),
		record.KindAuditEvent:  len(s.AuditEvents),
	}
}

// Open creates a store for cfg with the seed's escrows installed and its
// other records applied. The store is closed again if seeding fails.
func Open(ctx context.Context, cfg store.Config, seed *Seed, opts ...store.Option) (store.Store, error) {
	if seed != nil {
		opts = append(seed.Options(), opts...)
	}
	st, err := store.Open(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return st, nil
	}
	if err := seed.Apply(ctx, st); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
