package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
)

// Scenario is a scripted sequence of store operations with expectations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is an optional fixture file loaded before the first step.
	// LoadScenario resolves it relative to the scenario file.
	Seed string `yaml:"seed,omitempty"`

	// Backend selects the store backend. Empty means memory.
	Backend string `yaml:"backend,omitempty"`

	// Steps run in order, one store operation each.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation. Exactly one of Add, List and GetEscrow is set.
type Step struct {
	// Add names the kind to add a record to.
	Add string `yaml:"add,omitempty"`

	// List names the kind to list.
	List string `yaml:"list,omitempty"`

	// GetEscrow is the escrow id to look up.
	GetEscrow string `yaml:"get_escrow,omitempty"`

	// Data is the payload for add steps.
	Data record.Object `yaml:"data,omitempty"`

	// Expect is a subset match against the returned record, id included.
	// Valid for add and get_escrow.
	Expect record.Object `yaml:"expect,omitempty"`

	// ExpectCount is the expected listing length.
	ExpectCount *int `yaml:"expect_count,omitempty"`

	// ExpectFound is the expected outcome of an escrow lookup.
	ExpectFound *bool `yaml:"expect_found,omitempty"`
}

// Step operation names, as they appear in traces.
const (
	OpAdd       = "add"
	OpList      = "list"
	OpGetEscrow = "get_escrow"
)

// Op returns the operation the step performs.
func (s Step) Op() string {
	switch {
	case s.Add != "":
		return OpAdd
	case s.List != "":
		return OpList
	case s.GetEscrow != "":
		return OpGetEscrow
	}
	return ""
}

// Assertion validates the trace or the final store contents.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count,
	// record_count, final_state.
	Type string `yaml:"type"`

	// Op is the operation name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Kind is the record kind (all types except trace_order).
	Kind string `yaml:"kind,omitempty"`

	// ID selects the record (final_state).
	ID string `yaml:"id,omitempty"`

	// Fields is a subset match against a record (trace_contains, final_state).
	Fields record.Object `yaml:"fields,omitempty"`

	// Count is the expected number (trace_count, record_count).
	Count int `yaml:"count,omitempty"`

	// IDs is the expected add order (trace_order).
	IDs []string `yaml:"ids,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRecordCount   = "record_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is invalid.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Seed != "" && !filepath.IsAbs(scenario.Seed) {
		scenario.Seed = filepath.Join(filepath.Dir(path), scenario.Seed)
	}
	if scenario.Seed != "" {
		if _, err := os.Stat(scenario.Seed); err != nil {
			return nil, fmt.Errorf("invalid scenario: seed file not found: %s", scenario.Seed)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Seed paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Backend != "" && !validBackend(s.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %v)", s.Backend, store.Backends)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validBackend(name string) bool {
	for _, b := range store.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func validateStep(index int, step Step) error {
	set := 0
	for _, v := range []string{step.Add, step.List, step.GetEscrow} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of add, list, get_escrow is required", index)
	}

	switch step.Op() {
	case OpAdd:
		kind, err := record.ParseKind(step.Add)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		if !kind.Insertable() {
			return fmt.Errorf("steps[%d]: %s records cannot be added", index, kind)
		}
		if step.ExpectCount != nil || step.ExpectFound != nil {
			return fmt.Errorf("steps[%d]: add supports only expect", index)
		}
	case OpList:
		kind, err := record.ParseKind(step.List)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		if !kind.Insertable() {
			return fmt.Errorf("steps[%d]: %s records cannot be listed", index, kind)
		}
		if step.Data != nil || step.Expect != nil || step.ExpectFound != nil {
			return fmt.Errorf("steps[%d]: list supports only expect_count", index)
		}
	case OpGetEscrow:
		if step.Data != nil || step.ExpectCount != nil {
			return fmt.Errorf("steps[%d]: get_escrow supports only expect and expect_found", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needKind := func() error {
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for %s", index, a.Type)
		}
		if _, err := record.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
		return needKind()
	case AssertTraceOrder:
		if len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		return needKind()
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
		if err := needKind(); err != nil {
			return err
		}
		if kind, _ := record.ParseKind(a.Kind); !kind.Insertable() {
			return fmt.Errorf("assertions[%d]: record_count cannot count %s records", index, kind)
		}
	case AssertFinalState:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for final_state", index)
		}
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields is required for final_state", index)
		}
		return needKind()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
