package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sealstore/internal/fixture"
	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
	"github.com/roach88/sealstore/internal/testutil"
)

// seedPrefix names the ids of records added while applying a seed.
const seedPrefix = "seed"

// Harness executes scenario steps against one store.
type Harness struct {
	store  store.Store
	ids    *kindIDs
	logger *slog.Logger
}

// kindIDs hands out sequential ids with a per-kind prefix. The harness
// selects the prefix before every add, so it is not safe for concurrent use.
type kindIDs struct {
	current string
	gens    map[string]*testutil.SequentialIDs
}

func newKindIDs() *kindIDs {
	return &kindIDs{current: seedPrefix, gens: make(map[string]*testutil.SequentialIDs)}
}

func (k *kindIDs) use(prefix string) {
	k.current = prefix
}

// Generate implements store.IDGenerator.
func (k *kindIDs) Generate() string {
	g, ok := k.gens[k.current]
	if !ok {
		g = testutil.NewSequentialIDs(k.current)
		k.gens[k.current] = g
	}
	return g.Generate()
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store for isolation:
//  1. Open the scenario's backend with the seed's escrows installed
//  2. Apply the seed's other records
//  3. Execute steps, checking their expectations
//  4. Evaluate assertions against the trace and the final store
//
// A returned error means the scenario could not run. Failed expectations
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	var seed *fixture.Seed
	if scenario.Seed != "" {
		var err error
		seed, err = fixture.Load(scenario.Seed)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed: %w", err)
		}
	}

	ids := newKindIDs()
	cfg := store.DefaultConfig()
	cfg.Merge(&store.Config{Backend: scenario.Backend})
	st, err := fixture.Open(ctx, cfg, seed, store.WithIDGenerator(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    ids,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	for _, errMsg := range EvaluateAssertions(ctx, result, scenario.Assertions, st) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeStep performs one operation, traces it, and checks its
// expectations. Store errors are traced and reported, not returned.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Op() {
	case OpAdd:
		return h.executeAdd(ctx, index, step, result)
	case OpList:
		return h.executeList(ctx, index, step, result)
	case OpGetEscrow:
		h.executeGetEscrow(ctx, index, step, result)
		return nil
	}
	return fmt.Errorf("step has no operation")
}

func (h *Harness) executeAdd(ctx context.Context, index int, step Step, result *Result) error {
	kind, err := record.ParseKind(step.Add)
	if err != nil {
		return err
	}
	h.ids.use(string(kind))
	added, err := store.AddKind(ctx, h.store, kind, step.Data)
	event := TraceEvent{Op: OpAdd, Kind: kind}
	if err != nil {
		event.Error = err.Error()
		result.AddTrace(event)
		result.AddError(fmt.Sprintf("steps[%d]: add %s failed: %v", index, kind, err))
		return nil
	}
	event.ID = added.ID
	event.Record = added.Flat()
	result.AddTrace(event)

	h.logger.Info("step completed", "step", index, "op", OpAdd, "kind", kind, "id", added.ID)

	if step.Expect != nil {
		if msg, ok := matchFields(event.Record, step.Expect); !ok {
			result.AddError(fmt.Sprintf("steps[%d]: add %s: %s", index, kind, msg))
		}
	}
	return nil
}

func (h *Harness) executeList(ctx context.Context, index int, step Step, result *Result) error {
	kind, err := record.ParseKind(step.List)
	if err != nil {
		return err
	}

	listed, err := store.ListKind(ctx, h.store, kind)
	event := TraceEvent{Op: OpList, Kind: kind}
	if err != nil {
		event.Error = err.Error()
		result.AddTrace(event)
		result.AddError(fmt.Sprintf("steps[%d]: list %s failed: %v", index, kind, err))
		return nil
	}
	event.Count = len(listed)
	event.IDs = make([]string, len(listed))
	for i, r := range listed {
		event.IDs[i] = r.ID
	}
	result.AddTrace(event)

	h.logger.Info("step completed", "step", index, "op", OpList, "kind", kind, "count", event.Count)

	if step.ExpectCount != nil && *step.ExpectCount != event.Count {
		result.AddError(fmt.Sprintf("steps[%d]: list %s: expected %d records, got %d",
			index, kind, *step.ExpectCount, event.Count))
	}
	return nil
}

func (h *Harness) executeGetEscrow(ctx context.Context, index int, step Step, result *Result) {
	event := TraceEvent{Op: OpGetEscrow, Kind: record.KindEscrow, ID: step.GetEscrow}

	esc, found, err := h.store.GetEscrow(ctx, step.GetEscrow)
	if err != nil {
		event.Error = err.Error()
		result.AddTrace(event)
		result.AddError(fmt.Sprintf("steps[%d]: get_escrow %q failed: %v", index, step.GetEscrow, err))
		return
	}
	event.Found = found
	if found {
		event.Record = record.Flatten(esc.ID, esc.Fields)
	}
	result.AddTrace(event)

	h.logger.Info("step completed", "step", index, "op", OpGetEscrow, "id", step.GetEscrow, "found", found)

	if step.ExpectFound != nil && *step.ExpectFound != found {
		result.AddError(fmt.Sprintf("steps[%d]: get_escrow %q: expected found=%t, got found=%t",
			index, step.GetEscrow, *step.ExpectFound, found))
	}
	if step.Expect != nil {
		if !found {
			result.AddError(fmt.Sprintf("steps[%d]: get_escrow %q: expected a record, escrow not found",
				index, step.GetEscrow))
			return
		}
		if msg, ok := matchFields(event.Record, step.Expect); !ok {
			result.AddError(fmt.Sprintf("steps[%d]: get_escrow %q: %s", index, step.GetEscrow, msg))
		}
	}
}
