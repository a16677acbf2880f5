package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sealstore/internal/record"
)

// Golden files are keyed by scenario name, never by scenario file name.
const (
	goldenDir    = "testdata/golden"
	goldenSuffix = ".golden"
)

// GoldenFile returns the golden file for a scenario name inside dir.
func GoldenFile(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+goldenSuffix)
}

// Snapshot serializes a scenario trace as canonical JSON, the format of
// golden files:
//
//	{"scenario_name":"...","trace":[{...},...]}
//
// The backend is not part of the snapshot, so every backend must produce
// the same bytes.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = event.canonical()
	}
	return record.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         trace,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(goldenSuffix),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
