package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: one_commitment
description: "Add then list"
steps:
  - add: commitment
    data: { amount: 100 }
  - list: commitments
    expect_count: 1
`

const failingScenario = `name: wrong_count
description: "Expects a record that was never added"
steps:
  - list: sealed_orders
    expect_count: 3
`

// writeScenarios writes name -> content files into a fresh directory.
func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTest_TestdataScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ escrow_lookup\n")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTest_GoldenMatchesEveryBackend(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite", "pebble"} {
		t.Run(backend, func(t *testing.T) {
			stdout, _, err := execute(t, "--format", "json", "--backend", backend, "test", "testdata/scenarios")
			require.NoError(t, err, stdout)

			data := dataMap(t, decodeResponse(t, stdout))
			assert.EqualValues(t, 1, data["passed"])
			assert.EqualValues(t, 0, data["failed"])
		})
	}
}

func TestTest_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"one_commitment.yaml": passingScenario,
		"wrong_count.yaml":    failingScenario,
	})

	stdout, _, err := execute(t, "test", dir, "--filter", "one_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ one_commitment")
	assert.NotContains(t, stdout, "wrong_count")
	assert.Contains(t, stdout, "1 total")
}

func TestTest_NoScenarios(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"notes.txt": "not a scenario"})

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}

func TestTest_FailingScenario(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"one_commitment.yaml": passingScenario,
		"wrong_count.yaml":    failingScenario,
	})

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ one_commitment")
	assert.Contains(t, stdout, "✗ wrong_count")
	assert.Contains(t, stdout, "expected 3 records, got 0")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTest_FailingScenarioJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"wrong_count.yaml": failingScenario})

	stdout, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
}

func TestTest_InvalidScenarioFile(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: broken\nsteps:\n  - list: escrows\n"})

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"one_commitment.yaml": passingScenario})

	stdout, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ one_commitment (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "one_commitment.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"one_commitment"`)
	assert.Contains(t, string(golden), `"id":"commitment-0001"`)

	// A second run compares against the file just written, on another backend.
	stdout, _, err = execute(t, "--backend", "sqlite", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ one_commitment\n")
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"one_commitment.yaml": passingScenario})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "one_commitment.golden"),
		[]byte(`{"scenario_name":"one_commitment","trace":[]}`), 0o644))

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestTest_MissingDirectory(t *testing.T) {
	stdout, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]: scenarios directory not found")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "golden", "named.golden"),
		goldenFilePath(filepath.Join("a", "b", "c.yaml"), "named"))
}

func TestTest_GoldenKeyedByScenarioName(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"alpha.yaml": passingScenario})

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "golden", "one_commitment.golden"))
	assert.NoFileExists(t, filepath.Join(dir, "golden", "alpha.golden"))

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ one_commitment\n")
}
