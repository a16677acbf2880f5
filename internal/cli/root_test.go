package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sealstore", cmd.Use)
	assert.Contains(t, cmd.Long, "escrows")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"list", "add", "escrow", "validate", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	backendFlag := cmd.PersistentFlags().Lookup("backend")
	require.NotNil(t, backendFlag)
	assert.Equal(t, "memory", backendFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("seed"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "list", "commitment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidBackend(t *testing.T) {
	_, _, err := execute(t, "--backend", "redis", "list", "commitment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid backend "redis"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sealstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, "backend: sqlite\nformat: json\nseed: testdata/seed.yaml\n")

	stdout, _, err := execute(t, "--config", path, "list", "commitments")
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.EqualValues(t, 2, dataMap(t, resp)["count"])
}

func TestConfigFile_FlagsOverride(t *testing.T) {
	path := writeConfig(t, "format: json\nseed: testdata/seed.yaml\n")

	stdout, _, err := execute(t, "--config", path, "--format", "text", "list", "sealed-orders")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"digest":"ab12"`)
	assert.Contains(t, stdout, "1 sealed_order record(s)")
}

func TestConfigFile_Invalid(t *testing.T) {
	path := writeConfig(t, "backnd: sqlite\n")

	_, _, err := execute(t, "--config", path, "list", "commitment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeConfig)
	assert.Contains(t, err.Error(), "field backnd not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigMerge(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "text", cfg.Format)

	cfg.Merge(&Config{Seed: "s.yaml", Verbose: true})
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "s.yaml", cfg.Seed)
	assert.True(t, cfg.Verbose)
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "--verbose", "--format", "json", "--seed", "testdata/seed.yaml", "list", "commitment")
	require.NoError(t, err)

	decodeResponse(t, stdout) // stdout stays a single JSON document
	assert.Contains(t, stderr, "Opened memory store")
	assert.Contains(t, stderr, "msg=\"record added\"")
	assert.Contains(t, stderr, "msg=list")
}

func TestUnknownCommandNotPrintedByCobra(t *testing.T) {
	stdout, stderr, err := execute(t, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "bogus"`)
	assert.Empty(t, stderr)
	assert.Empty(t, stdout)
}
