package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/fixture"
	"github.com/roach88/sealstore/internal/record"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	File   string         `json:"file"`
	Format fixture.Format `json:"format"`
	Counts map[string]int `json:"counts"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <seed-file>",
		Short: "Validate a seed file without opening a store",
		Long: `Validate a YAML, JSON or CUE seed file.

Checks that the file parses, has no unknown sections, and that every
escrow has a unique non-empty id.

Exit codes:
  0 - Seed is valid
  1 - Seed is invalid
  2 - Command error (file not found, unsupported extension)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(path); err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("seed file not found: %s", path), nil)
	}
	format, err := fixture.FormatFor(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "cannot validate seed", err)
	}

	f.VerboseLog("Validating %s seed %s", format, path)
	seed, err := fixture.Load(path)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeSeed, "invalid seed file", err)
	}

	result := ValidationResult{
		Valid:  true,
		File:   path,
		Format: format,
		Counts: make(map[string]int, len(record.Kinds)),
	}
	counts := seed.Counts()
	for _, kind := range record.Kinds {
		result.Counts[string(kind)] = counts[kind]
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
		for _, kind := range record.Kinds {
			fmt.Fprintf(w, "  %-13s %d\n", kind, counts[kind])
		}
	})
}
