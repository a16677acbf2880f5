package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/fixture"
	"github.com/roach88/sealstore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Backend    string // "memory" | "sqlite" | "pebble"
	Seed       string // seed file applied to every store the command opens
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sealstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sealstore",
		Short: "sealstore - in-memory store for commitments, sealed orders and escrows",
		Long: `An in-memory record store for a sealed-bid trading system.

Commitments, sealed orders and audit events can be listed and added;
escrows are seeded from a fixture file and looked up by id. Every command
works on a fresh store: nothing is persisted between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints anything not already reported

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.applyConfig(cmd); err != nil {
				return err
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !isValidBackend(opts.Backend) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, store.Backends))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", store.BackendMemory, "store backend (memory|sqlite|pebble)")
	cmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "seed file (yaml, json or cue) loaded into the store")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file; flags override its values")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEscrowCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// applyConfig loads --config and fills every option whose flag was not set
// on the command line.
func (o *RootOptions) applyConfig(cmd *cobra.Command) error {
	if o.ConfigPath == "" {
		return nil
	}
	file, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("[%s] invalid config", ErrCodeConfig), err)
	}
	cfg := DefaultConfig()
	cfg.Merge(file)

	flags := cmd.Flags()
	if !flags.Changed("backend") {
		o.Backend = cfg.Store.Backend
	}
	if !flags.Changed("seed") {
		o.Seed = cfg.Seed
	}
	if !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if !flags.Changed("verbose") {
		o.Verbose = cfg.Verbose
	}
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// storeConfig returns the store configuration selected by the options.
func (o *RootOptions) storeConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.Merge(&store.Config{Backend: o.Backend})
	return cfg
}

// openStore opens a fresh store with the seed file applied. Failures are
// reported through f; the returned error is the command's exit error.
func (o *RootOptions) openStore(ctx context.Context, f *OutputFormatter) (store.Store, error) {
	var seed *fixture.Seed
	if o.Seed != "" {
		var err error
		seed, err = fixture.Load(o.Seed)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeSeed, "failed to load seed", err)
		}
		f.VerboseLog("Loaded seed %s", o.Seed)
	}

	var opts []store.Option
	if f.Verbose {
		logger := slog.New(slog.NewTextHandler(f.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, store.WithLogger(logger))
	}

	cfg := o.storeConfig()
	st, err := fixture.Open(ctx, cfg, seed, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreOpen, fmt.Sprintf("failed to open %s store", cfg.Backend), err)
	}
	f.VerboseLog("Opened %s store", cfg.Backend)
	return st, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// isValidBackend accepts the store backends and the empty default.
func isValidBackend(backend string) bool {
	if backend == "" {
		return true
	}
	for _, b := range store.Backends {
		if b == backend {
			return true
		}
	}
	return false
}
