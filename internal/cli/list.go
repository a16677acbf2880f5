package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
)

// ListResult is the data payload of the list command.
type ListResult struct {
	Kind    record.Kind     `json:"kind"`
	Count   int             `json:"count"`
	Records []record.Object `json:"records"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List all records of a kind",
		Long: `List every commitment, sealed order or audit event in insertion order.

Kinds: commitments, sealed-orders, audit-events (singular and
snake_case spellings work too). Records come from the --seed file.

Examples:
  sealstore list commitments --seed fixtures/seed.yaml
  sealstore list sealed_order --seed fixtures/seed.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, kindArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	kind, err := parseKind(f, kindArg)
	if err != nil {
		return err
	}
	if err := requireInsertable(f, kind, "listed"); err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	st, err := opts.openStore(ctx, f)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := store.ListKind(ctx, st, kind)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreOp, fmt.Sprintf("failed to list %s records", kind), err)
	}

	result := ListResult{Kind: kind, Count: len(records), Records: make([]record.Object, len(records))}
	for i, r := range records {
		result.Records[i] = r.Flat()
	}

	return f.Success(result, func(w io.Writer) {
		for _, flat := range result.Records {
			writeRecord(w, flat)
		}
		fmt.Fprintf(w, "%d %s record(s)\n", result.Count, kind)
	})
}

// cmdContext returns the command's context, or Background when the command
// was executed without one.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
