package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/record"
)

// EscrowResult is the data payload of the escrow command.
type EscrowResult struct {
	Record record.Object `json:"record"`
}

// NewEscrowCommand creates the escrow command.
func NewEscrowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow <id>",
		Short: "Look up an escrow by id",
		Long: `Look up an escrow by id.

Escrows enter the store only through the --seed file.

Exit codes:
  0 - Escrow found
  1 - No escrow has this id
  2 - Command error

Example:
  sealstore escrow esc-1 --seed fixtures/seed.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEscrow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEscrow(opts *RootOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctx := cmdContext(cmd)
	st, err := opts.openStore(ctx, f)
	if err != nil {
		return err
	}
	defer st.Close()

	esc, found, err := st.GetEscrow(ctx, id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreOp, "failed to look up escrow", err)
	}
	if !found {
		return f.Fail(ExitFailure, ErrCodeEscrowAbsent, fmt.Sprintf("escrow %q not found", id), nil)
	}

	result := EscrowResult{Record: record.Flatten(esc.ID, esc.Fields)}
	return f.Success(result, func(w io.Writer) {
		writeRecord(w, result.Record)
	})
}
