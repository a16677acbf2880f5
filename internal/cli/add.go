package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/record"
	"github.com/roach88/sealstore/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Data string
}

// AddResult is the data payload of the add command.
type AddResult struct {
	Kind   record.Kind   `json:"kind"`
	Record record.Object `json:"record"`
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <kind>",
		Short: "Add a record and print it with its assigned id",
		Long: `Add a commitment, sealed order or audit event.

The payload is a JSON object of arbitrary fields, stored exactly as
given. The store assigns the id; an "id" key in the payload is
ignored. The store is discarded when the command exits.

Example:
  sealstore add commitment --data '{"amount":100}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "{}", "record payload as a JSON object")

	return cmd
}

func runAdd(opts *AddOptions, kindArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	kind, err := parseKind(f, kindArg)
	if err != nil {
		return err
	}
	if err := requireInsertable(f, kind, "added"); err != nil {
		return err
	}

	var fields record.Object
	if err := fields.UnmarshalJSON([]byte(opts.Data)); err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --data JSON", err)
	}

	ctx := cmdContext(cmd)
	st, err := opts.openStore(ctx, f)
	if err != nil {
		return err
	}
	defer st.Close()

	added, err := store.AddKind(ctx, st, kind, fields)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreOp, fmt.Sprintf("failed to add %s record", kind), err)
	}

	result := AddResult{Kind: kind, Record: added.Flat()}
	return f.Success(result, func(w io.Writer) {
		writeRecord(w, result.Record)
	})
}
