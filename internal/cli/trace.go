package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sealstore/internal/harness"
	"github.com/roach88/sealstore/internal/record"
)

// TraceResult holds the trace of one scenario run.
type TraceResult struct {
	Scenario string               `json:"scenario"`
	Backend  string               `json:"backend"`
	Pass     bool                 `json:"pass"`
	Errors   []string             `json:"errors,omitempty"`
	Trace    []harness.TraceEvent `json:"trace"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <scenario-file>",
		Short: "Run one scenario and print every store operation it performed",
		Long: `Run one scenario and print its trace: one line per step with the
operation, the kind, the record id and the record returned.

Example:
  sealstore trace scenarios/add_and_list.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTrace(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "failed to load scenario", err)
	}
	if scenario.Backend == "" {
		scenario.Backend = opts.Backend
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreOp, "failed to run scenario", err)
	}

	out := TraceResult{
		Scenario: scenario.Name,
		Backend:  opts.backendName(scenario.Backend),
		Pass:     result.Pass,
		Errors:   result.Errors,
		Trace:    result.Trace,
	}
	if err := f.Success(out, func(w io.Writer) { writeTrace(w, out) }); err != nil {
		return err
	}
	if !result.Pass {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("scenario %s failed", scenario.Name), Reported: true}
	}
	return nil
}

// backendName resolves the backend name a scenario actually ran on.
func (o *RootOptions) backendName(backend string) string {
	if backend == "" {
		return o.storeConfig().Backend
	}
	return backend
}

func writeTrace(w io.Writer, out TraceResult) {
	fmt.Fprintf(w, "Scenario: %s (%s)\n\n", out.Scenario, out.Backend)
	for _, event := range out.Trace {
		fmt.Fprintf(w, "[%d] %-10s %-12s", event.Seq, event.Op, event.Kind)
		switch {
		case event.Error != "":
			fmt.Fprintf(w, " error: %s\n", event.Error)
		case event.Op == harness.OpList:
			fmt.Fprintf(w, " %d record(s)\n", event.Count)
		case event.Op == harness.OpGetEscrow && !event.Found:
			fmt.Fprintf(w, " %s not found\n", event.ID)
		default:
			fmt.Fprint(w, " ")
			writeRecord(w, nonNil(event.Record))
		}
	}

	fmt.Fprintln(w)
	if out.Pass {
		fmt.Fprintln(w, "✓ pass")
		return
	}
	fmt.Fprintln(w, "✗ fail")
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func nonNil(obj record.Object) record.Object {
	if obj == nil {
		return record.Object{}
	}
	return obj
}
