package cli

import (
	"fmt"
	"io"

	"github.com/roach88/sealstore/internal/record"
)

// writeRecord prints a flat record as one line of canonical JSON.
func writeRecord(w io.Writer, flat record.Object) {
	data, err := record.MarshalCanonical(flat)
	if err != nil {
		fmt.Fprintf(w, "<unprintable record: %v>\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// parseKind parses a kind argument, reporting failures through f.
func parseKind(f *OutputFormatter, arg string) (record.Kind, error) {
	kind, err := record.ParseKind(arg)
	if err != nil {
		return "", f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid record kind", err)
	}
	return kind, nil
}

// requireInsertable rejects kinds that have no list or add operation.
func requireInsertable(f *OutputFormatter, kind record.Kind, verb string) error {
	if kind.Insertable() {
		return nil
	}
	return f.Fail(ExitCommandError, ErrCodeNotListable,
		fmt.Sprintf("%s records cannot be %s; look them up with: sealstore escrow <id>", kind, verb), nil)
}
