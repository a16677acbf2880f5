package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// backendFactories lists every backend constructor for conformance tests.
var backendFactories = []struct {
	name string
	open func(opts ...Option) (*RecordStore, error)
}{
	{BackendMemory, NewMemory},
	{BackendSQLite, NewSQLite},
	{BackendPebble, NewPebble},
}

// forEachBackend runs fn once per backend with a fresh-store constructor.
func forEachBackend(t *testing.T, fn func(t *testing.T, open func(opts ...Option) *RecordStore)) {
	t.Helper()
	for _, bf := range backendFactories {
		t.Run(bf.name, func(t *testing.T) {
			open := func(opts ...Option) *RecordStore {
				t.Helper()
				s, err := bf.open(opts...)
				require.NoError(t, err)
				t.Cleanup(func() { s.Close() })
				return s
			}
			fn(t, open)
		})
	}
}
