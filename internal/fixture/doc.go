// Package fixture loads seed documents that pre-populate a record store.
//
// A seed lists escrows, which can only enter a store at construction, and
// optionally commitments, sealed orders and audit events, which are added
// through the store's public Add operations:
//
//	escrows:       [{id: esc-1, amount: 500, state: held}]
//	commitments:   [{amount: 100}]
//	sealed_orders: [{side: buy, digest: ab12}]
//	audit_events:  [{action: commit}]
//
// Seeds may be written as YAML, JSON or CUE. The format is chosen by file
// extension.
package fixture
