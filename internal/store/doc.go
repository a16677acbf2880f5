// Package store provides the sealstore record store: four independent,
// non-persistent collections of opaque records.
//
// Collections:
//   - Commitments: list, add
//   - Sealed orders: list, add
//   - Audit events: list, add
//   - Escrows: get by id only (populated at construction with WithEscrows)
//
// # Guarantees
//
//   - Add assigns a fresh identifier (random UUIDv4 by default) and never
//     reuses one; an "id" key in the payload is dropped
//   - List returns records in insertion order, as an empty non-nil slice
//     when the collection is empty
//   - GetEscrow reports absence with found=false, never with an error
//   - Every record handed in or out is deep copied
//   - Each collection has its own lock; operations on one collection never
//     wait on another
//
// # Backends
//
// All backends keep data in process memory and lose it on Close:
//
//   - memory: ordered slice plus id index per collection (default)
//   - sqlite: github.com/mattn/go-sqlite3 on a private :memory: database
//   - pebble: github.com/cockroachdb/pebble on an in-memory VFS
//
// Choose one with Config.Backend and Open, or call NewMemory, NewSQLite or
// NewPebble directly. There is no package-level instance; the composing
// application owns the store's lifecycle.
package store
