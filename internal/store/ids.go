package store

import "github.com/google/uuid"

// IDGenerator produces record identifiers. Implementations must be safe for
// concurrent use and must not repeat an identifier.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs: 122 random bits, so
// collisions are negligible across any realistic run.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a new UUIDv4 string.
//
// Panics if the system random source fails, which should never happen in
// practice.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewRandom()).String()
}
