package journal

import "github.com/google/uuid"

// UUIDv7Generator generates time-sortable UUIDv7 entry ids.
//
// Format: "0190b6a2-6f1e-7c3a-9d55-2f0c1e4b8a77" (36 characters)
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
