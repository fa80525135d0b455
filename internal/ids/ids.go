package ids

import "github.com/google/uuid"

// Generator produces unique identifiers for images and orders. Handlers take
// it as a dependency so tests can substitute a deterministic source.
type Generator interface {
	NewID() string
}

// UUID generates random (v4) identifiers backed by crypto/rand.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}
