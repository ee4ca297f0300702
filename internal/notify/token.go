package notify

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UUIDv7Generator generates time-sortable UUIDv7 subscription tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so tokens sort
// by subscription time - convenient when debugging listener registration.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialGenerator returns "sub-1", "sub-2", ... for deterministic tests
// and golden trace comparison.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next token in the sequence.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("sub-%d", g.n)
}
