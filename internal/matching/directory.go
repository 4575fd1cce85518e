package matching

import (
	"context"
	"sync"

	"bloodlink/internal/geo"
)

// InMemoryDirectory holds facility coordinates registered at startup from
// the facility collaborator's records.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	facilities map[Kind][]geo.Candidate
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{facilities: make(map[Kind][]geo.Candidate)}
}

// Register adds a facility under a kind.
func (d *InMemoryDirectory) Register(kind Kind, candidate geo.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facilities[kind] = append(d.facilities[kind], candidate)
}

func (d *InMemoryDirectory) List(_ context.Context, kind Kind) ([]geo.Candidate, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]geo.Candidate(nil), d.facilities[kind]...), nil
}
