package disaster

import (
	"context"
	"sync"

	"bloodlink/internal/domain"
)

// InMemoryStore holds disaster state for a single-process deployment.
type InMemoryStore struct {
	mu      sync.RWMutex
	regions map[string]domain.DisasterModeState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{regions: make(map[string]domain.DisasterModeState)}
}

func (s *InMemoryStore) Get(_ context.Context, region string) (domain.DisasterModeState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.regions[region]
	return state, ok, nil
}

func (s *InMemoryStore) Set(_ context.Context, state domain.DisasterModeState) (domain.DisasterModeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.regions[state.Region]
	s.regions[state.Region] = state
	return previous, nil
}
