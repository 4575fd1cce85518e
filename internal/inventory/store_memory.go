package inventory

import (
	"context"
	"sync"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// InMemoryStore keeps ledgers under one mutex so a debit's validate-then-
// decrement is naturally atomic.
type InMemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string]map[domain.BloodType]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{ledgers: make(map[string]map[domain.BloodType]int)}
}

func (s *InMemoryStore) GetLedger(_ context.Context, bankID string) (map[domain.BloodType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger := make(map[domain.BloodType]int, len(s.ledgers[bankID]))
	for bt, units := range s.ledgers[bankID] {
		ledger[bt] = units
	}
	return ledger, nil
}

func (s *InMemoryStore) SetStock(_ context.Context, bankID string, bloodType domain.BloodType, units int) error {
	if units < 0 {
		return dErrors.New(dErrors.CodeValidation, "units must be non-negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledgers[bankID] == nil {
		s.ledgers[bankID] = make(map[domain.BloodType]int)
	}
	s.ledgers[bankID][bloodType] = units
	return nil
}

func (s *InMemoryStore) Debit(_ context.Context, bankID string, breakdown map[domain.BloodType]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := s.ledgers[bankID]
	for bt, units := range breakdown {
		if ledger[bt] < units {
			return dErrors.Newf(dErrors.CodeConflict,
				"insufficient stock of %s: have %d, need %d", bt, ledger[bt], units)
		}
	}
	for bt, units := range breakdown {
		ledger[bt] -= units
	}
	return nil
}

func (s *InMemoryStore) Credit(_ context.Context, bankID string, breakdown map[domain.BloodType]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledgers[bankID] == nil {
		s.ledgers[bankID] = make(map[domain.BloodType]int)
	}
	for bt, units := range breakdown {
		s.ledgers[bankID][bt] += units
	}
	return nil
}
