package inventory

import (
	"context"

	"bloodlink/internal/domain"
)

// Store persists per-bank blood stock. Debit is the hard atomicity boundary
// for allocation: validation against current stock and the multi-bucket
// decrement happen as one unit, so concurrent fulfillments against the same
// bank can never jointly overdraw a type. A rejected Debit leaves the ledger
// unmodified.
type Store interface {
	// GetLedger returns the unit count per blood type for a bank. Types with
	// no stock may be absent from the map.
	GetLedger(ctx context.Context, bankID string) (map[domain.BloodType]int, error)

	// SetStock replaces the stock level for one blood type at a bank.
	SetStock(ctx context.Context, bankID string, bloodType domain.BloodType, units int) error

	// Debit decrements every bucket in breakdown atomically, failing with
	// CodeConflict if any bucket has fewer units than requested.
	Debit(ctx context.Context, bankID string, breakdown map[domain.BloodType]int) error

	// Credit returns units to every bucket in breakdown atomically. It is
	// the compensating write for a debit whose fulfillment did not land.
	Credit(ctx context.Context, bankID string, breakdown map[domain.BloodType]int) error
}
