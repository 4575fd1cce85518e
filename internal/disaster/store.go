package disaster

import (
	"context"

	"bloodlink/internal/domain"
)

// Store persists per-region disaster mode state. Get must observe the most
// recent committed Set for the same region; implementations may not cache.
type Store interface {
	// Get returns the state for region. A region never toggled returns the
	// zero state (inactive) with ok=false.
	Get(ctx context.Context, region string) (domain.DisasterModeState, bool, error)
	// Set replaces the state for region and returns the previous one.
	Set(ctx context.Context, state domain.DisasterModeState) (domain.DisasterModeState, error)
}
