// Package disaster holds the global operational policy flag. While a region
// is in disaster mode, proximity search widens its radius, donation
// cooldowns are suspended, and all requests rank as high urgency. The flag
// has exactly one write path (SetActive) and is read through the store on
// every query so a flip is observed by the next call.
package disaster

import (
	"context"
	"log/slog"

	"bloodlink/internal/domain"
	"bloodlink/internal/events"
	"bloodlink/pkg/requestcontext"
)

// Service is the policy controller injected into matching and the
// acceptance state machine.
type Service struct {
	store        Store
	logger       *slog.Logger
	publisher    *events.Publisher
	metrics      *Metrics
	baseRadiusKm float64
	wideRadiusKm float64
}

func NewService(store Store, logger *slog.Logger, publisher *events.Publisher, metrics *Metrics, baseRadiusKm, wideRadiusKm float64) *Service {
	return &Service{
		store:        store,
		logger:       logger,
		publisher:    publisher,
		metrics:      metrics,
		baseRadiusKm: baseRadiusKm,
		wideRadiusKm: wideRadiusKm,
	}
}

// IsActive reports whether region is currently in disaster mode.
func (s *Service) IsActive(ctx context.Context, region string) (bool, error) {
	state, _, err := s.store.Get(ctx, region)
	if err != nil {
		return false, err
	}
	return state.Active, nil
}

// State returns the full state record for region.
func (s *Service) State(ctx context.Context, region string) (domain.DisasterModeState, error) {
	state, _, err := s.store.Get(ctx, region)
	return state, err
}

// SetActive flips the flag for region and returns the previous value. It is
// the only write path; audit and notification fan-out happen through the
// emitted event, not here.
func (s *Service) SetActive(ctx context.Context, region string, active bool, actor string) (bool, error) {
	now := requestcontext.Now(ctx)
	previous, err := s.store.Set(ctx, domain.DisasterModeState{
		Region:      region,
		Active:      active,
		ActivatedAt: now,
		ActivatedBy: actor,
	})
	if err != nil {
		return false, err
	}
	if previous.Active != active {
		s.logger.Info("disaster mode changed",
			"region", region,
			"active", active,
			"actor", actor,
		)
		s.metrics.IncrementToggle(region, active)
		s.publisher.Emit(domain.Event{
			Type:      domain.EventDisasterModeChanged,
			Region:    region,
			Timestamp: now,
		})
	}
	return previous.Active, nil
}

// EffectiveRadiusKm resolves the search radius for region at query time.
func (s *Service) EffectiveRadiusKm(ctx context.Context, region string) (float64, error) {
	active, err := s.IsActive(ctx, region)
	if err != nil {
		return 0, err
	}
	if active {
		return s.wideRadiusKm, nil
	}
	return s.baseRadiusKm, nil
}
