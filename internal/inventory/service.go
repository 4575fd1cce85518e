// Package inventory implements the allocation solver. A bank operator
// chooses a per-type breakdown to meet a request; the service validates it
// against the compatibility rules and current stock, debits all buckets as
// one atomic unit, and moves the request to fulfilled.
package inventory

import (
	"context"
	"log/slog"
	"sort"

	"bloodlink/internal/compat"
	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// RequestCoordinator is the slice of the request service the solver needs.
type RequestCoordinator interface {
	Get(ctx context.Context, id string) (domain.Request, error)
	MarkFulfilled(ctx context.Context, id string) error
}

// AllocationLine is one (type, units) draw reported back to the caller.
type AllocationLine struct {
	BloodType domain.BloodType `json:"blood_type"`
	Units     int              `json:"units"`
}

// Service validates and commits allocations.
type Service struct {
	store    Store
	requests RequestCoordinator
	logger   *slog.Logger
	metrics  *Metrics
}

func NewService(store Store, requests RequestCoordinator, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{store: store, requests: requests, logger: logger, metrics: metrics}
}

// Allocate validates breakdown against the requested type and the bank's
// current stock, then debits every chosen bucket atomically. On any
// rejection the ledger is untouched and the error says which rule failed.
func (s *Service) Allocate(ctx context.Context, bankID string, requestedType domain.BloodType, unitsNeeded int, breakdown map[domain.BloodType]int) ([]AllocationLine, error) {
	if len(breakdown) == 0 {
		s.metrics.IncrementAllocation("validation")
		return nil, dErrors.New(dErrors.CodeValidation, "breakdown is empty")
	}

	total := 0
	for bt, units := range breakdown {
		if units <= 0 {
			s.metrics.IncrementAllocation("validation")
			return nil, dErrors.Newf(dErrors.CodeValidation, "breakdown units for %s must be positive", bt)
		}
		if !compat.IsCompatible(bt, requestedType) {
			s.metrics.IncrementAllocation("incompatible")
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"incompatible type: %s cannot satisfy %s", bt, requestedType)
		}
		total += units
	}
	if total != unitsNeeded {
		s.metrics.IncrementAllocation("wrong_total")
		return nil, dErrors.Newf(dErrors.CodeConflict,
			"breakdown totals %d units, request needs %d", total, unitsNeeded)
	}

	ledger, err := s.store.GetLedger(ctx, bankID)
	if err != nil {
		return nil, err
	}
	// Total compatible stock below the requirement is a different failure
	// from a fixable breakdown: nothing the operator types can satisfy the
	// request right now.
	compatibleStock := 0
	for _, bt := range compat.CompatibleDonors(requestedType) {
		compatibleStock += ledger[bt]
	}
	if compatibleStock < unitsNeeded {
		s.metrics.IncrementAllocation("exhausted")
		return nil, dErrors.Newf(dErrors.CodeResourceExhausted,
			"bank holds %d compatible units, request needs %d", compatibleStock, unitsNeeded)
	}
	for bt, units := range breakdown {
		if ledger[bt] < units {
			s.metrics.IncrementAllocation("insufficient")
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"insufficient stock of %s: have %d, need %d", bt, ledger[bt], units)
		}
	}

	// The store re-validates under its own lock; a concurrent allocation
	// that drained a bucket between our read and this call loses here with
	// the ledger unmodified.
	if err := s.store.Debit(ctx, bankID, breakdown); err != nil {
		s.metrics.IncrementAllocation("insufficient")
		return nil, err
	}

	lines := make([]AllocationLine, 0, len(breakdown))
	for bt, units := range breakdown {
		lines = append(lines, AllocationLine{BloodType: bt, Units: units})
	}
	sortLines(lines, requestedType)

	s.metrics.IncrementAllocation("ok")
	s.logger.Info("allocation committed",
		"bank_id", bankID,
		"requested_type", requestedType,
		"units", unitsNeeded,
	)
	return lines, nil
}

// Fulfill allocates stock against a request and moves it to fulfilled.
// Replaying a fulfillment fails on the terminal-state check before any
// stock is touched, so a retry can never double-debit. When the request
// turns terminal after the debit, the draw is credited back.
func (s *Service) Fulfill(ctx context.Context, bankID, requestID string, breakdown map[domain.BloodType]int) ([]AllocationLine, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "request is %s", req.Status)
	}

	lines, err := s.Allocate(ctx, bankID, req.BloodType, req.UnitsNeeded, breakdown)
	if err != nil {
		return nil, err
	}
	if err := s.requests.MarkFulfilled(ctx, requestID); err != nil {
		// The request reached a terminal state between our check and this
		// call (e.g. a hospital cancel won the race). Return the drawn
		// units so the rejection leaves the ledger as it found it.
		if creditErr := s.store.Credit(ctx, bankID, breakdown); creditErr != nil {
			s.logger.Error("credit after failed fulfillment",
				"bank_id", bankID,
				"request_id", requestID,
				"error", creditErr,
			)
		}
		return nil, err
	}
	return lines, nil
}

// sortLines orders the report in allocation-priority order so operators see
// the exact match first and O- second.
func sortLines(lines []AllocationLine, requestedType domain.BloodType) {
	rank := make(map[domain.BloodType]int)
	for i, bt := range compat.AllocationOrder(requestedType) {
		rank[bt] = i
	}
	sort.Slice(lines, func(i, j int) bool {
		return rank[lines[i].BloodType] < rank[lines[j].BloodType]
	})
}
