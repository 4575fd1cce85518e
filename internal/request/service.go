// Package request implements the request lifecycle and the donor acceptance
// state machine.
//
// A request moves Open -> Fulfilled or Open -> Cancelled. A donor's
// acceptance moves Accepted -> Cancelled (inside the grace window),
// Accepted -> Committed (window elapsed, computed, never stored), and
// Committed -> Fulfilled when the allocation service completes the request.
// At most one acceptance per donor is active at a time; the store's
// BindAcceptance enforces that atomically.
package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/compat"
	"bloodlink/internal/domain"
	"bloodlink/internal/events"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

// DefaultCancelWindow is the grace period after acceptance during which the
// donor may still withdraw unilaterally.
const DefaultCancelWindow = 5 * time.Minute

// Phase is the derived position of an acceptance in its lifecycle.
type Phase string

const (
	PhaseAccepted  Phase = "accepted"
	PhaseCommitted Phase = "committed"
)

// Service orchestrates request and acceptance transitions.
type Service struct {
	store        Store
	logger       *slog.Logger
	publisher    *events.Publisher
	metrics      *Metrics
	cancelWindow time.Duration
}

func NewService(store Store, logger *slog.Logger, publisher *events.Publisher, metrics *Metrics) *Service {
	return &Service{
		store:        store,
		logger:       logger,
		publisher:    publisher,
		metrics:      metrics,
		cancelWindow: DefaultCancelWindow,
	}
}

// WithCancelWindow overrides the grace period; used by tests and by
// deployments with a different operational policy.
func (s *Service) WithCancelWindow(d time.Duration) *Service {
	s.cancelWindow = d
	return s
}

// CreateParams is the inbound shape for a new hospital request.
type CreateParams struct {
	HospitalID  string
	BloodType   string
	UnitsNeeded int
	Urgency     string
	Location    domain.Coordinate
}

// Create validates and persists a new request.
func (s *Service) Create(ctx context.Context, p CreateParams) (domain.Request, error) {
	if p.HospitalID == "" {
		return domain.Request{}, dErrors.New(dErrors.CodeValidation, "hospital_id is required")
	}
	bloodType, err := domain.ParseBloodType(p.BloodType)
	if err != nil {
		return domain.Request{}, dErrors.Newf(dErrors.CodeValidation, "blood_type: %v", err)
	}
	if p.UnitsNeeded <= 0 {
		return domain.Request{}, dErrors.New(dErrors.CodeValidation, "units_needed must be positive")
	}
	urgency, ok := domain.ParseUrgency(p.Urgency)
	if !ok {
		return domain.Request{}, dErrors.Newf(dErrors.CodeValidation, "unknown urgency %q", p.Urgency)
	}

	req := domain.Request{
		ID:          uuid.NewString(),
		HospitalID:  p.HospitalID,
		BloodType:   bloodType,
		UnitsNeeded: p.UnitsNeeded,
		Urgency:     urgency,
		Location:    p.Location,
		Status:      domain.RequestOpen,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return domain.Request{}, err
	}
	s.publisher.Emit(domain.Event{
		Type:      domain.EventRequestCreated,
		RequestID: req.ID,
		Timestamp: req.CreatedAt,
	})
	return req, nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Request, error) {
	return s.store.GetRequest(ctx, id)
}

// Donor returns a donor by id.
func (s *Service) Donor(ctx context.Context, id string) (domain.Donor, error) {
	return s.store.GetDonor(ctx, id)
}

// RegisterDonor validates and stores a donor record supplied by the
// registration collaborator.
func (s *Service) RegisterDonor(ctx context.Context, donor domain.Donor) error {
	if donor.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "donor id is required")
	}
	if _, err := domain.ParseBloodType(string(donor.BloodType)); err != nil {
		return dErrors.Newf(dErrors.CodeValidation, "blood_type: %v", err)
	}
	return s.store.UpsertDonor(ctx, donor)
}

// Accept transitions a request to Accepted for one donor. Preconditions:
// the request is not terminal, the donor holds no other active acceptance,
// and the donor's type can satisfy the request's type.
func (s *Service) Accept(ctx context.Context, requestID, donorID string) (domain.Response, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		s.metrics.IncrementAccept("not_found")
		return domain.Response{}, err
	}
	if req.Status.Terminal() {
		s.metrics.IncrementAccept("conflict")
		return domain.Response{}, dErrors.Newf(dErrors.CodeConflict, "request is %s", req.Status)
	}

	donor, err := s.store.GetDonor(ctx, donorID)
	if err != nil {
		s.metrics.IncrementAccept("not_found")
		return domain.Response{}, err
	}
	if !compat.IsCompatible(donor.BloodType, req.BloodType) {
		s.metrics.IncrementAccept("incompatible")
		return domain.Response{}, dErrors.Newf(dErrors.CodeConflict,
			"donor type %s cannot satisfy request type %s", donor.BloodType, req.BloodType)
	}

	resp := domain.Response{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		DonorID:    donorID,
		Status:     domain.ResponseAccepted,
		AcceptedAt: requestcontext.Now(ctx),
	}
	// BindAcceptance re-checks the active pointer under the store's own
	// atomicity, so a double submission loses here even if both passed the
	// reads above.
	if err := s.store.BindAcceptance(ctx, resp); err != nil {
		s.metrics.IncrementAccept("conflict")
		return domain.Response{}, err
	}

	s.metrics.IncrementAccept("ok")
	s.logger.Info("acceptance created",
		"request_id", requestID,
		"donor_id", donorID,
		"response_id", resp.ID,
	)
	s.publisher.Emit(domain.Event{
		Type:      domain.EventAcceptanceCreated,
		RequestID: requestID,
		DonorID:   donorID,
		Timestamp: resp.AcceptedAt,
	})
	return resp, nil
}

// PhaseOf derives where an acceptance sits in its lifecycle at the given
// instant. There is no stored Committed state and no timer; the window is a
// predicate over AcceptedAt.
func (s *Service) PhaseOf(resp domain.Response, now time.Time) Phase {
	if now.Sub(resp.AcceptedAt) > s.cancelWindow {
		return PhaseCommitted
	}
	return PhaseAccepted
}

// CancelAcceptance lets a donor withdraw inside the grace window. Disaster
// mode suspends donation cooldowns, not this window: a committed acceptance
// stays committed. The request remains open for other donors.
func (s *Service) CancelAcceptance(ctx context.Context, requestID, donorID string) error {
	donor, err := s.store.GetDonor(ctx, donorID)
	if err != nil {
		s.metrics.IncrementCancel("not_found")
		return err
	}
	if donor.ActiveResponseID == nil {
		s.metrics.IncrementCancel("not_found")
		return dErrors.New(dErrors.CodeConflict, "donor has no active acceptance")
	}
	resp, err := s.store.GetResponse(ctx, *donor.ActiveResponseID)
	if err != nil {
		s.metrics.IncrementCancel("not_found")
		return err
	}
	if resp.RequestID != requestID {
		s.metrics.IncrementCancel("not_found")
		return dErrors.Newf(dErrors.CodeConflict, "active acceptance is for request %s", resp.RequestID)
	}

	// Evaluated against the trusted clock on every attempt; a countdown a
	// client rendered earlier has no bearing here.
	now := requestcontext.Now(ctx)
	if s.PhaseOf(resp, now) == PhaseCommitted {
		s.metrics.IncrementCancel("window_expired")
		return dErrors.New(dErrors.CodeConflict, "cancellation window has expired")
	}

	if err := s.store.ReleaseAcceptance(ctx, donorID, resp.ID, domain.ResponseDeclined); err != nil {
		return err
	}
	s.metrics.IncrementCancel("ok")
	s.logger.Info("acceptance cancelled by donor",
		"request_id", requestID,
		"donor_id", donorID,
	)
	s.publisher.Emit(domain.Event{
		Type:      domain.EventAcceptanceCancelled,
		RequestID: requestID,
		DonorID:   donorID,
		Timestamp: now,
	})
	return nil
}

// CancelRequest lets the owning hospital withdraw its request before
// fulfillment. Every acceptance still open on it is declined and each
// affected donor becomes free to accept elsewhere.
func (s *Service) CancelRequest(ctx context.Context, requestID, hospitalID string) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.HospitalID != hospitalID {
		return dErrors.New(dErrors.CodeValidation, "request does not belong to this hospital")
	}
	if req.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeConflict, "request is %s", req.Status)
	}

	donorIDs, err := s.store.CancelRequestCascade(ctx, requestID)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	s.logger.Info("request cancelled by hospital",
		"request_id", requestID,
		"declined_acceptances", len(donorIDs),
	)
	s.publisher.Emit(domain.Event{
		Type:      domain.EventRequestCancelled,
		RequestID: requestID,
		Timestamp: now,
	})
	for _, donorID := range donorIDs {
		s.publisher.Emit(domain.Event{
			Type:      domain.EventAcceptanceCancelled,
			RequestID: requestID,
			DonorID:   donorID,
			Timestamp: now,
		})
	}
	return nil
}

// MarkFulfilled moves the request to its fulfilled terminal state after the
// allocation service has committed stock. Accepted responses complete, donor
// pointers clear, and each donor's cooldown clock restarts.
func (s *Service) MarkFulfilled(ctx context.Context, requestID string) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeConflict, "request is %s", req.Status)
	}

	now := requestcontext.Now(ctx)
	donorIDs, err := s.store.FulfillRequestCascade(ctx, requestID, now)
	if err != nil {
		return err
	}
	s.logger.Info("request fulfilled",
		"request_id", requestID,
		"completed_acceptances", len(donorIDs),
	)
	s.publisher.Emit(domain.Event{
		Type:      domain.EventRequestFulfilled,
		RequestID: requestID,
		Timestamp: now,
	})
	return nil
}
