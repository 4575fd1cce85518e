package request

import (
	"context"
	"sync"
	"time"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// InMemoryStore keeps all records under one mutex, which makes every method
// trivially atomic. Suited to tests and single-instance deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	requests  map[string]domain.Request
	responses map[string]domain.Response
	donors    map[string]domain.Donor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:  make(map[string]domain.Request),
		responses: make(map[string]domain.Response),
		donors:    make(map[string]domain.Donor),
	}
}

func (s *InMemoryStore) CreateRequest(_ context.Context, req domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "request %s already exists", req.ID)
	}
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryStore) GetRequest(_ context.Context, id string) (domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return domain.Request{}, dErrors.Newf(dErrors.CodeNotFound, "request %s not found", id)
	}
	return req, nil
}

func (s *InMemoryStore) ListOpenRequests(_ context.Context) ([]domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []domain.Request
	for _, req := range s.requests {
		if req.Status == domain.RequestOpen {
			open = append(open, req)
		}
	}
	return open, nil
}

func (s *InMemoryStore) UpsertDonor(_ context.Context, donor domain.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[donor.ID] = donor
	return nil
}

func (s *InMemoryStore) GetDonor(_ context.Context, id string) (domain.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donor, ok := s.donors[id]
	if !ok {
		return domain.Donor{}, dErrors.Newf(dErrors.CodeNotFound, "donor %s not found", id)
	}
	return donor, nil
}

func (s *InMemoryStore) ListDonors(_ context.Context) ([]domain.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donors := make([]domain.Donor, 0, len(s.donors))
	for _, d := range s.donors {
		donors = append(donors, d)
	}
	return donors, nil
}

func (s *InMemoryStore) GetResponse(_ context.Context, id string) (domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[id]
	if !ok {
		return domain.Response{}, dErrors.Newf(dErrors.CodeNotFound, "response %s not found", id)
	}
	return resp, nil
}

func (s *InMemoryStore) ListResponsesByRequest(_ context.Context, requestID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Response
	for _, resp := range s.responses {
		if resp.RequestID == requestID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) BindAcceptance(_ context.Context, resp domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	donor, ok := s.donors[resp.DonorID]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "donor %s not found", resp.DonorID)
	}
	// The compare-and-set: verify-null and both writes happen under the
	// same lock, so concurrent accepts by one donor cannot both pass.
	if donor.ActiveResponseID != nil {
		return dErrors.New(dErrors.CodeConflict, "donor already has an active acceptance")
	}

	s.responses[resp.ID] = resp
	responseID := resp.ID
	donor.ActiveResponseID = &responseID
	s.donors[resp.DonorID] = donor
	return nil
}

func (s *InMemoryStore) ReleaseAcceptance(_ context.Context, donorID, responseID string, status domain.ResponseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.responses[responseID]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "response %s not found", responseID)
	}
	resp.Status = status
	s.responses[responseID] = resp

	if donor, ok := s.donors[donorID]; ok {
		if donor.ActiveResponseID != nil && *donor.ActiveResponseID == responseID {
			donor.ActiveResponseID = nil
			s.donors[donorID] = donor
		}
	}
	return nil
}

func (s *InMemoryStore) CancelRequestCascade(_ context.Context, requestID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cascadeLocked(requestID, domain.RequestCancelled, domain.ResponseDeclined, nil)
}

func (s *InMemoryStore) FulfillRequestCascade(_ context.Context, requestID string, donatedAt time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cascadeLocked(requestID, domain.RequestFulfilled, domain.ResponseCompleted, &donatedAt)
}

// cascadeLocked moves the request to a terminal state and resolves every
// acceptance still open on it. Caller must hold the write lock.
func (s *InMemoryStore) cascadeLocked(requestID string, reqStatus domain.RequestStatus, respStatus domain.ResponseStatus, donatedAt *time.Time) ([]string, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "request %s not found", requestID)
	}
	req.Status = reqStatus
	s.requests[requestID] = req

	var donorIDs []string
	for id, resp := range s.responses {
		if resp.RequestID != requestID || resp.Status != domain.ResponseAccepted {
			continue
		}
		resp.Status = respStatus
		s.responses[id] = resp
		donorIDs = append(donorIDs, resp.DonorID)

		donor, ok := s.donors[resp.DonorID]
		if !ok {
			continue
		}
		if donor.ActiveResponseID != nil && *donor.ActiveResponseID == id {
			donor.ActiveResponseID = nil
		}
		if donatedAt != nil {
			at := *donatedAt
			donor.LastDonatedAt = &at
		}
		s.donors[resp.DonorID] = donor
	}
	return donorIDs, nil
}
