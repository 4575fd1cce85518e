package request

import (
	"context"
	"time"

	"bloodlink/internal/domain"
)

// Store persists requests, responses, and donors. Methods that move an
// acceptance are atomic: BindAcceptance is the compare-and-set that enforces
// the one-active-acceptance invariant, and the release/cascade methods clear
// donor pointers together with the response status they change. Every
// rejected call leaves the store untouched.
type Store interface {
	CreateRequest(ctx context.Context, req domain.Request) error
	GetRequest(ctx context.Context, id string) (domain.Request, error)
	ListOpenRequests(ctx context.Context) ([]domain.Request, error)

	UpsertDonor(ctx context.Context, donor domain.Donor) error
	GetDonor(ctx context.Context, id string) (domain.Donor, error)
	ListDonors(ctx context.Context) ([]domain.Donor, error)

	GetResponse(ctx context.Context, id string) (domain.Response, error)
	ListResponsesByRequest(ctx context.Context, requestID string) ([]domain.Response, error)

	// BindAcceptance creates resp and points its donor's ActiveResponseID at
	// it, failing with CodeConflict when the donor already holds an active
	// acceptance. The check and both writes are one atomic unit per donor.
	BindAcceptance(ctx context.Context, resp domain.Response) error

	// ReleaseAcceptance sets the response status and clears the donor's
	// ActiveResponseID if it points at responseID.
	ReleaseAcceptance(ctx context.Context, donorID, responseID string, status domain.ResponseStatus) error

	// CancelRequestCascade marks the request cancelled, declines every
	// response still in status accepted, and clears each affected donor's
	// pointer. Returns the donor ids whose acceptances were declined.
	CancelRequestCascade(ctx context.Context, requestID string) ([]string, error)

	// FulfillRequestCascade marks the request fulfilled, completes accepted
	// responses, clears donor pointers, and stamps each donor's
	// LastDonatedAt. Returns the donor ids whose acceptances completed.
	FulfillRequestCascade(ctx context.Context, requestID string, donatedAt time.Time) ([]string, error)
}
