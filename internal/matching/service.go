// Package matching selects and ranks candidates around a location: eligible
// donors for a hospital request, and open requests for a donor's feed. It is
// where compatibility, proximity, and the disaster policy meet.
package matching

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"bloodlink/internal/compat"
	"bloodlink/internal/disaster"
	"bloodlink/internal/domain"
	"bloodlink/internal/geo"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

// DefaultCooldown is how long after a completed donation a donor stays out
// of matching. Disaster mode suspends it.
const DefaultCooldown = 90 * 24 * time.Hour

// Kind selects which entity class a nearby query searches.
type Kind string

const (
	KindDonor    Kind = "donor"
	KindHospital Kind = "hospital"
	KindBank     Kind = "bank"
)

// DonorSource lists donors for candidate selection.
type DonorSource interface {
	ListDonors(ctx context.Context) ([]domain.Donor, error)
}

// RequestSource lists open requests for the donor-facing feed.
type RequestSource interface {
	ListOpenRequests(ctx context.Context) ([]domain.Request, error)
}

// Directory resolves hospital and bank locations. Facility records live with
// an external collaborator; only id and coordinates reach this core.
type Directory interface {
	List(ctx context.Context, kind Kind) ([]geo.Candidate, error)
}

// RankedDonor is a donor eligible for a request, with its distance.
type RankedDonor struct {
	DonorID    string           `json:"donor_id"`
	BloodType  domain.BloodType `json:"blood_type"`
	DistanceKm float64          `json:"distance_km"`
}

// RankedRequest is an open request ranked for a donor's feed.
type RankedRequest struct {
	Request    domain.Request `json:"request"`
	DistanceKm float64        `json:"distance_km"`
}

// Service runs proximity-scoped matching queries.
type Service struct {
	donors    DonorSource
	requests  RequestSource
	directory Directory
	disaster  *disaster.Service
	logger    *slog.Logger
	cooldown  time.Duration
}

func NewService(donors DonorSource, requests RequestSource, directory Directory, disasterSvc *disaster.Service, logger *slog.Logger) *Service {
	return &Service{
		donors:    donors,
		requests:  requests,
		directory: directory,
		disaster:  disasterSvc,
		logger:    logger,
		cooldown:  DefaultCooldown,
	}
}

// WithCooldown overrides the eligibility cooldown.
func (s *Service) WithCooldown(d time.Duration) *Service {
	s.cooldown = d
	return s
}

// RankDonors returns donors who could fulfill the request, nearest first.
// A donor qualifies when their type can satisfy the request's type, they
// hold no active acceptance, they are past the donation cooldown (waived in
// disaster mode), and they are inside the effective radius.
func (s *Service) RankDonors(ctx context.Context, req domain.Request, region string) ([]RankedDonor, error) {
	// Both policy reads happen at query time so a mode flip is observed by
	// the next call.
	active, err := s.disaster.IsActive(ctx, region)
	if err != nil {
		return nil, err
	}
	radius, err := s.disaster.EffectiveRadiusKm(ctx, region)
	if err != nil {
		return nil, err
	}

	donors, err := s.donors.ListDonors(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	byID := make(map[string]domain.Donor, len(donors))
	candidates := make([]geo.Candidate, 0, len(donors))
	for _, d := range donors {
		if !compat.IsCompatible(d.BloodType, req.BloodType) {
			continue
		}
		if d.ActiveResponseID != nil {
			continue
		}
		if !active && !d.EligibleAt(now, s.cooldown) {
			continue
		}
		byID[d.ID] = d
		candidates = append(candidates, geo.Candidate{ID: d.ID, Location: d.Location})
	}

	matches := geo.Nearby(req.Location, candidates, radius)
	ranked := make([]RankedDonor, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, RankedDonor{
			DonorID:    m.ID,
			BloodType:  byID[m.ID].BloodType,
			DistanceKm: m.DistanceKm,
		})
	}
	return ranked, nil
}

// RankRequestsForDonor builds a donor's feed: open requests the donor could
// satisfy, inside the effective radius of the donor's location, most urgent
// first and nearest within equal urgency. Disaster mode ranks everything as
// high urgency.
func (s *Service) RankRequestsForDonor(ctx context.Context, donor domain.Donor, region string) ([]RankedRequest, error) {
	if donor.Location == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "donor has no location")
	}
	active, err := s.disaster.IsActive(ctx, region)
	if err != nil {
		return nil, err
	}
	radius, err := s.disaster.EffectiveRadiusKm(ctx, region)
	if err != nil {
		return nil, err
	}

	open, err := s.requests.ListOpenRequests(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Request, len(open))
	candidates := make([]geo.Candidate, 0, len(open))
	for _, req := range open {
		if !compat.IsCompatible(donor.BloodType, req.BloodType) {
			continue
		}
		loc := req.Location
		byID[req.ID] = req
		candidates = append(candidates, geo.Candidate{ID: req.ID, Location: &loc})
	}

	matches := geo.Nearby(*donor.Location, candidates, radius)
	feed := make([]RankedRequest, 0, len(matches))
	for _, m := range matches {
		feed = append(feed, RankedRequest{Request: byID[m.ID], DistanceKm: m.DistanceKm})
	}
	sort.SliceStable(feed, func(i, j int) bool {
		ri, rj := feed[i].Request.Urgency.Rank(), feed[j].Request.Urgency.Rank()
		if active {
			// Escalate for ranking only; stored urgency is untouched.
			ri, rj = domain.UrgencyHigh.Rank(), domain.UrgencyHigh.Rank()
		}
		if ri != rj {
			return ri > rj
		}
		return feed[i].DistanceKm < feed[j].DistanceKm
	})
	return feed, nil
}

// QueryNearby serves ad-hoc proximity lookups. radiusOverride <= 0 means use
// the effective radius for the region.
func (s *Service) QueryNearby(ctx context.Context, origin domain.Coordinate, kind Kind, radiusOverride float64, region string) ([]geo.Match, error) {
	radius := radiusOverride
	if radius <= 0 {
		var err error
		radius, err = s.disaster.EffectiveRadiusKm(ctx, region)
		if err != nil {
			return nil, err
		}
	}

	var candidates []geo.Candidate
	switch kind {
	case KindDonor:
		donors, err := s.donors.ListDonors(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range donors {
			candidates = append(candidates, geo.Candidate{ID: d.ID, Location: d.Location})
		}
	case KindHospital, KindBank:
		var err error
		candidates, err = s.directory.List(ctx, kind)
		if err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown kind %q", kind)
	}

	return geo.Nearby(origin, candidates, radius), nil
}
