package matching

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/disaster"
	"bloodlink/internal/domain"
	"bloodlink/internal/events"
	"bloodlink/internal/geo"
	"bloodlink/internal/request"
	"bloodlink/pkg/requestcontext"
)

// Degrees of latitude are ~111 km each; offsets below are chosen relative
// to the 15 km base radius and 30 km disaster radius.
func at(latOffset float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: latOffset, Lng: 0}
}

func newTestHarness(t *testing.T) (*Service, *request.InMemoryStore, *disaster.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := request.NewInMemoryStore()
	disasterSvc := disaster.NewService(disaster.NewInMemoryStore(), logger, events.NewPublisher(16, logger), nil, 15, 30)
	svc := NewService(store, store, NewInMemoryDirectory(), disasterSvc, logger)
	return svc, store, disasterSvc
}

func seedDonor(t *testing.T, store *request.InMemoryStore, d domain.Donor) {
	t.Helper()
	require.NoError(t, store.UpsertDonor(context.Background(), d))
}

func TestRankDonorsFiltersAndOrders(t *testing.T) {
	svc, store, _ := newTestHarness(t)
	ctx := context.Background()

	activeID := "resp-1"
	seedDonor(t, store, domain.Donor{ID: "near-compatible", BloodType: domain.ONeg, Location: at(0.05)})
	seedDonor(t, store, domain.Donor{ID: "nearer-compatible", BloodType: domain.APos, Location: at(0.02)})
	seedDonor(t, store, domain.Donor{ID: "incompatible", BloodType: domain.BPos, Location: at(0.01)})
	seedDonor(t, store, domain.Donor{ID: "busy", BloodType: domain.ONeg, Location: at(0.01), ActiveResponseID: &activeID})
	seedDonor(t, store, domain.Donor{ID: "no-location", BloodType: domain.ONeg})
	seedDonor(t, store, domain.Donor{ID: "too-far", BloodType: domain.ONeg, Location: at(1.0)})

	req := domain.Request{ID: "req-1", BloodType: domain.APos, Location: domain.Coordinate{}}
	ranked, err := svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "nearer-compatible", ranked[0].DonorID)
	assert.Equal(t, "near-compatible", ranked[1].DonorID)
	assert.Less(t, ranked[0].DistanceKm, ranked[1].DistanceKm)
}

func TestRankDonorsCooldownSuspendedInDisasterMode(t *testing.T) {
	svc, store, disasterSvc := newTestHarness(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	recent := now.Add(-10 * 24 * time.Hour) // inside the 90-day cooldown
	seedDonor(t, store, domain.Donor{ID: "cooling-down", BloodType: domain.ONeg, Location: at(0.02), LastDonatedAt: &recent})

	req := domain.Request{ID: "req-1", BloodType: domain.APos, Location: domain.Coordinate{}}

	ranked, err := svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)
	assert.Empty(t, ranked, "cooldown filters the donor out")

	_, err = disasterSvc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)

	ranked, err = svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)
	require.Len(t, ranked, 1, "disaster mode suspends the cooldown")
	assert.Equal(t, "cooling-down", ranked[0].DonorID)
}

func TestRankDonorsRadiusWidensInDisasterMode(t *testing.T) {
	svc, store, disasterSvc := newTestHarness(t)
	ctx := context.Background()

	// ~22 km out: outside the 15 km base radius, inside the 30 km one.
	seedDonor(t, store, domain.Donor{ID: "donor-1", BloodType: domain.OPos, Location: at(0.2)})
	req := domain.Request{ID: "req-1", BloodType: domain.APos, Location: domain.Coordinate{}}

	ranked, err := svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)
	assert.Empty(t, ranked)

	_, err = disasterSvc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)

	ranked, err = svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)
	require.Len(t, ranked, 1, "widened radius read at query time")

	// Flip back: the very next query narrows again.
	_, err = disasterSvc.SetActive(ctx, "north", false, "admin-1")
	require.NoError(t, err)
	ranked, err = svc.RankDonors(ctx, req, "north")
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankRequestsForDonorOrdersByUrgencyThenDistance(t *testing.T) {
	svc, store, disasterSvc := newTestHarness(t)
	ctx := context.Background()

	mk := func(id string, urgency domain.Urgency, latOffset float64) {
		require.NoError(t, store.CreateRequest(ctx, domain.Request{
			ID:        id,
			BloodType: domain.APos,
			Urgency:   urgency,
			Location:  domain.Coordinate{Lat: latOffset},
			Status:    domain.RequestOpen,
		}))
	}
	mk("low-near", domain.UrgencyLow, 0.01)
	mk("high-far", domain.UrgencyHigh, 0.08)
	mk("medium-near", domain.UrgencyMedium, 0.02)

	donor := domain.Donor{ID: "donor-1", BloodType: domain.ONeg, Location: at(0)}

	feed, err := svc.RankRequestsForDonor(ctx, donor, "north")
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "high-far", feed[0].Request.ID)
	assert.Equal(t, "medium-near", feed[1].Request.ID)
	assert.Equal(t, "low-near", feed[2].Request.ID)

	// Disaster mode flattens urgency, so distance decides.
	_, err = disasterSvc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)
	feed, err = svc.RankRequestsForDonor(ctx, donor, "north")
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "low-near", feed[0].Request.ID)
	assert.Equal(t, "medium-near", feed[1].Request.ID)
	assert.Equal(t, "high-far", feed[2].Request.ID)
}

func TestQueryNearbyKinds(t *testing.T) {
	svc, store, _ := newTestHarness(t)
	ctx := context.Background()

	seedDonor(t, store, domain.Donor{ID: "donor-1", BloodType: domain.OPos, Location: at(0.02)})
	directory := NewInMemoryDirectory()
	directory.Register(KindHospital, geo.Candidate{ID: "hospital-1", Location: at(0.03)})
	directory.Register(KindBank, geo.Candidate{ID: "bank-1", Location: at(0.04)})
	svc.directory = directory

	origin := domain.Coordinate{}

	matches, err := svc.QueryNearby(ctx, origin, KindDonor, 0, "north")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "donor-1", matches[0].ID)

	matches, err = svc.QueryNearby(ctx, origin, KindHospital, 0, "north")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "hospital-1", matches[0].ID)

	matches, err = svc.QueryNearby(ctx, origin, KindBank, 0, "north")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	_, err = svc.QueryNearby(ctx, origin, Kind("clinic"), 0, "north")
	require.Error(t, err)
}

func TestQueryNearbyRadiusOverride(t *testing.T) {
	svc, store, _ := newTestHarness(t)
	ctx := context.Background()
	// ~10 km out.
	seedDonor(t, store, domain.Donor{ID: "donor-1", BloodType: domain.OPos, Location: at(0.09)})

	matches, err := svc.QueryNearby(ctx, domain.Coordinate{}, KindDonor, 5, "north")
	require.NoError(t, err)
	assert.Empty(t, matches, "5 km override excludes a 10 km donor")

	matches, err = svc.QueryNearby(ctx, domain.Coordinate{}, KindDonor, 0, "north")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "default 15 km radius includes it")
}
