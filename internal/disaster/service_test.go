package disaster

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
	"bloodlink/internal/events"
	"bloodlink/pkg/requestcontext"
)

func newTestService(t *testing.T) (*Service, *events.Publisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := events.NewPublisher(16, logger)
	return NewService(NewInMemoryStore(), logger, pub, nil, 15, 30), pub
}

func TestSetActiveReturnsPreviousState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	previous, err := svc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)
	assert.False(t, previous, "region starts inactive")

	previous, err = svc.SetActive(ctx, "north", false, "admin-1")
	require.NoError(t, err)
	assert.True(t, previous)
}

func TestIsActiveObservesLatestToggle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	active, err := svc.IsActive(ctx, "north")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)

	active, err = svc.IsActive(ctx, "north")
	require.NoError(t, err)
	assert.True(t, active)

	// Other regions are unaffected.
	active, err = svc.IsActive(ctx, "south")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestEffectiveRadiusWidensWhileActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	radius, err := svc.EffectiveRadiusKm(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, 15.0, radius)

	_, err = svc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)

	// Read at query time, not cached: the very next query sees the flip.
	radius, err = svc.EffectiveRadiusKm(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, 30.0, radius)
}

func TestSetActiveEmitsEventOnChangeOnly(t *testing.T) {
	svc, pub := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	_, err := svc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)
	// Idempotent re-activation does not emit again.
	_, err = svc.SetActive(ctx, "north", true, "admin-1")
	require.NoError(t, err)

	require.Len(t, pub.Inbox(), 1)
	event := <-pub.Inbox()
	assert.Equal(t, domain.EventDisasterModeChanged, event.Type)
	assert.Equal(t, "north", event.Region)
	assert.Equal(t, now, event.Timestamp)
}

func TestStateRecordsActorAndTime(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	_, err := svc.SetActive(ctx, "north", true, "admin-7")
	require.NoError(t, err)

	state, err := svc.State(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, "admin-7", state.ActivatedBy)
	assert.Equal(t, now, state.ActivatedAt)
	assert.True(t, state.Active)
}
