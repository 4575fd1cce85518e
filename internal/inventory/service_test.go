package inventory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

type fakeCoordinator struct {
	req         domain.Request
	fulfilled   atomic.Int32
	failFulfill bool
}

func (f *fakeCoordinator) Get(_ context.Context, id string) (domain.Request, error) {
	if id != f.req.ID {
		return domain.Request{}, dErrors.Newf(dErrors.CodeNotFound, "request %s not found", id)
	}
	return f.req, nil
}

func (f *fakeCoordinator) MarkFulfilled(_ context.Context, id string) error {
	if f.failFulfill {
		return dErrors.Newf(dErrors.CodeConflict, "request is %s", domain.RequestCancelled)
	}
	f.fulfilled.Add(1)
	f.req.Status = domain.RequestFulfilled
	return nil
}

func newTestService(t *testing.T, coord RequestCoordinator) (*Service, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, coord, logger, nil), store
}

func seedStock(t *testing.T, store *InMemoryStore, bankID string, stock map[domain.BloodType]int) {
	t.Helper()
	for bt, units := range stock {
		require.NoError(t, store.SetStock(context.Background(), bankID, bt, units))
	}
}

func TestAllocateMixedBreakdown(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{
		domain.ONeg: 2, domain.OPos: 3, domain.APos: 5,
	})

	lines, err := svc.Allocate(ctx, "bank-1", domain.APos, 4, map[domain.BloodType]int{
		domain.ONeg: 1, domain.APos: 3,
	})
	require.NoError(t, err)

	// Exact match reported first, O- second.
	require.Len(t, lines, 2)
	assert.Equal(t, AllocationLine{BloodType: domain.APos, Units: 3}, lines[0])
	assert.Equal(t, AllocationLine{BloodType: domain.ONeg, Units: 1}, lines[1])

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{
		domain.ONeg: 1, domain.OPos: 3, domain.APos: 2,
	}, ledger)
}

func TestAllocateRejectsIncompatibleType(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	stock := map[domain.BloodType]int{domain.ONeg: 2, domain.OPos: 3, domain.APos: 5, domain.BPos: 4}
	seedStock(t, store, "bank-1", stock)

	_, err := svc.Allocate(ctx, "bank-1", domain.APos, 4, map[domain.BloodType]int{domain.BPos: 4})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Contains(t, err.Error(), "incompatible type")

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, stock, ledger, "ledger unchanged on rejection")
}

func TestAllocateRejectsWrongTotal(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{domain.APos: 5})

	_, err := svc.Allocate(ctx, "bank-1", domain.APos, 4, map[domain.BloodType]int{domain.APos: 3})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Contains(t, err.Error(), "totals 3")
}

func TestAllocateDistinguishesExhaustedFromConflict(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	// Total compatible stock for A+ is 3 (O-:1, A+:2); a request for 5 is
	// exhausted no matter the breakdown.
	seedStock(t, store, "bank-1", map[domain.BloodType]int{
		domain.ONeg: 1, domain.APos: 2, domain.BPos: 50,
	})

	_, err := svc.Allocate(ctx, "bank-1", domain.APos, 5, map[domain.BloodType]int{
		domain.ONeg: 1, domain.APos: 4,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeResourceExhausted), "got %v", err)

	// Same total stock but a fixable breakdown: conflict, not exhausted.
	_, err = svc.Allocate(ctx, "bank-1", domain.APos, 3, map[domain.BloodType]int{
		domain.APos: 3,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict), "got %v", err)
	assert.Contains(t, err.Error(), "insufficient stock of A+")
}

func TestAllocateValidation(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{domain.APos: 5})

	_, err := svc.Allocate(ctx, "bank-1", domain.APos, 4, nil)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = svc.Allocate(ctx, "bank-1", domain.APos, 4, map[domain.BloodType]int{domain.APos: 4, domain.ONeg: 0})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestConcurrentAllocationsCannotOverdraw(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{domain.APos: 10})

	// 8 goroutines each try to draw 3 units; only 3 can fit in 10.
	const workers = 8
	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Allocate(ctx, "bank-1", domain.APos, 3, map[domain.BloodType]int{domain.APos: 3})
			if err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, successes.Load())
	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger[domain.APos], "no overdraw under concurrency")
}

func TestFulfillMarksRequestAndRejectsReplay(t *testing.T) {
	coord := &fakeCoordinator{req: domain.Request{
		ID:          "req-1",
		BloodType:   domain.APos,
		UnitsNeeded: 4,
		Status:      domain.RequestOpen,
	}}
	svc, store := newTestService(t, coord)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{
		domain.ONeg: 2, domain.OPos: 3, domain.APos: 5,
	})

	breakdown := map[domain.BloodType]int{domain.ONeg: 1, domain.APos: 3}
	lines, err := svc.Fulfill(ctx, "bank-1", "req-1", breakdown)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.EqualValues(t, 1, coord.fulfilled.Load())

	// Replaying the committed allocation fails on the terminal request and
	// does not touch stock again.
	_, err = svc.Fulfill(ctx, "bank-1", "req-1", breakdown)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{
		domain.ONeg: 1, domain.OPos: 3, domain.APos: 2,
	}, ledger)
	assert.EqualValues(t, 1, coord.fulfilled.Load())
}

func TestFulfillLeavesRequestOpenOnBadBreakdown(t *testing.T) {
	coord := &fakeCoordinator{req: domain.Request{
		ID:          "req-1",
		BloodType:   domain.APos,
		UnitsNeeded: 4,
		Status:      domain.RequestOpen,
	}}
	svc, store := newTestService(t, coord)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{domain.APos: 5})

	_, err := svc.Fulfill(ctx, "bank-1", "req-1", map[domain.BloodType]int{domain.BPos: 4})
	require.Error(t, err)
	assert.Zero(t, coord.fulfilled.Load())
	assert.Equal(t, domain.RequestOpen, coord.req.Status)
}

func TestFulfillCreditsBackWhenRequestTurnsTerminal(t *testing.T) {
	// The request passes the open check but turns terminal before the
	// fulfillment lands, as when a hospital cancel wins the race.
	coord := &fakeCoordinator{
		req: domain.Request{
			ID:          "req-1",
			BloodType:   domain.APos,
			UnitsNeeded: 4,
			Status:      domain.RequestOpen,
		},
		failFulfill: true,
	}
	svc, store := newTestService(t, coord)
	ctx := context.Background()
	seedStock(t, store, "bank-1", map[domain.BloodType]int{
		domain.ONeg: 2, domain.APos: 5,
	})

	_, err := svc.Fulfill(ctx, "bank-1", "req-1", map[domain.BloodType]int{
		domain.ONeg: 1, domain.APos: 3,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	// The drawn units came back; the rejection left no trace in the ledger.
	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{
		domain.ONeg: 2, domain.APos: 5,
	}, ledger)
}
