//go:build integration

package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	store := NewPostgres(pc.DB)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetStock(ctx, "bank-1", domain.APos, 5))
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.ONeg, 2))
	require.NoError(t, store.SetStock(ctx, "bank-2", domain.APos, 9))

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{domain.APos: 5, domain.ONeg: 2}, ledger)

	// SetStock replaces, not accumulates.
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.APos, 7))
	ledger, err = store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, 7, ledger[domain.APos])
}

func TestPostgresDebitIsAtomic(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.APos, 5))
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.ONeg, 1))

	// One bucket short: nothing is debited.
	err := store.Debit(ctx, "bank-1", map[domain.BloodType]int{domain.APos: 2, domain.ONeg: 2})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{domain.APos: 5, domain.ONeg: 1}, ledger)

	require.NoError(t, store.Debit(ctx, "bank-1", map[domain.BloodType]int{domain.APos: 2, domain.ONeg: 1}))
	ledger, err = store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{domain.APos: 3, domain.ONeg: 0}, ledger)
}

func TestPostgresCreditRestoresDebit(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.APos, 5))
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.ONeg, 2))

	breakdown := map[domain.BloodType]int{domain.APos: 3, domain.ONeg: 1}
	require.NoError(t, store.Debit(ctx, "bank-1", breakdown))
	require.NoError(t, store.Credit(ctx, "bank-1", breakdown))

	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BloodType]int{domain.APos: 5, domain.ONeg: 2}, ledger)

	// Credit upserts buckets the bank never stocked.
	require.NoError(t, store.Credit(ctx, "bank-2", map[domain.BloodType]int{domain.BNeg: 4}))
	ledger, err = store.GetLedger(ctx, "bank-2")
	require.NoError(t, err)
	assert.Equal(t, 4, ledger[domain.BNeg])
}

func TestPostgresConcurrentDebitsSerialize(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetStock(ctx, "bank-1", domain.APos, 10))

	const workers = 8
	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Debit(ctx, "bank-1", map[domain.BloodType]int{domain.APos: 3}); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, successes.Load())
	ledger, err := store.GetLedger(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger[domain.APos])
}
