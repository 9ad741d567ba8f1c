// Package persistencetest holds the behaviour every IDistributionPersistence
// backend must share, run by each backend's own tests.
package persistencetest

import (
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

// NewDistribution returns a distribution with a unique root and n records.
func NewDistribution(n int, createdAt int64) *types.Distribution {
	id := uuid.New()
	records := make([]types.Record, n)
	for i := range records {
		addr := common.BigToAddress(big.NewInt(int64(i + 1)))
		records[i] = types.NewBeneficiary(addr, big.NewInt(int64(100*(i+1))))
	}
	var root common.Hash
	copy(root[:], id[:])
	root[31] = byte(n)

	return &types.Distribution{
		ID:        id.String(),
		Name:      fmt.Sprintf("distribution-%s", id.String()[:8]),
		Root:      root,
		LeafCount: uint64(n),
		Records:   records,
		CreatedAt: createdAt,
	}
}

// RunSuite runs the shared persistence tests. newStore must return a fresh,
// empty store; the suite closes it.
func RunSuite(t *testing.T, newStore func(t *testing.T) persistence.IDistributionPersistence) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		d := NewDistribution(3, 100)
		require.NoError(t, store.SaveDistribution(d))

		loaded, err := store.LoadDistribution(d.Root)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, d.ID, loaded.ID)
		assert.Equal(t, d.Name, loaded.Name)
		assert.Equal(t, d.Root, loaded.Root)
		assert.Equal(t, d.LeafCount, loaded.LeafCount)
		assert.Equal(t, d.CreatedAt, loaded.CreatedAt)
		require.Len(t, loaded.Records, len(d.Records))
		for i := range d.Records {
			assert.True(t, d.Records[i].Equal(loaded.Records[i]))
		}
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		loaded, err := store.LoadDistribution(common.HexToHash("0xdead"))
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveNil", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		err := store.SaveDistribution(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil Distribution")
	})

	t.Run("SaveIsIdempotent", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		d := NewDistribution(2, 100)
		require.NoError(t, store.SaveDistribution(d))
		d.Name = "renamed"
		require.NoError(t, store.SaveDistribution(d))

		loaded, err := store.LoadDistribution(d.Root)
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)

		list, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("StoredCopyIsIsolated", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		d := NewDistribution(2, 100)
		require.NoError(t, store.SaveDistribution(d))
		d.Records[0][1].Value = big.NewInt(7)

		loaded, err := store.LoadDistribution(d.Root)
		require.NoError(t, err)
		amount, ok := loaded.Records[0].Amount()
		require.True(t, ok)
		assert.Equal(t, int64(100), amount.Int64())
	})

	t.Run("ListSorted", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		empty, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Empty(t, empty)

		late := NewDistribution(1, 300)
		early := NewDistribution(4, 100)
		middle := NewDistribution(2, 200)
		for _, d := range []*types.Distribution{late, early, middle} {
			require.NoError(t, store.SaveDistribution(d))
		}

		list, err := store.ListDistributions()
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, early.Root, list[0].Root)
		assert.Equal(t, middle.Root, list[1].Root)
		assert.Equal(t, late.Root, list[2].Root)
		assert.Equal(t, 4, list[0].RecordCount)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		d := NewDistribution(2, 100)
		require.NoError(t, store.SaveDistribution(d))
		require.NoError(t, store.DeleteDistribution(d.Root))

		loaded, err := store.LoadDistribution(d.Root)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		// Idempotent
		require.NoError(t, store.DeleteDistribution(d.Root))

		list, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				d := NewDistribution(i+1, int64(i))
				assert.NoError(t, store.SaveDistribution(d))
				_, err := store.LoadDistribution(d.Root)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		list, err := store.ListDistributions()
		require.NoError(t, err)
		assert.Len(t, list, 10)
	})

	t.Run("Closed", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		err := store.SaveDistribution(NewDistribution(1, 1))
		require.ErrorIs(t, err, persistence.ErrPersistenceClosed)

		_, err = store.LoadDistribution(common.Hash{})
		require.ErrorIs(t, err, persistence.ErrPersistenceClosed)

		_, err = store.ListDistributions()
		require.ErrorIs(t, err, persistence.ErrPersistenceClosed)

		err = store.DeleteDistribution(common.Hash{})
		require.ErrorIs(t, err, persistence.ErrPersistenceClosed)

		err = store.HealthCheck()
		require.ErrorIs(t, err, persistence.ErrPersistenceClosed)
	})
}
