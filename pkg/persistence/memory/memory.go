package memory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

// MemoryPersistence is an in-memory implementation of IDistributionPersistence.
// This implementation is intended for TESTING and one-shot CLI runs.
//
// All data is stored in memory and will be lost when the process exits.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// root -> distribution
	distributions map[common.Hash]*types.Distribution

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	logger.Sugar().Warnw("Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART",
		"hint", "set DISTRIBUTOR_PERSISTENCE_TYPE=badger or redis for durable storage")

	return &MemoryPersistence{
		distributions: make(map[common.Hash]*types.Distribution),
	}
}

// SaveDistribution persists a distribution.
func (m *MemoryPersistence) SaveDistribution(d *types.Distribution) error {
	if d == nil {
		return fmt.Errorf("cannot save nil Distribution")
	}

	copied, err := persistence.CopyDistribution(d)
	if err != nil {
		return fmt.Errorf("failed to copy Distribution: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrPersistenceClosed
	}

	m.distributions[d.Root] = copied
	return nil
}

// LoadDistribution retrieves a distribution by root.
func (m *MemoryPersistence) LoadDistribution(root common.Hash) (*types.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrPersistenceClosed
	}

	d, exists := m.distributions[root]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return persistence.CopyDistribution(d)
}

// ListDistributions returns summaries of all distributions.
func (m *MemoryPersistence) ListDistributions() ([]*types.DistributionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrPersistenceClosed
	}

	result := make([]*types.DistributionSummary, 0, len(m.distributions))
	for _, d := range m.distributions {
		result = append(result, d.Summary())
	}
	persistence.SortSummaries(result)

	return result, nil
}

// DeleteDistribution removes a distribution.
func (m *MemoryPersistence) DeleteDistribution(root common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrPersistenceClosed
	}

	delete(m.distributions, root)
	return nil
}

// Close marks the store closed and drops its data.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.distributions = nil
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrPersistenceClosed
	}
	return nil
}
