package persistence

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

// IDistributionPersistence stores published distributions keyed by merkle root.
// All implementations must be thread-safe.
//
// The interface supports:
// - Distribution management (save, load, list, delete)
// - Lifecycle management (close, health check)
type IDistributionPersistence interface {
	// SaveDistribution persists a distribution under its root.
	// Overwrites any existing distribution with the same root (idempotent).
	SaveDistribution(d *types.Distribution) error

	// LoadDistribution retrieves a distribution by root.
	// Returns nil if it doesn't exist, error only on storage failure.
	LoadDistribution(root common.Hash) (*types.Distribution, error)

	// ListDistributions returns summaries of all stored distributions sorted by
	// creation time, then root. Returns an empty slice if none exist.
	ListDistributions() ([]*types.DistributionSummary, error)

	// DeleteDistribution removes a distribution.
	// Idempotent - returns nil if it doesn't exist.
	DeleteDistribution(root common.Hash) error

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
