package distribution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// ErrDistributionNotFound is returned when no distribution is stored under a root.
var ErrDistributionNotFound = errors.New("distribution not found")

// DistributionService publishes distributions and answers proof queries
// against them. Trees are rebuilt from stored records on first use and kept
// in memory afterwards.
type DistributionService struct {
	store  persistence.IDistributionPersistence
	logger *zap.Logger

	mu    sync.RWMutex
	trees map[common.Hash]*merkle.MerkleTree

	now func() time.Time
}

// NewDistributionService creates a service backed by store.
func NewDistributionService(store persistence.IDistributionPersistence, l *zap.Logger) *DistributionService {
	return &DistributionService{
		store:  store,
		logger: l,
		trees:  make(map[common.Hash]*merkle.MerkleTree),
		now:    time.Now,
	}
}

// Publish builds the tree over records, stores the distribution and returns it.
// Publishing the same records twice yields the same root and overwrites the
// stored snapshot.
func (s *DistributionService) Publish(name string, records []types.Record) (*types.Distribution, error) {
	tree, err := merkle.BuildMerkleTree(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}

	d := &types.Distribution{
		ID:        uuid.New().String(),
		Name:      name,
		Root:      common.Hash(tree.Root),
		LeafCount: tree.LeafCount,
		Records:   records,
		CreatedAt: s.now().Unix(),
	}
	if err := s.store.SaveDistribution(d); err != nil {
		return nil, fmt.Errorf("failed to save distribution: %w", err)
	}

	s.mu.Lock()
	s.trees[d.Root] = tree
	s.mu.Unlock()

	s.logger.Sugar().Infow("Published distribution",
		"id", d.ID,
		"name", d.Name,
		"root", d.Root.Hex(),
		"records", len(records),
		"leafCount", d.LeafCount,
	)
	return d, nil
}

// Get returns the stored distribution for root.
func (s *DistributionService) Get(root common.Hash) (*types.Distribution, error) {
	d, err := s.store.LoadDistribution(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrDistributionNotFound, root.Hex())
	}
	return d, nil
}

// List returns summaries of all stored distributions.
func (s *DistributionService) List() ([]*types.DistributionSummary, error) {
	return s.store.ListDistributions()
}

// Delete removes a distribution and drops its cached tree.
func (s *DistributionService) Delete(root common.Hash) error {
	if err := s.store.DeleteDistribution(root); err != nil {
		return fmt.Errorf("failed to delete distribution: %w", err)
	}

	s.mu.Lock()
	delete(s.trees, root)
	s.mu.Unlock()

	s.logger.Sugar().Infow("Deleted distribution", "root", root.Hex())
	return nil
}

// Tree returns the merkle tree for root, rebuilding it from the stored
// records if it is not cached. A rebuilt tree whose root differs from the
// stored root is rejected.
func (s *DistributionService) Tree(root common.Hash) (*merkle.MerkleTree, error) {
	s.mu.RLock()
	tree, ok := s.trees[root]
	s.mu.RUnlock()
	if ok {
		return tree, nil
	}

	d, err := s.Get(root)
	if err != nil {
		return nil, err
	}

	tree, err = merkle.BuildMerkleTree(d.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild merkle tree: %w", err)
	}
	if common.Hash(tree.Root) != root {
		s.logger.Sugar().Errorw("Stored distribution does not match its root",
			"root", root.Hex(), "rebuilt", tree.RootHex())
		return nil, fmt.Errorf("stored distribution is corrupt: rebuilt root %s does not match %s", tree.RootHex(), root.Hex())
	}

	s.mu.Lock()
	s.trees[root] = tree
	s.mu.Unlock()

	s.logger.Sugar().Debugw("Rebuilt merkle tree", "root", root.Hex(), "leafCount", tree.LeafCount)
	return tree, nil
}

// GetProof returns the inclusion proof for the record at index.
func (s *DistributionService) GetProof(root common.Hash, index int) (*types.ProofResponse, error) {
	tree, err := s.Tree(root)
	if err != nil {
		return nil, err
	}

	proof, err := tree.GetProof(index)
	if err != nil {
		return nil, err
	}
	record, err := tree.Record(index)
	if err != nil {
		return nil, err
	}

	return &types.ProofResponse{
		Root:   root,
		Index:  index,
		Record: record,
		Leaf:   common.Hash(proof.Leaf),
		Proof: util.Map(proof.Proof, func(h [32]byte, _ uint64) common.Hash {
			return common.Hash(h)
		}),
	}, nil
}

// FindIndex returns the position of the first record structurally equal to record.
func (s *DistributionService) FindIndex(root common.Hash, record types.Record) (int, error) {
	tree, err := s.Tree(root)
	if err != nil {
		return -1, err
	}
	return tree.GetElementIndex(record)
}

// FindIndexByAddress returns the position of the first record whose first
// address field is addr.
func (s *DistributionService) FindIndexByAddress(root common.Hash, addr common.Address) (int, error) {
	tree, err := s.Tree(root)
	if err != nil {
		return -1, err
	}
	return IndexOfAddress(tree, addr)
}

// IndexOfAddress scans tree's records for the first one paying addr.
func IndexOfAddress(tree *merkle.MerkleTree, addr common.Address) (int, error) {
	for i := 0; i < tree.Len(); i++ {
		record, err := tree.Record(i)
		if err != nil {
			return -1, err
		}
		if a, ok := record.Address(); ok && a == addr {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: address %s", merkle.ErrNotFound, addr.Hex())
}

// HealthCheck reports whether the backing store is usable.
func (s *DistributionService) HealthCheck() error {
	return s.store.HealthCheck()
}
