package claims

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// MultiClaim collects, for one recipient, the arguments needed to claim from
// several distributions in a single call. Slices are index aligned.
type MultiClaim struct {
	Recipient common.Address  `json:"recipient"`
	Roots     []common.Hash   `json:"roots"`
	Proofs    [][]common.Hash `json:"proofs"`
	Indexes   []uint64        `json:"indexes"`
	Amounts   []*big.Int      `json:"amounts"`
}

// BuildMultiClaim finds recipient's record in every tree and gathers its
// index, amount and proof. Every tree must contain the recipient.
func BuildMultiClaim(recipient common.Address, trees ...*merkle.MerkleTree) (*MultiClaim, error) {
	mc := &MultiClaim{
		Recipient: recipient,
		Roots:     make([]common.Hash, 0, len(trees)),
		Proofs:    make([][]common.Hash, 0, len(trees)),
		Indexes:   make([]uint64, 0, len(trees)),
		Amounts:   make([]*big.Int, 0, len(trees)),
	}

	for i, tree := range trees {
		idx, err := distribution.IndexOfAddress(tree, recipient)
		if err != nil {
			return nil, fmt.Errorf("tree %d (%s): %w", i, tree.RootHex(), err)
		}
		record, err := tree.Record(idx)
		if err != nil {
			return nil, err
		}
		amount, ok := record.Amount()
		if !ok {
			return nil, fmt.Errorf("tree %d (%s): record %d has no uint256 amount", i, tree.RootHex(), idx)
		}
		proof, err := tree.GetProof(idx)
		if err != nil {
			return nil, err
		}

		siblings := make([]common.Hash, len(proof.Proof))
		for j, h := range proof.Proof {
			siblings[j] = h
		}

		mc.Roots = append(mc.Roots, common.Hash(tree.Root))
		mc.Proofs = append(mc.Proofs, siblings)
		mc.Indexes = append(mc.Indexes, uint64(idx))
		mc.Amounts = append(mc.Amounts, amount)
	}
	return mc, nil
}

// Total sums the amounts across all roots.
func (mc *MultiClaim) Total() *big.Int {
	return util.Reduce(mc.Amounts, func(total *big.Int, a *big.Int) *big.Int {
		return total.Add(total, a)
	}, new(big.Int))
}
