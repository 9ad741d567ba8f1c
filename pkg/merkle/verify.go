package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

// ComputeRoot folds leaf with every proof entry using HashPair.
func ComputeRoot(leaf [32]byte, proof [][32]byte) [32]byte {
	current := leaf
	for _, sibling := range proof {
		current = HashPair(current, sibling)
	}
	return current
}

// VerifyProof reports whether leaf and proof reconstruct root. This is the
// same check the on-chain claim contract performs.
func VerifyProof(root, leaf [32]byte, proof [][32]byte) bool {
	return ComputeRoot(leaf, proof) == root
}

// VerifyMerkleProof verifies a MerkleProof against root.
func VerifyMerkleProof(proof *MerkleProof, root [32]byte) bool {
	if proof == nil {
		return false
	}
	return VerifyProof(root, proof.Leaf, proof.Proof)
}

// VerifyRecord recomputes the leaf for (index, record) and verifies it against root.
func VerifyRecord(root [32]byte, index uint64, record types.Record, proof [][32]byte) (bool, error) {
	leaf, err := HashElement(index, record)
	if err != nil {
		return false, err
	}
	return VerifyProof(root, leaf, proof), nil
}

// ParseHash decodes a 0x-prefixed 32-byte hex string. Unlike common.HexToHash
// it rejects input of the wrong length.
func ParseHash(s string) ([32]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != 32 {
		return [32]byte{}, fmt.Errorf("invalid hash %q: expected 32 bytes, got %d", s, len(b))
	}
	return [32]byte(b), nil
}

// ParseProof decodes a list of hex hashes.
func ParseProof(hexes []string) ([][32]byte, error) {
	proof := make([][32]byte, len(hexes))
	for i, h := range hexes {
		parsed, err := ParseHash(h)
		if err != nil {
			return nil, fmt.Errorf("proof entry %d: %w", i, err)
		}
		proof[i] = parsed
	}
	return proof, nil
}
