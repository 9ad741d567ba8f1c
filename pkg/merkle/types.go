package merkle

import "github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"

// MerkleTree is a complete binary merkle tree over an ordered list of records.
// The tree uses keccak256 hashing and sorted-pair internal nodes for Solidity
// compatibility, and is immutable once built.
type MerkleTree struct {
	// Root is the merkle root hash
	Root [32]byte

	// LeafCount is the padded number of leaves, always a power of two
	LeafCount uint64

	// hashes is the flattened tree: leaves (including padding) followed by every
	// internal layer bottom-up, left to right. len(hashes) == 2*LeafCount-1.
	hashes [][32]byte

	// records are deep copies of the input records in insertion order, kept for reverse lookup
	records []types.Record
}

// MerkleProof represents a proof that a leaf is included in the tree.
type MerkleProof struct {
	// LeafIndex is the position of the record in the original input
	LeafIndex int

	// Leaf is the hash of the (index, record) pair being proven
	Leaf [32]byte

	// Proof contains the sibling hashes from leaf to root, root excluded
	Proof [][32]byte
}
