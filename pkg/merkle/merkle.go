package merkle

import (
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// BuildMerkleTree creates a complete binary merkle tree from records in the
// given order. Record i is hashed together with its index i, the leaf layer is
// padded with PadHash to the next power of two, and pairs are folded bottom-up
// with HashPair.
//
// The whole tree lives in a single slice of 2*LeafCount-1 hashes.
func BuildMerkleTree(records []types.Record) (*MerkleTree, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree from empty record list: %w", ErrEmptyInput)
	}

	leafCount := NextPowerOfTwo(uint64(len(records)))
	hashes := make([][32]byte, 2*leafCount-1)

	for i, record := range records {
		leaf, err := HashElement(uint64(i), record)
		if err != nil {
			return nil, fmt.Errorf("failed to hash record %d: %w", i, err)
		}
		hashes[i] = leaf
	}
	for i := uint64(len(records)); i < leafCount; i++ {
		hashes[i] = PadHash
	}

	next := leafCount
	for i := uint64(0); next < uint64(len(hashes)); i += 2 {
		hashes[next] = HashPair(hashes[i], hashes[i+1])
		next++
	}

	kept := make([]types.Record, len(records))
	for i, record := range records {
		kept[i] = record.Clone()
	}

	return &MerkleTree{
		Root:      hashes[len(hashes)-1],
		LeafCount: leafCount,
		hashes:    hashes,
		records:   kept,
	}, nil
}

// NextPowerOfTwo returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

// GetProofIndexes returns the positions, in the flattened hash slice, of the
// siblings on the path from leafIndex to the root. The root itself is not
// included, so the result has log2(leafCount) entries.
func GetProofIndexes(leafIndex, leafCount uint64) []uint64 {
	indexes := make([]uint64, 0, bits.Len64(leafCount))
	offset := uint64(0)
	idx := leafIndex
	for width := leafCount; width > 1; width /= 2 {
		if idx%2 == 0 {
			indexes = append(indexes, offset+idx+1)
		} else {
			indexes = append(indexes, offset+idx-1)
		}
		offset += width
		idx /= 2
	}
	return indexes
}

// GetProof creates a merkle proof for the record at leafIndex. Padding leaves
// are not claimable and yield ErrIndexOutOfRange.
func (mt *MerkleTree) GetProof(leafIndex int) (*MerkleProof, error) {
	if leafIndex < 0 || leafIndex >= len(mt.records) {
		return nil, fmt.Errorf("leaf index %d (tree has %d records): %w", leafIndex, len(mt.records), ErrIndexOutOfRange)
	}

	indexes := GetProofIndexes(uint64(leafIndex), mt.LeafCount)
	proof := make([][32]byte, len(indexes))
	for i, idx := range indexes {
		proof[i] = mt.hashes[idx]
	}

	return &MerkleProof{
		LeafIndex: leafIndex,
		Leaf:      mt.hashes[leafIndex],
		Proof:     proof,
	}, nil
}

// GetProofHex returns the proof for leafIndex as lowercase 0x-prefixed hex strings.
func (mt *MerkleTree) GetProofHex(leafIndex int) ([]string, error) {
	proof, err := mt.GetProof(leafIndex)
	if err != nil {
		return nil, err
	}
	return util.Map(proof.Proof, func(h [32]byte, _ uint64) string {
		return hexutil.Encode(h[:])
	}), nil
}

// GetElementIndex returns the position of the first record structurally equal
// to record, or ErrNotFound.
func (mt *MerkleTree) GetElementIndex(record types.Record) (int, error) {
	for i, r := range mt.records {
		if r.Equal(record) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("record is not part of the tree: %w", ErrNotFound)
}

// GetProofForElement looks the record up and returns its proof.
func (mt *MerkleTree) GetProofForElement(record types.Record) (*MerkleProof, error) {
	idx, err := mt.GetElementIndex(record)
	if err != nil {
		return nil, err
	}
	return mt.GetProof(idx)
}

// RootHex returns the root as a lowercase 0x-prefixed hex string.
func (mt *MerkleTree) RootHex() string {
	return hexutil.Encode(mt.Root[:])
}

// Len returns the number of real (non-pad) records in the tree.
func (mt *MerkleTree) Len() int {
	return len(mt.records)
}

// Record returns a copy of the record at index i.
func (mt *MerkleTree) Record(i int) (types.Record, error) {
	if i < 0 || i >= len(mt.records) {
		return nil, fmt.Errorf("record index %d (tree has %d records): %w", i, len(mt.records), ErrIndexOutOfRange)
	}
	return mt.records[i].Clone(), nil
}

// Leaf returns the leaf hash at position i of the padded leaf layer.
func (mt *MerkleTree) Leaf(i uint64) [32]byte {
	return mt.hashes[i]
}

// Hashes returns a copy of the flattened tree.
func (mt *MerkleTree) Hashes() [][32]byte {
	out := make([][32]byte, len(mt.hashes))
	copy(out, mt.hashes)
	return out
}
