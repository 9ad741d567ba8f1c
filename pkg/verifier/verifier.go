// Package verifier is a standalone re-implementation of the claim contract's
// inclusion check. It deliberately shares no code with pkg/merkle so that it
// can be used to cross-check the published hashing contract:
//
//	leaf   = keccak256(uint256(index) ‖ packedRecord)
//	parent = keccak256(min(a, b) ‖ max(a, b))   // a, b compared as uint256
//	valid  = fold(leaf, proof) == root
package verifier

import (
	"bytes"
	"math/big"

	"golang.org/x/crypto/sha3"
)

func keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// LeafHash hashes an index and an already packed record.
// It returns false if index does not fit in 256 bits or is negative.
func LeafHash(index *big.Int, packedRecord []byte) ([32]byte, bool) {
	if index == nil || index.Sign() < 0 || index.BitLen() > 256 {
		return [32]byte{}, false
	}
	return keccak256(index.FillBytes(make([]byte, 32)), packedRecord), true
}

// ParentHash combines two children in ascending numeric order.
func ParentHash(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return keccak256(a[:], b[:])
}

// Verify reports whether (index, packedRecord) is committed under root.
func Verify(root [32]byte, index *big.Int, packedRecord []byte, proof [][32]byte) bool {
	current, ok := LeafHash(index, packedRecord)
	if !ok {
		return false
	}
	for _, sibling := range proof {
		current = ParentHash(current, sibling)
	}
	return current == root
}
