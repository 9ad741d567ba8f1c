package merkle

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// PadHash fills the leaf layer up to the next power of two.
var PadHash = [32]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// HashElement computes the leaf hash of a record at the given position:
//
//	keccak256(abi.encodePacked(uint256(index), field_0, field_1, ...))
//
// Every field is encoded at its declared width. Values that do not fit fail
// with ErrEncodingOverflow.
func HashElement(index uint64, record types.Record) ([32]byte, error) {
	return HashElementBig(new(big.Int).SetUint64(index), record)
}

// HashElementBig is HashElement for indexes given as a uint256.
func HashElementBig(index *big.Int, record types.Record) ([32]byte, error) {
	prefix, err := util.EncodeUint256(index)
	if err != nil {
		return [32]byte{}, fmt.Errorf("index: %w", err)
	}
	packed, err := record.Packed()
	if err != nil {
		return [32]byte{}, err
	}

	return [32]byte(crypto.Keccak256Hash(prefix, packed)), nil
}

// HashPair computes the internal node hash of two children. The children are
// ordered as unsigned 256-bit integers before hashing, so HashPair(a, b) ==
// HashPair(b, a) and proofs carry no left/right information.
func HashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	return [32]byte(crypto.Keccak256Hash(a[:], b[:]))
}
