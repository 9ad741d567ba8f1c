package signer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the length of an [R || S || V] signature.
const SignatureLength = crypto.SignatureLength

// ISigner produces secp256k1 signatures over 32-byte digests.
//
// Signatures are 65 bytes laid out as R || S || V with V in {27, 28}, the form
// Solidity's ecrecover expects.
type ISigner interface {
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
	Address() common.Address
	KeyID() string
}

// RecoverAddress returns the address that produced sig over hash. V may be
// either 0/1 or 27/28.
func RecoverAddress(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(hash[:], normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
