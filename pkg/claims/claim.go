// Package claims builds the off-chain payloads a distributor contract checks
// when paying out: EIP-191 signed claims and multi-root merkle claims.
package claims

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/eigenx-merkle-distributor/internal/signer"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// PackedClaimLength is len(to) + len(token) + len(amount) + len(nonce).
const PackedClaimLength = 20 + 20 + 32 + 32

// Claim authorizes paying Amount of Token to To. Nonce makes each claim unique.
type Claim struct {
	To     common.Address `json:"to"`
	Token  common.Address `json:"token"`
	Amount *big.Int       `json:"amount"`
	Nonce  *big.Int       `json:"nonce"`
}

// SignedClaim is a claim together with its EIP-191 hash and signature.
// Packed is the raw claim encoding and Message is Packed with the EIP-191
// prefix applied, the exact bytes whose keccak256 is Hash.
type SignedClaim struct {
	Claim
	Packed    hexutil.Bytes `json:"packed"`
	Message   hexutil.Bytes `json:"message"`
	Hash      common.Hash   `json:"hash"`
	V         uint8         `json:"v"`
	R         common.Hash   `json:"r"`
	S         common.Hash   `json:"s"`
	Signature hexutil.Bytes `json:"signature"`
}

// ClaimBundle holds several signed claims as the parallel arrays a batch
// claim call takes.
type ClaimBundle struct {
	Amounts []*big.Int    `json:"amounts"`
	V       []uint8       `json:"v"`
	R       []common.Hash `json:"r"`
	S       []common.Hash `json:"s"`
}

// PackClaim returns to ‖ token ‖ uint256(amount) ‖ uint256(nonce).
func PackClaim(to, token common.Address, amount, nonce *big.Int) ([]byte, error) {
	amountBytes, err := util.EncodeUint256(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	nonceBytes, err := util.EncodeUint256(nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return util.Flatten([][]byte{to.Bytes(), token.Bytes(), amountBytes, nonceBytes}), nil
}

// Pack is PackClaim over c's fields.
func (c *Claim) Pack() ([]byte, error) {
	return PackClaim(c.To, c.Token, c.Amount, c.Nonce)
}

// ClaimHash is keccak256("\x19Ethereum Signed Message:\n" + len(packed) + packed).
func ClaimHash(packed []byte) common.Hash {
	return common.BytesToHash(accounts.TextHash(packed))
}

// ClaimMessage returns "\x19Ethereum Signed Message:\n" + len(packed) + packed.
func ClaimMessage(packed []byte) []byte {
	_, msg := accounts.TextAndHash(packed)
	return []byte(msg)
}

// SignClaim packs and hashes claim, then signs the hash with s.
func SignClaim(ctx context.Context, s signer.ISigner, claim *Claim) (*SignedClaim, error) {
	if claim == nil {
		return nil, fmt.Errorf("claim cannot be nil")
	}

	packed, err := claim.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to pack claim: %w", err)
	}
	hash := ClaimHash(packed)

	sig, err := s.SignHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign claim: %w", err)
	}
	if len(sig) != signer.SignatureLength {
		return nil, fmt.Errorf("signer returned %d byte signature", len(sig))
	}

	return &SignedClaim{
		Claim: Claim{
			To:     claim.To,
			Token:  claim.Token,
			Amount: new(big.Int).Set(claim.Amount),
			Nonce:  new(big.Int).Set(claim.Nonce),
		},
		Packed:    packed,
		Message:   ClaimMessage(packed),
		Hash:      hash,
		R:         common.BytesToHash(sig[0:32]),
		S:         common.BytesToHash(sig[32:64]),
		V:         sig[64],
		Signature: sig,
	}, nil
}

// RecoverClaimSigner recomputes the claim hash from the claim fields and
// recovers the signing address from R, S and V.
func RecoverClaimSigner(sc *SignedClaim) (common.Address, error) {
	packed, err := sc.Pack()
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack claim: %w", err)
	}

	sig := make([]byte, signer.SignatureLength)
	copy(sig[0:32], sc.R[:])
	copy(sig[32:64], sc.S[:])
	sig[64] = sc.V

	return signer.RecoverAddress(ClaimHash(packed), sig)
}

// Bundle splits signed claims into parallel arrays, preserving order.
func Bundle(signed []*SignedClaim) *ClaimBundle {
	return &ClaimBundle{
		Amounts: util.Map(signed, func(c *SignedClaim, _ uint64) *big.Int { return c.Amount }),
		V:       util.Map(signed, func(c *SignedClaim, _ uint64) uint8 { return c.V }),
		R:       util.Map(signed, func(c *SignedClaim, _ uint64) common.Hash { return c.R }),
		S:       util.Map(signed, func(c *SignedClaim, _ uint64) common.Hash { return c.S }),
	}
}
