package localSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-merkle-distributor/internal/signer"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// LocalSigner signs with an in-process secp256k1 private key.
type LocalSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
	keyId      string
}

var _ signer.ISigner = (*LocalSigner)(nil)

// NewLocalSigner loads a hex encoded private key, with or without 0x prefix.
func NewLocalSigner(privateKeyHex string, logger *zap.Logger) (*LocalSigner, error) {
	pk, err := util.StringToECDSAPrivateKey(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return newLocalSigner(pk, logger)
}

// NewRandomLocalSigner generates a throwaway key.
func NewRandomLocalSigner(logger *zap.Logger) (*LocalSigner, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}
	return newLocalSigner(pk, logger)
}

func newLocalSigner(pk *ecdsa.PrivateKey, logger *zap.Logger) (*LocalSigner, error) {
	address, err := util.DeriveAddressFromECDSAPrivateKey(pk)
	if err != nil {
		return nil, fmt.Errorf("failed to derive Ethereum address from private key: %w", err)
	}

	keyId := fmt.Sprintf("local-key-%s", uuid.New().String())

	logger.Info("Loaded local ECDSA signer",
		zap.String("keyId", keyId),
		zap.String("address", address.String()),
	)

	return &LocalSigner{
		logger:     logger,
		privateKey: pk,
		address:    address,
		keyId:      keyId,
	}, nil
}

// SignHash signs hash and returns R || S || V with V in {27, 28}.
func (l *LocalSigner) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(hash[:], l.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

func (l *LocalSigner) Address() common.Address {
	return l.address
}

func (l *LocalSigner) KeyID() string {
	return l.keyId
}
