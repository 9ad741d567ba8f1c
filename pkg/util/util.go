package util

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Map applies f to every element of s and returns the results in a new slice.
func Map[A any, B any](s []A, f func(A, uint64) B) []B {
	out := make([]B, len(s))
	for i, v := range s {
		out[i] = f(v, uint64(i))
	}
	return out
}

// Reduce folds s into a single value.
func Reduce[A any, B any](s []A, f func(B, A) B, initial B) B {
	acc := initial
	for _, v := range s {
		acc = f(acc, v)
	}
	return acc
}

// StringToECDSAPrivateKey parses a hex encoded secp256k1 private key, with or without 0x prefix.
func StringToECDSAPrivateKey(pk string) (*ecdsa.PrivateKey, error) {
	pk = strings.TrimPrefix(strings.TrimSpace(pk), "0x")
	key, err := crypto.HexToECDSA(pk)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ECDSA private key: %w", err)
	}
	return key, nil
}

// DeriveAddressFromECDSAPrivateKey returns the Ethereum address controlled by pk.
func DeriveAddressFromECDSAPrivateKey(pk *ecdsa.PrivateKey) (common.Address, error) {
	if pk == nil {
		return common.Address{}, fmt.Errorf("private key is nil")
	}
	return crypto.PubkeyToAddress(pk.PublicKey), nil
}

// DeriveAddressFromECDSAPrivateKeyString parses pk and returns its address.
func DeriveAddressFromECDSAPrivateKeyString(pk string) (common.Address, error) {
	key, err := StringToECDSAPrivateKey(pk)
	if err != nil {
		return common.Address{}, err
	}
	return DeriveAddressFromECDSAPrivateKey(key)
}

// Flatten concatenates a slice of slices.
func Flatten[A any](s [][]A) []A {
	n := 0
	for _, v := range s {
		n += len(v)
	}
	out := make([]A, 0, n)
	for _, v := range s {
		out = append(out, v...)
	}
	return out
}
