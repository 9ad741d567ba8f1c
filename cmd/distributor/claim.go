package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/claims"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

func parseAddressFlag(c *cli.Context, name string) (common.Address, error) {
	v := c.String(name)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid --%s address %q", name, v)
	}
	return common.HexToAddress(v), nil
}

func parseClaim(c *cli.Context) (*claims.Claim, error) {
	to, err := parseAddressFlag(c, "to")
	if err != nil {
		return nil, err
	}
	token, err := parseAddressFlag(c, "token")
	if err != nil {
		return nil, err
	}
	amount, ok := util.ParseInteger(c.String("amount"))
	if !ok {
		return nil, fmt.Errorf("invalid --amount %q", c.String("amount"))
	}
	nonce, ok := util.ParseInteger(c.String("nonce"))
	if !ok {
		return nil, fmt.Errorf("invalid --nonce %q", c.String("nonce"))
	}
	return &claims.Claim{To: to, Token: token, Amount: amount, Nonce: nonce}, nil
}

func signClaimCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	claim, err := parseClaim(c)
	if err != nil {
		return err
	}

	s, err := newSigner(c.Context, parseSignerConfig(c), l)
	if err != nil {
		return err
	}

	signed, err := claims.SignClaim(c.Context, s, claim)
	if err != nil {
		return err
	}
	l.Sugar().Debugw("Signed claim", "signer", s.Address().Hex(), "keyId", s.KeyID(), "hash", signed.Hash.Hex())

	return writeJSON("", signed)
}

func multiClaimCommand(c *cli.Context) error {
	recipient, err := parseAddressFlag(c, "recipient")
	if err != nil {
		return err
	}

	var trees []*merkle.MerkleTree
	for _, input := range c.StringSlice("input") {
		records, err := distribution.LoadRecordsFile(input)
		if err != nil {
			return err
		}
		tree, err := merkle.BuildMerkleTree(records)
		if err != nil {
			return fmt.Errorf("failed to build tree for %s: %w", input, err)
		}
		trees = append(trees, tree)
	}

	mc, err := claims.BuildMultiClaim(recipient, trees...)
	if err != nil {
		return err
	}
	return writeJSON("", mc)
}
