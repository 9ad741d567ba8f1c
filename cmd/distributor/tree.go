package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

type proofOutput struct {
	Index  int          `json:"index"`
	Record types.Record `json:"record"`
	Leaf   string       `json:"leaf"`
	Proof  []string     `json:"proof"`
}

type treeOutput struct {
	Root      string         `json:"root"`
	LeafCount uint64         `json:"leafCount"`
	Records   int            `json:"records"`
	Proofs    []*proofOutput `json:"proofs"`
}

func newProofOutput(tree *merkle.MerkleTree, index int) (*proofOutput, error) {
	proof, err := tree.GetProof(index)
	if err != nil {
		return nil, err
	}
	hexes, err := tree.GetProofHex(index)
	if err != nil {
		return nil, err
	}
	record, err := tree.Record(index)
	if err != nil {
		return nil, err
	}
	return &proofOutput{
		Index:  index,
		Record: record,
		Leaf:   hexutil.Encode(proof.Leaf[:]),
		Proof:  hexes,
	}, nil
}

func buildTreeOutput(records []types.Record) (*treeOutput, error) {
	tree, err := merkle.BuildMerkleTree(records)
	if err != nil {
		return nil, err
	}

	out := &treeOutput{
		Root:      tree.RootHex(),
		LeafCount: tree.LeafCount,
		Records:   tree.Len(),
		Proofs:    make([]*proofOutput, 0, tree.Len()),
	}
	for i := 0; i < tree.Len(); i++ {
		p, err := newProofOutput(tree, i)
		if err != nil {
			return nil, err
		}
		out.Proofs = append(out.Proofs, p)
	}
	return out, nil
}

func buildCommand(c *cli.Context) error {
	records, err := distribution.LoadRecordsFile(c.String("input"))
	if err != nil {
		return err
	}
	out, err := buildTreeOutput(records)
	if err != nil {
		return fmt.Errorf("failed to build tree: %w", err)
	}
	return writeJSON(c.String("output"), out)
}

func proofCommand(c *cli.Context) error {
	records, err := distribution.LoadRecordsFile(c.String("input"))
	if err != nil {
		return err
	}
	tree, err := merkle.BuildMerkleTree(records)
	if err != nil {
		return fmt.Errorf("failed to build tree: %w", err)
	}

	index := c.Int("index")
	if address := c.String("address"); address != "" {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		index, err = distribution.IndexOfAddress(tree, common.HexToAddress(address))
		if err != nil {
			return err
		}
	}
	if index < 0 {
		return fmt.Errorf("one of --index or --address is required")
	}

	p, err := newProofOutput(tree, index)
	if err != nil {
		return err
	}
	return writeJSON("", struct {
		Root string `json:"root"`
		*proofOutput
	}{tree.RootHex(), p})
}

// recordForVerify resolves the record to check from --record, --address and
// --amount, or --input with --index, in that order.
func recordForVerify(c *cli.Context) (types.Record, error) {
	if raw := c.String("record"); raw != "" {
		var record types.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("invalid --record: %w", err)
		}
		return record, nil
	}

	if address := c.String("address"); address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address %q", address)
		}
		amount, ok := util.ParseInteger(c.String("amount"))
		if !ok {
			return nil, fmt.Errorf("invalid or missing --amount %q", c.String("amount"))
		}
		return types.NewBeneficiary(common.HexToAddress(address), amount), nil
	}

	if input := c.String("input"); input != "" {
		records, err := distribution.LoadRecordsFile(input)
		if err != nil {
			return nil, err
		}
		index := c.Uint64("index")
		if index >= uint64(len(records)) {
			return nil, fmt.Errorf("index %d: %w", index, merkle.ErrIndexOutOfRange)
		}
		return records[index], nil
	}

	return nil, fmt.Errorf("one of --record, --address/--amount or --input is required")
}

func verifyCommand(c *cli.Context) error {
	root, err := merkle.ParseHash(c.String("root"))
	if err != nil {
		return err
	}
	proof, err := merkle.ParseProof(c.StringSlice("proof"))
	if err != nil {
		return err
	}
	record, err := recordForVerify(c)
	if err != nil {
		return err
	}

	valid, err := merkle.VerifyRecord(root, c.Uint64("index"), record, proof)
	if err != nil {
		return err
	}
	if err := writeJSON("", &types.VerifyResponse{Valid: valid}); err != nil {
		return err
	}
	if !valid {
		return cli.Exit("proof is invalid", 1)
	}
	return nil
}
