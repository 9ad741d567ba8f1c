package main

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

func Test_buildTreeOutput(t *testing.T) {
	records := []types.Record{
		types.NewBeneficiary(common.HexToAddress("0x1111111111111111111111111111111111111111"), big.NewInt(10)),
		types.NewBeneficiary(common.HexToAddress("0x2222222222222222222222222222222222222222"), big.NewInt(20)),
		types.NewBeneficiary(common.HexToAddress("0x3333333333333333333333333333333333333333"), big.NewInt(30)),
	}

	out, err := buildTreeOutput(records)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), out.LeafCount)
	assert.Equal(t, 3, out.Records)
	require.Len(t, out.Proofs, 3)

	root, err := merkle.ParseHash(out.Root)
	require.NoError(t, err)

	for i, p := range out.Proofs {
		assert.Equal(t, i, p.Index)
		proof, err := merkle.ParseProof(p.Proof)
		require.NoError(t, err)
		ok, err := merkle.VerifyRecord(root, uint64(i), p.Record, proof)
		require.NoError(t, err)
		assert.True(t, ok, "proof %d", i)
	}

	_, err = buildTreeOutput(nil)
	require.ErrorIs(t, err, merkle.ErrEmptyInput)
}
