package distribution

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

const (
	addr1 = "0x1111111111111111111111111111111111111111"
	addr2 = "0x2222222222222222222222222222222222222222"
	addr3 = "0x3333333333333333333333333333333333333333"
	addr4 = "0x4444444444444444444444444444444444444444"

	rootFour = "0x11d18470c7cc5bae4de5cda24021f89f5f82b47d86189b8e73e1273baf04190d"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_ReadRecordsCSV(t *testing.T) {
	t.Run("with header", func(t *testing.T) {
		in := "address,amount\n" +
			addr1 + ",1000000000000000000\n" +
			addr2 + ",2000000000000000000\n"
		records, err := ReadRecordsCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, records, 2)

		a, ok := records[1].Address()
		require.True(t, ok)
		assert.Equal(t, common.HexToAddress(addr2), a)
		amount, ok := records[1].Amount()
		require.True(t, ok)
		assert.Equal(t, "2000000000000000000", amount.String())
	})

	t.Run("without header and hex amount", func(t *testing.T) {
		records, err := ReadRecordsCSV(strings.NewReader(addr1 + ", 0x10\n"))
		require.NoError(t, err)
		require.Len(t, records, 1)
		amount, _ := records[0].Amount()
		assert.Equal(t, int64(16), amount.Int64())
	})

	t.Run("comments are ignored", func(t *testing.T) {
		records, err := ReadRecordsCSV(strings.NewReader("# airdrop\n" + addr1 + ",5\n"))
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("invalid address after header", func(t *testing.T) {
		_, err := ReadRecordsCSV(strings.NewReader("address,amount\nnope,1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := ReadRecordsCSV(strings.NewReader(addr1 + ",-1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount")
	})

	t.Run("amount wider than 256 bits", func(t *testing.T) {
		twoTo256 := new(big.Int).Lsh(big.NewInt(1), 256)
		_, err := ReadRecordsCSV(strings.NewReader(addr1 + "," + twoTo256.String() + "\n"))
		require.ErrorIs(t, err, util.ErrEncodingOverflow)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("hex amount", func(t *testing.T) {
		records, err := ReadRecordsCSV(strings.NewReader(addr1 + ",0x10\n"))
		require.NoError(t, err)
		amount, _ := records[0].Amount()
		assert.Equal(t, int64(16), amount.Int64())
	})

	t.Run("wrong column count", func(t *testing.T) {
		_, err := ReadRecordsCSV(strings.NewReader(addr1 + ",1,extra\n"))
		require.Error(t, err)
	})
}

func Test_LoadRecordsFile(t *testing.T) {
	csvPath := writeFile(t, "drop.csv", strings.Join([]string{
		"address,amount",
		addr1 + ",1000000000000000000",
		addr2 + ",2000000000000000000",
		addr3 + ",3000000000000000000",
		addr4 + ",4000000000000000000",
	}, "\n"))

	jsonPath := writeFile(t, "drop.json", `[
		[{"type":"address","value":"`+addr1+`"},{"type":"uint256","value":"1000000000000000000"}],
		[{"type":"address","value":"`+addr2+`"},{"type":"uint256","value":"2000000000000000000"}],
		[{"type":"address","value":"`+addr3+`"},{"type":"uint256","value":"3000000000000000000"}],
		[{"type":"address","value":"`+addr4+`"},{"type":"uint256","value":"4000000000000000000"}]
	]`)

	fromCSV, err := LoadRecordsFile(csvPath)
	require.NoError(t, err)
	fromJSON, err := LoadRecordsFile(jsonPath)
	require.NoError(t, err)

	require.Len(t, fromCSV, 4)
	require.Len(t, fromJSON, 4)
	for i := range fromCSV {
		assert.True(t, fromCSV[i].Equal(fromJSON[i]), "record %d", i)
	}

	tree, err := merkle.BuildMerkleTree(fromCSV)
	require.NoError(t, err)
	assert.Equal(t, rootFour, tree.RootHex())
}

func Test_LoadRecordsFile_Errors(t *testing.T) {
	_, err := LoadRecordsFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = LoadRecordsFile(writeFile(t, "drop.txt", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	_, err = LoadRecordsFile(writeFile(t, "drop.json", `{"not":"an array"}`))
	require.Error(t, err)
}

func fourRecords() []types.Record {
	addrs := []string{addr1, addr2, addr3, addr4}
	records := make([]types.Record, len(addrs))
	for i, a := range addrs {
		amount := new(big.Int).Mul(big.NewInt(int64(i+1)), big.NewInt(1e18))
		records[i] = types.NewBeneficiary(common.HexToAddress(a), amount)
	}
	return records
}
