package types

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

var testAddr = common.HexToAddress("0x00000000000000000000000000000000000000A1")

func TestRecordPacked(t *testing.T) {
	record := NewBeneficiary(testAddr, big.NewInt(5))

	packed, err := record.Packed()
	require.NoError(t, err)
	require.Len(t, packed, 20+32)
	assert.Equal(t, testAddr.Bytes(), packed[:20])
	assert.Equal(t, byte(5), packed[51])
}

func TestRecordPackedRejectsBadFields(t *testing.T) {
	t.Run("Unsupported type", func(t *testing.T) {
		_, err := Record{{Type: "string", Value: "x"}}.Packed()
		require.ErrorIs(t, err, util.ErrUnsupportedType)
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := Record{{Type: "uint8", Value: 300}}.Packed()
		require.ErrorIs(t, err, util.ErrEncodingOverflow)
	})

	t.Run("Mismatched value", func(t *testing.T) {
		_, err := Record{{Type: FieldTypeAddress, Value: "0x00000000000000000000000000000000000000A1"}}.Packed()
		require.ErrorIs(t, err, util.ErrInvalidFieldValue)
	})
}

func TestRecordEqual(t *testing.T) {
	a := NewBeneficiary(testAddr, big.NewInt(10))

	t.Run("Same content", func(t *testing.T) {
		require.True(t, a.Equal(NewBeneficiary(testAddr, big.NewInt(10))))
	})

	t.Run("Native int equals big.Int", func(t *testing.T) {
		b := Record{
			{Type: FieldTypeAddress, Value: testAddr},
			{Type: FieldTypeUint256, Value: 10},
		}
		require.True(t, a.Equal(b))
	})

	t.Run("Different amount", func(t *testing.T) {
		require.False(t, a.Equal(NewBeneficiary(testAddr, big.NewInt(11))))
	})

	t.Run("Different type tag", func(t *testing.T) {
		b := Record{
			{Type: FieldTypeAddress, Value: testAddr},
			{Type: FieldTypeUint128, Value: big.NewInt(10)},
		}
		require.False(t, a.Equal(b))
	})

	t.Run("Different length", func(t *testing.T) {
		require.False(t, a.Equal(a[:1]))
	})
}

func TestNewBeneficiaryCopiesAmount(t *testing.T) {
	amount := big.NewInt(3)
	record := NewBeneficiary(testAddr, amount)
	amount.SetInt64(4)

	got, ok := record.Amount()
	require.True(t, ok)
	require.Equal(t, int64(3), got.Int64())

	addr, ok := record.Address()
	require.True(t, ok)
	require.Equal(t, testAddr, addr)
}

func TestRecordClone(t *testing.T) {
	raw := []byte{0xab, 0xcd}
	addr := testAddr
	record := Record{
		{Type: FieldTypeUint256, Value: big.NewInt(9)},
		{Type: "bytes4", Value: raw},
		{Type: FieldTypeAddress, Value: &addr},
		{Type: "bool", Value: true},
	}
	clone := record.Clone()
	require.True(t, clone.Equal(record))

	record[0].Value.(*big.Int).SetInt64(10)
	raw[0] = 0xff
	addr = common.Address{}
	record[3] = Field{Type: "bool", Value: false}

	require.Equal(t, int64(9), clone[0].Value.(*big.Int).Int64())
	require.Equal(t, []byte{0xab, 0xcd}, clone[1].Value)
	require.Equal(t, testAddr, *clone[2].Value.(*common.Address))
	require.Equal(t, true, clone[3].Value)

	require.Nil(t, Record(nil).Clone())
}

func TestFieldJSONRoundTrip(t *testing.T) {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	record := Record{
		{Type: FieldTypeAddress, Value: testAddr},
		{Type: FieldTypeUint256, Value: amount},
		{Type: FieldTypeBytes32, Value: common.HexToHash("0x01")},
		{Type: FieldTypeBool, Value: true},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"1000000000000000000"`)
	assert.Contains(t, string(data), `"type":"address"`)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, record.Equal(decoded))
}

func TestFieldUnmarshalJSON(t *testing.T) {
	t.Run("Bare number and hex integer", func(t *testing.T) {
		var r Record
		input := `[{"type":"address","value":"0x00000000000000000000000000000000000000a1"},
			{"type":"uint256","value":42},{"type":"uint64","value":"0x2a"}]`
		require.NoError(t, json.Unmarshal([]byte(input), &r))
		require.Len(t, r, 3)

		v, ok := r.Amount()
		require.True(t, ok)
		require.Equal(t, int64(42), v.Int64())
		require.Equal(t, 0, r[2].Value.(*big.Int).Cmp(big.NewInt(42)))
	})

	t.Run("Invalid address", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"address","value":"0x1234"}`), &f)
		require.ErrorIs(t, err, util.ErrInvalidFieldValue)
	})

	t.Run("Invalid integer", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"uint256","value":"abc"}`), &f)
		require.ErrorIs(t, err, util.ErrInvalidFieldValue)
	})

	t.Run("Integer wider than 256 bits", func(t *testing.T) {
		twoTo256 := new(big.Int).Lsh(big.NewInt(1), 256)
		var r Record
		err := json.Unmarshal([]byte(`[{"type":"uint256","value":"`+twoTo256.String()+`"}]`), &r)
		require.ErrorIs(t, err, util.ErrEncodingOverflow)
		require.NotErrorIs(t, err, util.ErrInvalidFieldValue)

		var f Field
		err = json.Unmarshal([]byte(`{"type":"uint256","value":"0x1`+strings.Repeat("0", 64)+`"}`), &f)
		require.ErrorIs(t, err, util.ErrEncodingOverflow)
	})

	t.Run("Integer wider than declared width", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"uint8","value":"256"}`), &f)
		require.ErrorIs(t, err, util.ErrEncodingOverflow)

		require.NoError(t, json.Unmarshal([]byte(`{"type":"uint8","value":"255"}`), &f))
		require.Equal(t, 0, f.Value.(*big.Int).Cmp(big.NewInt(255)))
	})

	t.Run("Negative integer", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"uint256","value":"-1"}`), &f)
		require.ErrorIs(t, err, util.ErrEncodingOverflow)
	})

	t.Run("Missing value", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"uint256"}`), &f)
		require.ErrorIs(t, err, util.ErrInvalidFieldValue)
	})

	t.Run("Unsupported type", func(t *testing.T) {
		var f Field
		err := json.Unmarshal([]byte(`{"type":"string","value":"abc"}`), &f)
		require.ErrorIs(t, err, util.ErrUnsupportedType)
	})
}

func TestDistributionSummary(t *testing.T) {
	d := &Distribution{
		ID:        "id",
		Name:      "airdrop",
		Root:      common.HexToHash("0xabc"),
		LeafCount: 4,
		Records:   []Record{NewBeneficiary(testAddr, big.NewInt(1))},
		CreatedAt: 100,
	}
	s := d.Summary()
	require.Equal(t, 1, s.RecordCount)
	require.Equal(t, d.Root, s.Root)
	require.Equal(t, uint64(4), s.LeafCount)
}
