package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

// FieldType is a Solidity type tag that determines how a field value is packed.
type FieldType string

func (t FieldType) String() string {
	return string(t)
}

// PackedType parses the tag into its ABI type. Only fixed-width scalars are accepted.
func (t FieldType) PackedType() (abi.Type, error) {
	return util.ParsePackedType(string(t))
}

const (
	FieldTypeUint256 FieldType = "uint256"
	FieldTypeUint128 FieldType = "uint128"
	FieldTypeUint64  FieldType = "uint64"
	FieldTypeAddress FieldType = "address"
	FieldTypeBytes32 FieldType = "bytes32"
	FieldTypeBool    FieldType = "bool"
)

// Field is a single typed value of a Record.
//
// Accepted Go values per type class:
//   - uintN:   *big.Int or any native integer kind
//   - address: common.Address, *common.Address or a byte slice of exactly 20 bytes
//   - bytesN:  []byte, hexutil.Bytes, common.Hash or a byte array of at most N bytes
//   - bool:    bool
type Field struct {
	Type  FieldType
	Value interface{}
}

// Packed returns the field's abi.encodePacked encoding.
func (f Field) Packed() ([]byte, error) {
	typ, err := f.Type.PackedType()
	if err != nil {
		return nil, err
	}
	out, err := util.EncodePacked(typ, f.Value)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Type, err)
	}
	return out, nil
}

type fieldJSON struct {
	Type  FieldType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the field as {"type": ..., "value": "..."} with the value
// in its canonical string form: decimal integers, checksummed addresses, 0x hex bytes.
func (f Field) MarshalJSON() ([]byte, error) {
	typ, err := f.Type.PackedType()
	if err != nil {
		return nil, err
	}

	var value string
	switch typ.T {
	case abi.UintTy:
		v, err := util.ToBigInt(f.Value)
		if err != nil {
			return nil, err
		}
		value = v.String()
	case abi.AddressTy:
		packed, err := util.EncodePacked(typ, f.Value)
		if err != nil {
			return nil, err
		}
		value = common.BytesToAddress(packed).Hex()
	case abi.FixedBytesTy:
		raw, err := util.ToBytes(f.Value)
		if err != nil {
			return nil, err
		}
		value = hexutil.Encode(raw)
	case abi.BoolTy:
		b, ok := f.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool expected, got %T", util.ErrInvalidFieldValue, f.Value)
		}
		value = strconv.FormatBool(b)
	}

	rawValue, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldJSON{Type: f.Type, Value: rawValue})
}

// UnmarshalJSON accepts the value either as a JSON string or as a bare JSON
// number/boolean and decodes it into the canonical Go value for the type.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := raw.Type.PackedType()
	if err != nil {
		return err
	}

	text := strings.TrimSpace(string(raw.Value))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw.Value, &text); err != nil {
			return err
		}
	}
	if text == "" || text == "null" {
		return fmt.Errorf("%w: missing value for %s", util.ErrInvalidFieldValue, raw.Type)
	}

	value, err := parseValue(typ, text)
	if err != nil {
		return fmt.Errorf("field %s: %w", raw.Type, err)
	}
	f.Type = raw.Type
	f.Value = value
	return nil
}

func parseValue(typ abi.Type, text string) (interface{}, error) {
	switch typ.T {
	case abi.UintTy:
		v, ok := util.ParseInteger(text)
		if !ok {
			return nil, fmt.Errorf("%w: invalid integer %q", util.ErrInvalidFieldValue, text)
		}
		if _, err := util.EncodePacked(typ, v); err != nil {
			return nil, err
		}
		return v, nil
	case abi.AddressTy:
		if !common.IsHexAddress(text) {
			return nil, fmt.Errorf("%w: invalid address %q", util.ErrInvalidFieldValue, text)
		}
		return common.HexToAddress(text), nil
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex %q: %v", util.ErrInvalidFieldValue, text, err)
		}
		return b, nil
	case abi.BoolTy:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid bool %q", util.ErrInvalidFieldValue, text)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedType, typ.String())
}

// Record is one beneficiary entry: an ordered list of typed fields.
type Record []Field

// NewBeneficiary builds the common (address, uint256 amount) record.
func NewBeneficiary(recipient common.Address, amount *big.Int) Record {
	return Record{
		{Type: FieldTypeAddress, Value: recipient},
		{Type: FieldTypeUint256, Value: new(big.Int).Set(amount)},
	}
}

// Clone returns a deep copy of r. Integer and byte-slice values are copied so
// the clone shares no mutable state with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for i, f := range r {
		out[i] = Field{Type: f.Type, Value: cloneValue(f.Value)}
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch v := v.(type) {
	case *big.Int:
		if v == nil {
			return v
		}
		return new(big.Int).Set(v)
	case []byte:
		return common.CopyBytes(v)
	case hexutil.Bytes:
		return hexutil.Bytes(common.CopyBytes(v))
	case *common.Address:
		if v == nil {
			return v
		}
		addr := *v
		return &addr
	}
	return v
}

// Packed concatenates the packed encodings of every field, in order, with no separators.
func (r Record) Packed() ([]byte, error) {
	encoded := make([][]byte, 0, len(r))
	for i, f := range r {
		b, err := f.Packed()
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		encoded = append(encoded, b)
	}
	return util.Flatten(encoded), nil
}

// Equal reports structural equality: same type tags in the same order and the
// same canonical encoding for every value. Records that cannot be encoded are
// never equal to anything.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i].Type != other[i].Type {
			return false
		}
		a, err := r[i].Packed()
		if err != nil {
			return false
		}
		b, err := other[i].Packed()
		if err != nil {
			return false
		}
		if !bytes.Equal(a, b) {
			return false
		}
	}
	return true
}

// Address returns the first address field of the record.
func (r Record) Address() (common.Address, bool) {
	for _, f := range r {
		if f.Type != FieldTypeAddress {
			continue
		}
		typ, err := f.Type.PackedType()
		if err != nil {
			return common.Address{}, false
		}
		packed, err := util.EncodePacked(typ, f.Value)
		if err != nil {
			return common.Address{}, false
		}
		return common.BytesToAddress(packed), true
	}
	return common.Address{}, false
}

// Amount returns the first uint256 field of the record.
func (r Record) Amount() (*big.Int, bool) {
	for _, f := range r {
		if f.Type != FieldTypeUint256 {
			continue
		}
		v, err := util.ToBigInt(f.Value)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// Distribution is a committed beneficiary list together with its merkle root.
type Distribution struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Root      common.Hash `json:"root"`
	LeafCount uint64      `json:"leafCount"`
	Records   []Record    `json:"records"`
	CreatedAt int64       `json:"createdAt"`
}

// Summary drops the records, which can be large.
func (d *Distribution) Summary() *DistributionSummary {
	return &DistributionSummary{
		ID:          d.ID,
		Name:        d.Name,
		Root:        d.Root,
		LeafCount:   d.LeafCount,
		RecordCount: len(d.Records),
		CreatedAt:   d.CreatedAt,
	}
}
