package util

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrEncodingOverflow is returned when a value does not fit the width of its declared type.
	ErrEncodingOverflow = errors.New("value overflows declared type width")

	// ErrInvalidFieldValue is returned when a value's Go kind cannot represent the declared type.
	ErrInvalidFieldValue = errors.New("value does not match declared type")

	// ErrUnsupportedType is returned for ABI types that have no fixed-width packed encoding here.
	ErrUnsupportedType = errors.New("unsupported type")
)

// ParsePackedType parses a Solidity type tag (e.g. "uint256", "address", "bytes32")
// and rejects everything that is not a fixed-width scalar.
func ParsePackedType(tag string) (abi.Type, error) {
	typ, err := abi.NewType(tag, "", nil)
	if err != nil {
		return abi.Type{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedType, tag, err)
	}
	switch typ.T {
	case abi.UintTy, abi.AddressTy, abi.FixedBytesTy, abi.BoolTy:
		return typ, nil
	default:
		return abi.Type{}, fmt.Errorf("%w: %q", ErrUnsupportedType, tag)
	}
}

// PackedSize returns the number of bytes typ occupies in a packed encoding.
func PackedSize(typ abi.Type) int {
	switch typ.T {
	case abi.UintTy:
		return typ.Size / 8
	case abi.AddressTy:
		return common.AddressLength
	case abi.FixedBytesTy:
		return typ.Size
	case abi.BoolTy:
		return 1
	}
	return 0
}

// EncodePacked encodes value the way Solidity's abi.encodePacked encodes a
// single argument of type typ. Integers are big-endian at their declared width,
// addresses are 20 bytes, bytesN are left aligned and zero padded on the right.
func EncodePacked(typ abi.Type, value interface{}) ([]byte, error) {
	switch typ.T {
	case abi.UintTy:
		v, err := ToBigInt(value)
		if err != nil {
			return nil, err
		}
		return encodeUint(v, typ.Size)
	case abi.AddressTy:
		return encodeAddress(value)
	case abi.FixedBytesTy:
		return encodeFixedBytes(value, typ.Size)
	case abi.BoolTy:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool expected, got %T", ErrInvalidFieldValue, value)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typ.String())
	}
}

// ParseInteger parses a decimal or 0x-prefixed hex integer of any size. Width
// and sign are checked by EncodePacked, so oversized values surface as
// ErrEncodingOverflow rather than as parse failures.
func ParseInteger(text string) (*big.Int, bool) {
	digits, base := strings.TrimSpace(text), 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	if digits == "" {
		return nil, false
	}
	return new(big.Int).SetString(digits, base)
}

// EncodeUint256 encodes v as a 32 byte big-endian unsigned integer.
func EncodeUint256(v *big.Int) ([]byte, error) {
	return encodeUint(v, 256)
}

func encodeUint(v *big.Int, bits int) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil integer", ErrInvalidFieldValue)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s for uint%d", ErrEncodingOverflow, v.String(), bits)
	}
	if v.BitLen() > bits {
		return nil, fmt.Errorf("%w: %d bit value for uint%d", ErrEncodingOverflow, v.BitLen(), bits)
	}
	return v.FillBytes(make([]byte, bits/8)), nil
}

func encodeAddress(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case common.Address:
		return v.Bytes(), nil
	case *common.Address:
		if v == nil {
			return nil, fmt.Errorf("%w: nil address", ErrInvalidFieldValue)
		}
		return v.Bytes(), nil
	case []byte:
		if len(v) > common.AddressLength {
			return nil, fmt.Errorf("%w: %d bytes for address", ErrEncodingOverflow, len(v))
		}
		if len(v) < common.AddressLength {
			return nil, fmt.Errorf("%w: %d bytes for address", ErrInvalidFieldValue, len(v))
		}
		return common.CopyBytes(v), nil
	case hexutil.Bytes:
		return encodeAddress([]byte(v))
	}
	return nil, fmt.Errorf("%w: address expected, got %T", ErrInvalidFieldValue, value)
}

func encodeFixedBytes(value interface{}, size int) ([]byte, error) {
	raw, err := ToBytes(value)
	if err != nil {
		return nil, err
	}
	if len(raw) > size {
		return nil, fmt.Errorf("%w: %d bytes for bytes%d", ErrEncodingOverflow, len(raw), size)
	}
	return common.RightPadBytes(raw, size), nil
}

// ToBytes converts byte-like values (slices, hashes, fixed arrays) to a byte slice copy.
func ToBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return common.CopyBytes(v), nil
	case hexutil.Bytes:
		return common.CopyBytes(v), nil
	case common.Hash:
		return v.Bytes(), nil
	case [32]byte:
		return v[:], nil
	}

	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, fmt.Errorf("%w: bytes expected, got %T", ErrInvalidFieldValue, value)
}

// ToBigInt converts the integer kinds accepted for uintN fields to a fresh *big.Int.
func ToBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidFieldValue)
		}
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	}
	return nil, fmt.Errorf("%w: integer expected, got %T", ErrInvalidFieldValue, value)
}
