package util

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func FuzzPrivateKeyAddressDerivation(f *testing.F) {
	f.Add(make([]byte, 32), true)
	f.Add([]byte("distributor"), false)

	f.Fuzz(func(t *testing.T, seed []byte, prefixed bool) {
		keyHex := hex.EncodeToString(crypto.Keccak256(seed))
		if prefixed {
			keyHex = "0x" + keyHex
		}

		pk, err := StringToECDSAPrivateKey(keyHex)
		if err != nil {
			// zero or >= curve order
			return
		}

		fromKey, err := DeriveAddressFromECDSAPrivateKey(pk)
		require.NoError(t, err)
		require.Equal(t, crypto.PubkeyToAddress(pk.PublicKey), fromKey)

		fromString, err := DeriveAddressFromECDSAPrivateKeyString(keyHex)
		require.NoError(t, err)
		require.Equal(t, fromKey, fromString)
	})
}

func FuzzPackedConcatenation(f *testing.F) {
	f.Add([]byte{1, 2, 3, 4, 5}, uint8(2))
	f.Add([]byte{}, uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, width uint8) {
		if width == 0 {
			width = 1
		}

		var chunks [][]byte
		for start := 0; start < len(data); start += int(width) {
			end := min(start+int(width), len(data))
			chunks = append(chunks, data[start:end])
		}

		flat := Flatten(chunks)
		require.True(t, bytes.Equal(data, flat))

		lengths := Map(chunks, func(c []byte, _ uint64) int { return len(c) })
		total := Reduce(lengths, func(acc, n int) int { return acc + n }, 0)
		require.Equal(t, len(data), total)

		if len(flat) > 0 {
			flat[0] ^= 0xff
			require.NotEqual(t, flat[0], data[0], "Flatten must copy")
		}
	})
}
