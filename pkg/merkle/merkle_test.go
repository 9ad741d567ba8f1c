package merkle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), oneEther)
}

// fourBeneficiaries is the 0x11../0x22../0x33../0x44.. list paying 1..4 ether.
func fourBeneficiaries() []types.Record {
	records := make([]types.Record, 4)
	for i := range records {
		addr := common.BytesToAddress(bytesOf(byte(0x11*(i+1)), 20))
		records[i] = types.NewBeneficiary(addr, ether(int64(i+1)))
	}
	return records
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// createTestRecords creates n records with random recipients
func createTestRecords(n int) []types.Record {
	records := make([]types.Record, n)
	for i := 0; i < n; i++ {
		var addr common.Address
		_, _ = rand.Read(addr[:])
		records[i] = types.NewBeneficiary(addr, big.NewInt(int64(i+1)))
	}
	return records
}

func randomHash() [32]byte {
	var hash [32]byte
	_, _ = rand.Read(hash[:])
	return hash
}

// TestBuildMerkleTree tests construction and proof round-trips for various sizes
func TestBuildMerkleTree(t *testing.T) {
	testCases := []struct {
		name       string
		numRecords int
		leafCount  uint64
	}{
		{"Single record", 1, 1},
		{"Two records", 2, 2},
		{"Three records", 3, 4},
		{"Four records (power of 2)", 4, 4},
		{"Five records", 5, 8},
		{"Seven records", 7, 8},
		{"Eight records (power of 2)", 8, 8},
		{"Fifteen records", 15, 16},
		{"Sixteen records (power of 2)", 16, 16},
		{"Seventeen records", 17, 32},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := createTestRecords(tc.numRecords)
			tree, err := BuildMerkleTree(records)
			require.NoError(t, err)
			require.NotNil(t, tree)

			require.Equal(t, tc.leafCount, tree.LeafCount)
			require.Len(t, tree.Hashes(), int(2*tc.leafCount-1))
			require.Equal(t, tc.numRecords, tree.Len())
			require.Equal(t, tree.Hashes()[len(tree.Hashes())-1], tree.Root)

			for i := 0; i < tc.numRecords; i++ {
				proof, err := tree.GetProof(i)
				require.NoError(t, err)
				require.Equal(t, i, proof.LeafIndex)
				require.Len(t, proof.Proof, log2(tc.leafCount))

				leaf, err := HashElement(uint64(i), records[i])
				require.NoError(t, err)
				require.Equal(t, leaf, proof.Leaf)

				require.True(t, VerifyProof(tree.Root, leaf, proof.Proof), "proof for leaf %d should be valid", i)
				require.True(t, VerifyMerkleProof(proof, tree.Root))
			}
		})
	}
}

func log2(n uint64) int {
	l := 0
	for n > 1 {
		n /= 2
		l++
	}
	return l
}

// TestBuildMerkleTreeEmpty tests that building a tree from no records fails
func TestBuildMerkleTreeEmpty(t *testing.T) {
	tree, err := BuildMerkleTree([]types.Record{})
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Nil(t, tree)

	tree, err = BuildMerkleTree(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Nil(t, tree)
}

// TestBuildMerkleTreeEncodingOverflow tests that a bad record aborts construction
func TestBuildMerkleTreeEncodingOverflow(t *testing.T) {
	records := createTestRecords(3)
	records[1] = types.Record{{Type: "uint8", Value: 256}}

	tree, err := BuildMerkleTree(records)
	require.ErrorIs(t, err, ErrEncodingOverflow)
	require.Nil(t, tree)
	require.Contains(t, err.Error(), "record 1")

	tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = BuildMerkleTree([]types.Record{{{Type: types.FieldTypeUint256, Value: tooWide}}})
	require.ErrorIs(t, err, ErrEncodingOverflow)

	_, err = BuildMerkleTree([]types.Record{{{Type: types.FieldTypeAddress, Value: make([]byte, 21)}}})
	require.ErrorIs(t, err, ErrEncodingOverflow)
}

// TestKnownRoots pins the roots against values computed independently from the
// keccak256(abi.encodePacked(...)) definition.
func TestKnownRoots(t *testing.T) {
	records := fourBeneficiaries()

	testCases := []struct {
		name    string
		records []types.Record
		root    string
	}{
		{"Four records", records, "0x11d18470c7cc5bae4de5cda24021f89f5f82b47d86189b8e73e1273baf04190d"},
		{"Three records padded", records[:3], "0x6292042487efbdf1654255844b713585acf47746093481ff3167285ed62e338d"},
		{"Single record", records[:1], "0x4da60c0f242c36ca0c001c2b61dcce6fb9a4bedf9e5695fc0257e1e844eab803"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := BuildMerkleTree(tc.records)
			require.NoError(t, err)
			require.Equal(t, tc.root, tree.RootHex())
		})
	}
}

// TestFourRecordScenario checks the four-record distribution end to end
func TestFourRecordScenario(t *testing.T) {
	records := fourBeneficiaries()
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	require.Equal(t, uint64(4), tree.LeafCount)
	require.Len(t, tree.Hashes(), 7)

	proof0, err := tree.GetProof(0)
	require.NoError(t, err)
	require.Len(t, proof0.Proof, 2)

	proof3, err := tree.GetProof(3)
	require.NoError(t, err)
	require.Len(t, proof3.Proof, 2)

	require.Equal(t, tree.Root, ComputeRoot(proof0.Leaf, proof0.Proof))
	require.Equal(t, tree.Root, ComputeRoot(proof3.Leaf, proof3.Proof))

	ok, err := VerifyRecord(tree.Root, 0, records[0], proof0.Proof)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyRecord(tree.Root, 3, records[3], proof3.Proof)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestThreeRecordScenario checks padding and the opposite-subtree sibling
func TestThreeRecordScenario(t *testing.T) {
	records := fourBeneficiaries()[:3]
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	require.Equal(t, uint64(4), tree.LeafCount)
	require.Equal(t, PadHash, tree.Leaf(3))

	proof, err := tree.GetProof(2)
	require.NoError(t, err)
	require.Len(t, proof.Proof, 2)
	require.Equal(t, PadHash, proof.Proof[0])
	require.Equal(t, HashPair(tree.Leaf(0), tree.Leaf(1)), proof.Proof[1])
	require.NotEqual(t, PadHash, proof.Proof[1])
	require.True(t, VerifyMerkleProof(proof, tree.Root))
}

// TestSingleRecord checks the degenerate one-leaf tree
func TestSingleRecord(t *testing.T) {
	records := fourBeneficiaries()[:1]
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	require.Equal(t, uint64(1), tree.LeafCount)
	require.Len(t, tree.Hashes(), 1)

	leaf, err := HashElement(0, records[0])
	require.NoError(t, err)
	require.Equal(t, leaf, tree.Root)

	proof, err := tree.GetProof(0)
	require.NoError(t, err)
	require.Empty(t, proof.Proof)
	require.True(t, VerifyMerkleProof(proof, tree.Root))
}

// TestGetProofInvalidIndex tests proof generation outside the real leaves
func TestGetProofInvalidIndex(t *testing.T) {
	tree, err := BuildMerkleTree(createTestRecords(3))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		index int
	}{
		{"Negative index", -1},
		{"Pad leaf", 3},
		{"Beyond leaf layer", 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			proof, err := tree.GetProof(tc.index)
			require.ErrorIs(t, err, ErrIndexOutOfRange)
			require.Nil(t, proof)

			hexes, err := tree.GetProofHex(tc.index)
			require.ErrorIs(t, err, ErrIndexOutOfRange)
			require.Nil(t, hexes)
		})
	}
}

// TestGetProofIndexes tests the flat index arithmetic directly
func TestGetProofIndexes(t *testing.T) {
	testCases := []struct {
		leafIndex uint64
		leafCount uint64
		expected  []uint64
	}{
		{0, 1, []uint64{}},
		{0, 2, []uint64{1}},
		{1, 2, []uint64{0}},
		{0, 4, []uint64{1, 5}},
		{2, 4, []uint64{3, 4}},
		{3, 4, []uint64{2, 4}},
		{5, 8, []uint64{4, 11, 12}},
		{7, 8, []uint64{6, 10, 12}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.leafIndex, tc.leafCount), func(t *testing.T) {
			require.Equal(t, tc.expected, GetProofIndexes(tc.leafIndex, tc.leafCount))
		})
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		require.Equal(t, want, NextPowerOfTwo(in), "NextPowerOfTwo(%d)", in)
	}
}

// TestMerkleTreeDeterminism tests that the same records always produce the same tree
func TestMerkleTreeDeterminism(t *testing.T) {
	records := createTestRecords(10)

	tree1, err := BuildMerkleTree(records)
	require.NoError(t, err)

	tree2, err := BuildMerkleTree(records)
	require.NoError(t, err)

	require.Equal(t, tree1.Root, tree2.Root)
	require.Equal(t, tree1.Hashes(), tree2.Hashes())
}

// TestMerkleTreeOrderSensitivity tests that swapping two records changes the root
func TestMerkleTreeOrderSensitivity(t *testing.T) {
	records := createTestRecords(6)

	tree1, err := BuildMerkleTree(records)
	require.NoError(t, err)

	swapped := make([]types.Record, len(records))
	copy(swapped, records)
	swapped[1], swapped[4] = swapped[4], swapped[1]

	tree2, err := BuildMerkleTree(swapped)
	require.NoError(t, err)

	require.NotEqual(t, tree1.Root, tree2.Root)
}

// TestHashPairCommutative tests that internal hashing ignores child order
func TestHashPairCommutative(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, b := randomHash(), randomHash()
		require.Equal(t, HashPair(a, b), HashPair(b, a))
	}

	require.Equal(t,
		"0x22ddafaf521412b39e3398371002be31620857ea0b5270601013b775e0cc6bad",
		hexutil.Encode(func() []byte { h := HashPair(PadHash, [32]byte{}); return h[:] }()),
	)
}

// TestHashElement tests leaf hashing
func TestHashElement(t *testing.T) {
	record := fourBeneficiaries()[0]

	hash1, err := HashElement(0, record)
	require.NoError(t, err)
	hash2, err := HashElement(0, record)
	require.NoError(t, err)
	require.Equal(t, hash1, hash2)
	require.NotEqual(t, [32]byte{}, hash1)

	t.Run("Index is bound", func(t *testing.T) {
		other, err := HashElement(1, record)
		require.NoError(t, err)
		require.NotEqual(t, hash1, other)
	})

	t.Run("Field is bound", func(t *testing.T) {
		other, err := HashElement(0, fourBeneficiaries()[1])
		require.NoError(t, err)
		require.NotEqual(t, hash1, other)
	})

	t.Run("Big index matches", func(t *testing.T) {
		big0, err := HashElementBig(big.NewInt(0), record)
		require.NoError(t, err)
		require.Equal(t, hash1, big0)
	})

	t.Run("Mismatched value", func(t *testing.T) {
		_, err := HashElement(0, types.Record{{Type: types.FieldTypeUint256, Value: "1"}})
		require.ErrorIs(t, err, ErrInvalidFieldValue)
	})
}

// TestGetElementIndex tests the reverse record lookup
func TestGetElementIndex(t *testing.T) {
	records := fourBeneficiaries()
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	for i, r := range records {
		idx, err := tree.GetElementIndex(r)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}

	t.Run("Structural equality", func(t *testing.T) {
		addr, _ := records[2].Address()
		idx, err := tree.GetElementIndex(types.NewBeneficiary(addr, ether(3)))
		require.NoError(t, err)
		require.Equal(t, 2, idx)
	})

	t.Run("Not found", func(t *testing.T) {
		addr, _ := records[2].Address()
		idx, err := tree.GetElementIndex(types.NewBeneficiary(addr, ether(5)))
		require.True(t, errors.Is(err, ErrNotFound))
		require.Equal(t, -1, idx)
	})

	t.Run("Proof for element", func(t *testing.T) {
		proof, err := tree.GetProofForElement(records[1])
		require.NoError(t, err)
		require.Equal(t, 1, proof.LeafIndex)
		require.True(t, VerifyMerkleProof(proof, tree.Root))
	})

	t.Run("First duplicate wins", func(t *testing.T) {
		dup := append([]types.Record{}, records...)
		dup = append(dup, records[0])
		tree, err := BuildMerkleTree(dup)
		require.NoError(t, err)
		idx, err := tree.GetElementIndex(records[0])
		require.NoError(t, err)
		require.Equal(t, 0, idx)
	})
}

// TestMerkleProofVerification tests proof verification with valid and invalid cases
func TestMerkleProofVerification(t *testing.T) {
	records := createTestRecords(4)
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	t.Run("Valid proof", func(t *testing.T) {
		proof, err := tree.GetProof(0)
		require.NoError(t, err)
		require.True(t, VerifyMerkleProof(proof, tree.Root))
	})

	t.Run("Invalid proof - wrong root", func(t *testing.T) {
		proof, err := tree.GetProof(0)
		require.NoError(t, err)
		require.False(t, VerifyMerkleProof(proof, [32]byte{1, 2, 3, 4, 5}))
	})

	t.Run("Invalid proof - tampered leaf", func(t *testing.T) {
		proof, err := tree.GetProof(0)
		require.NoError(t, err)
		proof.Leaf[0] ^= 0xFF
		require.False(t, VerifyMerkleProof(proof, tree.Root))
	})

	t.Run("Invalid proof - tampered sibling", func(t *testing.T) {
		proof, err := tree.GetProof(0)
		require.NoError(t, err)
		proof.Proof[0][0] ^= 0xFF
		require.False(t, VerifyMerkleProof(proof, tree.Root))
	})

	t.Run("Invalid proof - wrong index", func(t *testing.T) {
		proof, err := tree.GetProof(0)
		require.NoError(t, err)
		ok, err := VerifyRecord(tree.Root, 1, records[0], proof.Proof)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Invalid proof - nil proof", func(t *testing.T) {
		require.False(t, VerifyMerkleProof(nil, tree.Root))
	})

	t.Run("Proof does not mutate tree", func(t *testing.T) {
		proof, err := tree.GetProof(1)
		require.NoError(t, err)
		proof.Proof[0][0] ^= 0xFF
		again, err := tree.GetProof(1)
		require.NoError(t, err)
		require.True(t, VerifyMerkleProof(again, tree.Root))
	})
}

// TestMerkleTreeLargeSet tests with a larger number of records
func TestMerkleTreeLargeSet(t *testing.T) {
	sizes := []int{50, 100, 1000}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("Size_%d", size), func(t *testing.T) {
			records := createTestRecords(size)
			tree, err := BuildMerkleTree(records)
			require.NoError(t, err)
			require.Equal(t, NextPowerOfTwo(uint64(size)), tree.LeafCount)

			for _, idx := range []int{0, size / 4, size / 2, size - 1} {
				proof, err := tree.GetProof(idx)
				require.NoError(t, err)
				require.True(t, VerifyMerkleProof(proof, tree.Root))
			}
		})
	}
}

// TestHexHelpers tests the hex forms of root and proof
func TestHexHelpers(t *testing.T) {
	tree, err := BuildMerkleTree(fourBeneficiaries())
	require.NoError(t, err)

	hexes, err := tree.GetProofHex(2)
	require.NoError(t, err)
	require.Len(t, hexes, 2)

	proof, err := ParseProof(hexes)
	require.NoError(t, err)

	root, err := ParseHash(tree.RootHex())
	require.NoError(t, err)
	require.Equal(t, tree.Root, root)

	ok, err := VerifyRecord(root, 2, fourBeneficiaries()[2], proof)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = ParseHash("0x1234")
	require.Error(t, err)
	_, err = ParseProof([]string{"nothex"})
	require.Error(t, err)
}

// TestRecordAccessor tests reading records back out of the tree
func TestRecordAccessor(t *testing.T) {
	records := fourBeneficiaries()
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	r, err := tree.Record(3)
	require.NoError(t, err)
	require.True(t, r.Equal(records[3]))

	_, err = tree.Record(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

// TestTreeIsolatedFromInput tests that mutating the input or an accessor result
// after construction does not change what the tree holds
func TestTreeIsolatedFromInput(t *testing.T) {
	records := fourBeneficiaries()
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)
	want := fourBeneficiaries()[0]

	// replace a field and mutate an amount in place
	records[0][1] = types.Field{Type: types.FieldTypeUint256, Value: big.NewInt(999)}
	records[1][1].Value.(*big.Int).SetInt64(7)

	got, err := tree.Record(0)
	require.NoError(t, err)
	require.True(t, got.Equal(want))

	_, err = tree.GetElementIndex(records[0])
	require.ErrorIs(t, err, ErrNotFound)
	idx, err := tree.GetElementIndex(want)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	idx, err = tree.GetElementIndex(fourBeneficiaries()[1])
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	// mutating an accessor result must not leak back either
	got[1].Value.(*big.Int).SetInt64(5)
	got[0] = types.Field{Type: types.FieldTypeUint256, Value: big.NewInt(1)}
	again, err := tree.Record(0)
	require.NoError(t, err)
	require.True(t, again.Equal(want))

	proof, err := tree.GetProof(0)
	require.NoError(t, err)
	ok, err := VerifyRecord(tree.Root, 0, again, proof.Proof)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestConcurrentReads tests that many goroutines can read one tree at once
func TestConcurrentReads(t *testing.T) {
	records := createTestRecords(37)
	tree, err := BuildMerkleTree(records)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(records); i += workers {
				proof, err := tree.GetProof(i)
				if err != nil {
					errs <- err
					return
				}
				if !VerifyMerkleProof(proof, tree.Root) {
					errs <- fmt.Errorf("proof for %d does not verify", i)
					return
				}
				idx, err := tree.GetElementIndex(records[i])
				if err != nil {
					errs <- err
					return
				}
				if idx != i {
					errs <- fmt.Errorf("record %d found at %d", i, idx)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
