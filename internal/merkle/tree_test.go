package merkle_test

import (
	"bytes"
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/merkle"
)

func makeLeaves(t *testing.T, n int) []common.Hash {
	t.Helper()
	leaves := make([]common.Hash, 0, n)
	for i := 0; i < n; i++ {
		holder := common.BigToAddress(big.NewInt(int64(i + 1)))
		leaf, err := merkle.Leaf(holder, big.NewInt(int64(1000*(i+1))))
		require.NoError(t, err)
		leaves = append(leaves, leaf)
	}
	return leaves
}

func TestLeaf_MatchesPackedEncoding(t *testing.T) {
	holder := common.HexToAddress("0x11e52c75998fe2E7928B191bfc5B25937Ca16741")
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)

	got, err := merkle.Leaf(holder, amount)
	require.NoError(t, err)

	want := crypto.Keccak256Hash(holder.Bytes(), common.LeftPadBytes(amount.Bytes(), 32))
	assert.Equal(t, want, got)
}

func TestLeaf_RejectsOutOfRange(t *testing.T) {
	holder := common.HexToAddress("0x96fa6ACfc5F683Db191234c74D315e5D732b07c0")

	_, err := merkle.Leaf(holder, big.NewInt(-1))
	assert.ErrorIs(t, err, merkle.ErrAmountRange)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = merkle.Leaf(holder, tooBig)
	assert.ErrorIs(t, err, merkle.ErrAmountRange)
}

func TestNew_Empty(t *testing.T) {
	_, err := merkle.New(nil)
	assert.ErrorIs(t, err, merkle.ErrEmptyTree)
}

func TestNew_Duplicate(t *testing.T) {
	leaves := makeLeaves(t, 2)
	_, err := merkle.New(append(leaves, leaves[0]))
	assert.ErrorIs(t, err, merkle.ErrDuplicateLeaf)
}

func TestSingleLeafRootIsLeaf(t *testing.T) {
	leaves := makeLeaves(t, 1)
	tree, err := merkle.New(leaves)
	require.NoError(t, err)

	assert.Equal(t, leaves[0], tree.Root())
	proof, err := tree.Proof(leaves[0])
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, merkle.Verify(proof, leaves[0], tree.Root()))
}

func TestTwoLeavesHashSorted(t *testing.T) {
	leaves := makeLeaves(t, 2)
	tree, err := merkle.New(leaves)
	require.NoError(t, err)

	a, b := leaves[0], leaves[1]
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	assert.Equal(t, crypto.Keccak256Hash(a[:], b[:]), tree.Root())
}

func TestOddLeafIsPromoted(t *testing.T) {
	leaves := makeLeaves(t, 3)
	tree, err := merkle.New(leaves)
	require.NoError(t, err)

	sorted := tree.Leaves()
	pair := func(x, y common.Hash) common.Hash {
		if bytes.Compare(x[:], y[:]) > 0 {
			x, y = y, x
		}
		return crypto.Keccak256Hash(x[:], y[:])
	}
	assert.Equal(t, pair(pair(sorted[0], sorted[1]), sorted[2]), tree.Root())

	proof, err := tree.Proof(sorted[2])
	require.NoError(t, err)
	assert.Len(t, proof, 1)
}

func TestEveryLeafVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16, 33, 100} {
		leaves := makeLeaves(t, n)
		tree, err := merkle.New(leaves)
		require.NoError(t, err)
		require.NoError(t, tree.VerifyAll(), "n=%d", n)

		for _, leaf := range leaves {
			proof, err := tree.Proof(leaf)
			require.NoError(t, err)
			assert.True(t, merkle.Verify(proof, leaf, tree.Root()), "n=%d", n)
		}
	}
}

func TestRootIndependentOfInputOrder(t *testing.T) {
	leaves := makeLeaves(t, 25)
	tree, err := merkle.New(leaves)
	require.NoError(t, err)

	shuffled := append([]common.Hash(nil), leaves...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	other, err := merkle.New(shuffled)
	require.NoError(t, err)

	assert.Equal(t, tree.Root(), other.Root())
}

func TestProofRejectsWrongLeafAndRoot(t *testing.T) {
	leaves := makeLeaves(t, 9)
	tree, err := merkle.New(leaves)
	require.NoError(t, err)

	proof, err := tree.Proof(leaves[3])
	require.NoError(t, err)

	assert.False(t, merkle.Verify(proof, leaves[4], tree.Root()))
	assert.False(t, merkle.Verify(proof, leaves[3], common.Hash{1}))

	_, err = tree.Proof(common.Hash{0xde, 0xad})
	assert.ErrorIs(t, err, merkle.ErrLeafNotFound)
}
