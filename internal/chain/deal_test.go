package chain_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/chain"
	"feigov/internal/chain/chaintest"
)

var (
	token  = common.HexToAddress("0x956F47F50A910163D8BF957Cf5846D573E7f87CA")
	holder = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
)

// installToken makes token.balanceOf read a mapping at mappingSlot.
func installToken(f *chaintest.Fake, mappingSlot uint64, vyper bool) {
	f.Handle(token, "balanceOf(address)", func(_ common.Address, _ *big.Int, data []byte) ([]byte, error) {
		who := common.BytesToAddress(data[4:36])
		v, err := f.StorageAt(context.Background(), token, chain.BalanceSlot(who, mappingSlot, vyper))
		return v.Bytes(), err
	})
}

func TestDeal_FindsSolidityMapping(t *testing.T) {
	f := chaintest.New()
	installToken(f, 3, false)

	// Unrelated state in a searched slot must survive.
	other := chain.BalanceSlot(holder, 1, false)
	f.Storage[token] = map[common.Hash]common.Hash{other: common.HexToHash("0x42")}

	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	slot, err := chain.Deal(context.Background(), f, token, holder, amount, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), slot)

	bal, err := chain.TokenBalance(context.Background(), f, token, holder)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(bal))
	assert.Equal(t, common.HexToHash("0x42"), f.Storage[token][other])
}

func TestDeal_FindsVyperMapping(t *testing.T) {
	f := chaintest.New()
	installToken(f, 0, true)

	slot, err := chain.Deal(context.Background(), f, token, holder, big.NewInt(9), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), slot)
}

func TestDeal_NotFound(t *testing.T) {
	f := chaintest.New()
	installToken(f, 50, false)

	_, err := chain.Deal(context.Background(), f, token, holder, big.NewInt(9), 5)
	assert.ErrorIs(t, err, chain.ErrSlotNotFound)
	for _, v := range f.Storage[token] {
		assert.Equal(t, common.Hash{}, v, "searched slots are restored")
	}
}

func TestDeal_RejectsAmountOutsideUint256(t *testing.T) {
	f := chaintest.New()
	installToken(f, 0, false)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	for _, amount := range []*big.Int{tooBig, big.NewInt(-1), nil} {
		_, err := chain.Deal(context.Background(), f, token, holder, amount, 4)
		assert.ErrorIs(t, err, chain.ErrAmountRange)
	}
	assert.Empty(t, f.Storage[token])

	ceiling := new(big.Int).Sub(tooBig, big.NewInt(1))
	_, err := chain.Deal(context.Background(), f, token, holder, ceiling, 4)
	require.NoError(t, err)
	bal, err := chain.TokenBalance(context.Background(), f, token, holder)
	require.NoError(t, err)
	assert.Equal(t, 0, ceiling.Cmp(bal))
}
