package chain_test

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/chain"
)

var zeroHash = "0x" + strings.Repeat("00", 32)

func header(baseFee string) map[string]any {
	h := map[string]any{
		"parentHash":       zeroHash,
		"sha3Uncles":       zeroHash,
		"miner":            "0x" + strings.Repeat("00", 20),
		"stateRoot":        zeroHash,
		"transactionsRoot": zeroHash,
		"receiptsRoot":     zeroHash,
		"logsBloom":        "0x" + strings.Repeat("00", 256),
		"difficulty":       "0x0",
		"number":           "0x64",
		"gasLimit":         "0x1c9c380",
		"gasUsed":          "0x0",
		"timestamp":        "0x6553f100",
		"extraData":        "0x",
	}
	if baseFee != "" {
		h["baseFeePerGas"] = baseFee
	}
	return h
}

func sendSigned(t *testing.T, node *fakeNode, c *chain.Client) *types.Transaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := common.HexToAddress("0x00000000000000000000000000000000000000f2")

	rcpt, err := c.SendSigned(context.Background(), key, &to, big.NewInt(5), []byte{0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rcpt.Status)

	p := node.params("eth_sendRawTransaction")
	require.Len(t, p, 1)
	var raw string
	require.NoError(t, json.Unmarshal(p[0], &raw))
	blob, err := hexutil.Decode(raw)
	require.NoError(t, err)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(blob))
	return tx
}

func TestClient_SendSignedDynamicFee(t *testing.T) {
	c, node := newClient(t, "")
	node.results["eth_getTransactionCount"] = "0x3"
	node.results["eth_estimateGas"] = "0x5208"
	node.results["eth_getBlockByNumber"] = header("0x7")
	node.results["eth_maxPriorityFeePerGas"] = "0x1"
	node.results["eth_sendRawTransaction"] = txHash

	tx := sendSigned(t, node, c)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, int64(1), tx.GasTipCap().Int64())
	assert.Equal(t, int64(15), tx.GasFeeCap().Int64())
	assert.Equal(t, uint64(21000*12/10), tx.Gas())
	assert.NotContains(t, node.methods(), "eth_gasPrice")
}

func TestClient_SendSignedLegacyWithoutBaseFee(t *testing.T) {
	c, node := newClient(t, "")
	node.results["eth_getTransactionCount"] = "0x0"
	node.results["eth_estimateGas"] = "0x5208"
	node.results["eth_getBlockByNumber"] = header("")
	node.results["eth_gasPrice"] = "0x3b9aca00"
	node.results["eth_sendRawTransaction"] = txHash

	tx := sendSigned(t, node, c)
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, int64(1_000_000_000), tx.GasPrice().Int64())
	assert.Equal(t, []byte{0xbe, 0xef}, tx.Data())
	assert.Equal(t, int64(1), tx.ChainId().Int64())
	assert.Contains(t, node.methods(), "eth_gasPrice")
	assert.NotContains(t, node.methods(), "eth_maxPriorityFeePerGas")
}
