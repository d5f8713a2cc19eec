package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func (c *Client) method(name string) string { return string(c.dialect) + "_" + name }

func (c *Client) cheat(ctx context.Context, method string, args ...any) error {
	c.log.Debug("rpc", "method", method)
	if err := c.rpc.CallContext(ctx, nil, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *Client) Impersonate(ctx context.Context, addr common.Address) error {
	return c.cheat(ctx, c.method("impersonateAccount"), addr)
}

func (c *Client) StopImpersonating(ctx context.Context, addr common.Address) error {
	return c.cheat(ctx, c.method("stopImpersonatingAccount"), addr)
}

func (c *Client) SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	return c.cheat(ctx, c.method("setBalance"), addr, hexutil.EncodeBig(wei))
}

func (c *Client) SetStorageAt(ctx context.Context, addr common.Address, slot, value common.Hash) error {
	return c.cheat(ctx, c.method("setStorageAt"), addr, hexutil.EncodeBig(slot.Big()), value)
}

// Mine mines blocks immediately.
func (c *Client) Mine(ctx context.Context, blocks uint64) error {
	if blocks == 0 {
		return nil
	}
	return c.cheat(ctx, c.method("mine"), hexutil.EncodeUint64(blocks))
}

// IncreaseTime moves the next block timestamp forward.
func (c *Client) IncreaseTime(ctx context.Context, seconds uint64) error {
	return c.cheat(ctx, "evm_increaseTime", seconds)
}

type forking struct {
	JSONRPCURL  string `json:"jsonRpcUrl"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

// Reset restores the fork. With an empty forkURL the node resets to its
// original fork point; block 0 means latest.
func (c *Client) Reset(ctx context.Context, forkURL string, block uint64) error {
	if forkURL == "" {
		return c.cheat(ctx, c.method("reset"))
	}
	return c.cheat(ctx, c.method("reset"), map[string]any{
		"forking": forking{JSONRPCURL: forkURL, BlockNumber: block},
	})
}

// Snapshot records the current state and returns its id.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := c.rpc.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("evm_snapshot: %w", err)
	}
	return id, nil
}

// Revert returns to a snapshot taken with Snapshot.
func (c *Client) Revert(ctx context.Context, id string) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, "evm_revert", id); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("evm_revert: snapshot %s not found", id)
	}
	return nil
}
