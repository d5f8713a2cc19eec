package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrSlotNotFound is returned when no searched slot holds the balance mapping.
var ErrSlotNotFound = errors.New("balance mapping slot not found")

// ErrAmountRange is returned for amounts that do not fit a uint256 word.
var ErrAmountRange = errors.New("amount out of uint256 range")

var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

// marker is written while searching; it is unlikely to be a real balance.
var marker = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000deadbeef")

// BalanceSlot returns the storage key of holder in a mapping at slot.
// Solidity lays out keccak256(key ‖ slot); Vyper uses keccak256(slot ‖ key).
func BalanceSlot(holder common.Address, slot uint64, vyper bool) common.Hash {
	k := common.LeftPadBytes(holder.Bytes(), 32)
	s := common.LeftPadBytes(new(big.Int).SetUint64(slot).Bytes(), 32)
	if vyper {
		return crypto.Keccak256Hash(s, k)
	}
	return crypto.Keccak256Hash(k, s)
}

// TokenBalance calls token.balanceOf(holder).
func TokenBalance(ctx context.Context, c Storage, token, holder common.Address) (*big.Int, error) {
	data := append(append([]byte(nil), balanceOfSelector...), common.LeftPadBytes(holder.Bytes(), 32)...)
	out, err := c.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("balanceOf: short return data")
	}
	return new(big.Int).SetBytes(out[:32]), nil
}

// Storage is the subset of domain.Chain Deal needs.
type Storage interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
	SetStorageAt(ctx context.Context, addr common.Address, slot, value common.Hash) error
}

// Deal sets holder's ERC20 balance of token to amount by locating the
// balance mapping among slots [0, maxSlot). Slots that do not match
// are restored. It returns the mapping slot it wrote.
func Deal(ctx context.Context, c Storage, token, holder common.Address, amount *big.Int, maxSlot uint64) (uint64, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return 0, fmt.Errorf("%w: %v", ErrAmountRange, amount)
	}
	for slot := uint64(0); slot < maxSlot; slot++ {
		for _, vyper := range []bool{false, true} {
			key := BalanceSlot(holder, slot, vyper)
			prev, err := c.StorageAt(ctx, token, key)
			if err != nil {
				return 0, err
			}
			if err := c.SetStorageAt(ctx, token, key, marker); err != nil {
				return 0, err
			}
			bal, err := TokenBalance(ctx, c, token, holder)
			if err == nil && common.BigToHash(bal) == marker {
				if err := c.SetStorageAt(ctx, token, key, common.BigToHash(amount)); err != nil {
					return 0, err
				}
				return slot, nil
			}
			if err := c.SetStorageAt(ctx, token, key, prev); err != nil {
				return 0, err
			}
		}
	}
	return 0, fmt.Errorf("%w: %s after %d slots", ErrSlotNotFound, token.Hex(), maxSlot)
}
