package merkle

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ErrAmountRange is returned for amounts that do not fit a uint256.
var ErrAmountRange = errors.New("amount out of uint256 range")

// Leaf returns keccak256(holder ‖ uint256(amount)), the packed encoding the
// redeemer contract hashes when checking a claim.
func Leaf(holder common.Address, amount *big.Int) (common.Hash, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return common.Hash{}, ErrAmountRange
	}
	var buf [common.AddressLength + 32]byte
	copy(buf[:common.AddressLength], holder[:])
	amount.FillBytes(buf[common.AddressLength:])
	return keccak(buf[:]), nil
}

func keccak(parts ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}
