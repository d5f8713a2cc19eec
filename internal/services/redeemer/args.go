package redeemer

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"feigov/internal/domain"
	"feigov/internal/store"
)

var (
	ErrNoAllowlist  = errors.New("redeemer needs a token allowlist")
	ErrEntryCount   = errors.New("entry count does not match allowlist")
	ErrBadKey       = errors.New("key is not a token address")
	ErrMissingToken = errors.New("allowlisted token missing")
	ErrBadRate      = errors.New("invalid rate")
	ErrBadRoot      = errors.New("invalid merkle root")
)

var constructorArgs = func() abi.Arguments {
	var args abi.Arguments
	for _, ts := range []string{"address", "address[]", "uint256[]", "bytes32[]"} {
		t, err := abi.NewType(ts, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: t})
	}
	return args
}()

// Args are the redeemer constructor arguments.
type Args struct {
	Fei     common.Address
	CTokens []common.Address
	Rates   []*big.Int
	Roots   []common.Hash
}

// Pack ABI-encodes the arguments for appending to creation bytecode.
func (a Args) Pack() ([]byte, error) {
	roots := make([][32]byte, len(a.Roots))
	for i, r := range a.Roots {
		roots[i] = r
	}
	return constructorArgs.Pack(a.Fei, a.CTokens, a.Rates, roots)
}

// LoadRates reads a rates file.
func LoadRates(path string) (domain.RatesFile, error) {
	var f domain.RatesFile
	if err := store.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	return f, nil
}

// LoadRoots reads a roots file.
func LoadRoots(path string) (domain.RootsFile, error) {
	var f domain.RootsFile
	if err := store.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load roots: %w", err)
	}
	return f, nil
}

// BuildArgs validates rates and roots against allowlist and orders them by it.
func BuildArgs(fei common.Address, allowlist []common.Address, rates domain.RatesFile, roots domain.RootsFile) (Args, error) {
	if len(allowlist) == 0 {
		return Args{}, ErrNoAllowlist
	}
	rateBy, err := index("rates", rates, len(allowlist))
	if err != nil {
		return Args{}, err
	}
	rootBy, err := index("roots", roots, len(allowlist))
	if err != nil {
		return Args{}, err
	}

	a := Args{
		Fei:     fei,
		CTokens: append([]common.Address(nil), allowlist...),
		Rates:   make([]*big.Int, len(allowlist)),
		Roots:   make([]common.Hash, len(allowlist)),
	}
	for i, token := range allowlist {
		rs, ok := rateBy[token]
		if !ok {
			return Args{}, fmt.Errorf("rates: %w: %s", ErrMissingToken, token.Hex())
		}
		rate, ok := new(big.Int).SetString(strings.TrimSpace(rs), 10)
		if !ok || rate.Sign() < 0 || rate.BitLen() > 256 {
			return Args{}, fmt.Errorf("%w for %s: %q", ErrBadRate, token.Hex(), rs)
		}
		a.Rates[i] = rate

		hs, ok := rootBy[token]
		if !ok {
			return Args{}, fmt.Errorf("roots: %w: %s", ErrMissingToken, token.Hex())
		}
		root, err := hexutil.Decode(strings.TrimSpace(hs))
		if err != nil || len(root) != common.HashLength {
			return Args{}, fmt.Errorf("%w for %s: %q", ErrBadRoot, token.Hex(), hs)
		}
		a.Roots[i] = common.BytesToHash(root)
	}
	return a, nil
}

func index(what string, m map[string]string, want int) (map[common.Address]string, error) {
	if len(m) != want {
		return nil, fmt.Errorf("%s: %w: have %d, want %d", what, ErrEntryCount, len(m), want)
	}
	out := make(map[common.Address]string, len(m))
	for k, v := range m {
		if !common.IsHexAddress(k) {
			return nil, fmt.Errorf("%s: %w: %q", what, ErrBadKey, k)
		}
		out[common.HexToAddress(k)] = v
	}
	if len(out) != len(m) {
		return nil, fmt.Errorf("%s: %w: duplicate token keys", what, ErrEntryCount)
	}
	return out, nil
}
