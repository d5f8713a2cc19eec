package snapshot

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/store"
)

var (
	ErrTokenCount      = errors.New("snapshot token count does not match allowlist")
	ErrUnknownToken    = errors.New("token not in allowlist")
	ErrBadHolder       = errors.New("invalid holder address")
	ErrBadAmount       = errors.New("invalid amount")
	ErrDuplicateHolder = errors.New("holder listed twice")
	ErrDuplicateToken  = errors.New("token listed twice")
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Load reads a snapshot file.
func Load(path string) (domain.SnapshotFile, error) {
	var f domain.SnapshotFile
	if err := store.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return f, nil
}

// Merge overlays extra onto base. Holder entries in extra replace those in
// base for the same token; tokens only in extra are added. Address keys are
// compared case-insensitively and written in checksummed form. base is not
// modified.
func Merge(base, extra domain.SnapshotFile) (domain.SnapshotFile, error) {
	out, err := canonical(base)
	if err != nil {
		return nil, fmt.Errorf("merge base: %w", err)
	}
	add, err := canonical(extra)
	if err != nil {
		return nil, fmt.Errorf("merge extra: %w", err)
	}
	for token, holders := range add {
		if out[token] == nil {
			out[token] = holders
			continue
		}
		for h, a := range holders {
			out[token][h] = a
		}
	}
	return out, nil
}

// canonical copies f with hex address keys checksummed. Keys that are not
// addresses are kept as-is for Validate to reject.
func canonical(f domain.SnapshotFile) (domain.SnapshotFile, error) {
	out := make(domain.SnapshotFile, len(f))
	for token, holders := range f {
		tk := addrKey(token)
		if _, dup := out[tk]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateToken, tk)
		}
		m := make(map[string]string, len(holders))
		for h, a := range holders {
			hk := addrKey(h)
			if _, dup := m[hk]; dup {
				return nil, fmt.Errorf("token %s: %w: %s", tk, ErrDuplicateHolder, hk)
			}
			m[hk] = a
		}
		out[tk] = m
	}
	return out, nil
}

func addrKey(k string) string {
	if !common.IsHexAddress(k) {
		return k
	}
	return common.HexToAddress(k).Hex()
}

// ParseAmount parses a non-negative base-10 integer that fits in uint256.
func ParseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a base-10 integer", ErrBadAmount, s)
	}
	if n.Sign() < 0 || n.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s out of uint256 range", ErrBadAmount, s)
	}
	return n, nil
}

// Validate checks f against allowlist and returns the parsed balances in
// allowlist order. An empty allowlist accepts any token set.
func Validate(f domain.SnapshotFile, allowlist []common.Address) ([]domain.TokenBalances, error) {
	byToken := make(map[common.Address]map[string]string, len(f))
	for key, holders := range f {
		if !common.IsHexAddress(key) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, key)
		}
		token := common.HexToAddress(key)
		if _, dup := byToken[token]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateToken, token.Hex())
		}
		byToken[token] = holders
	}

	order := allowlist
	if len(allowlist) > 0 {
		if len(byToken) != len(allowlist) {
			return nil, fmt.Errorf("%w: have %d tokens, allowlist has %d", ErrTokenCount, len(byToken), len(allowlist))
		}
		allowed := make(map[common.Address]bool, len(allowlist))
		for _, a := range allowlist {
			allowed[a] = true
		}
		for token := range byToken {
			if !allowed[token] {
				return nil, fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
			}
		}
	} else {
		order = make([]common.Address, 0, len(byToken))
		for token := range byToken {
			order = append(order, token)
		}
		sortAddresses(order)
	}

	out := make([]domain.TokenBalances, 0, len(order))
	for _, token := range order {
		holders, ok := byToken[token]
		if !ok {
			return nil, fmt.Errorf("%w: %s missing from snapshot", ErrTokenCount, token.Hex())
		}
		tb, err := parseHolders(token, holders)
		if err != nil {
			return nil, err
		}
		out = append(out, tb)
	}
	return out, nil
}

func parseHolders(token common.Address, holders map[string]string) (domain.TokenBalances, error) {
	tb := domain.TokenBalances{Token: token, Balances: make([]domain.Balance, 0, len(holders))}
	seen := make(map[common.Address]bool, len(holders))
	for h, a := range holders {
		if !common.IsHexAddress(h) {
			return tb, fmt.Errorf("token %s: %w: %q", token.Hex(), ErrBadHolder, h)
		}
		holder := common.HexToAddress(h)
		if seen[holder] {
			return tb, fmt.Errorf("token %s: %w: %s", token.Hex(), ErrDuplicateHolder, holder.Hex())
		}
		seen[holder] = true
		amount, err := ParseAmount(a)
		if err != nil {
			return tb, fmt.Errorf("token %s holder %s: %w", token.Hex(), holder.Hex(), err)
		}
		tb.Balances = append(tb.Balances, domain.Balance{Holder: holder, Amount: amount})
	}
	sortBalances(tb.Balances)
	return tb, nil
}
