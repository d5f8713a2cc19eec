package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SnapshotFile is the on-disk snapshot format:
//
//	{ tokenAddress: { holderAddress: "amount", ... }, ... }
//
// Amounts are base-10 strings so values above 2^53 survive JSON.
type SnapshotFile map[string]map[string]string

// Balance is one parsed snapshot entry.
type Balance struct {
	Holder common.Address
	Amount *big.Int
}

// TokenBalances holds every claimable balance for one token.
type TokenBalances struct {
	Token    common.Address
	Balances []Balance
}

// Roots maps each token to the merkle root of its balances.
type Roots map[common.Address]common.Hash

// Claim is a holder's amount and inclusion proof.
type Claim struct {
	Amount string        `json:"amount"`
	Proof  []common.Hash `json:"proof"`
}

// Claims maps token -> holder -> claim.
type Claims map[common.Address]map[common.Address]Claim

// ClaimsFile bundles roots and claims for the proof server.
type ClaimsFile struct {
	Roots  Roots  `json:"roots"`
	Claims Claims `json:"claims"`
}

// RatesFile maps token -> FEI received per 1e18 of the token (base-10 string).
type RatesFile map[string]string

// RootsFile maps token -> hex merkle root, as written by the snapshot builder.
type RootsFile map[string]string
