package domain

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Chain is the node surface used by the executors. Cheat-code methods
// (Impersonate, SetBalance, SetStorageAt, Mine, IncreaseTime, Reset) only
// work against a forked development node.
type Chain interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTime(ctx context.Context) (uint64, error)

	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)

	// SendAs sends an unsigned transaction from an unlocked or impersonated
	// account. A nil to creates a contract.
	SendAs(ctx context.Context, from common.Address, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error)
	// SendSigned signs with key and sends a transaction, EIP-1559 where supported.
	SendSigned(ctx context.Context, key *ecdsa.PrivateKey, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error)

	Impersonate(ctx context.Context, addr common.Address) error
	StopImpersonating(ctx context.Context, addr common.Address) error
	SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error
	SetStorageAt(ctx context.Context, addr common.Address, slot, value common.Hash) error
	Mine(ctx context.Context, blocks uint64) error
	IncreaseTime(ctx context.Context, seconds uint64) error
	Reset(ctx context.Context, forkURL string, block uint64) error
}

// KeyStore persists the deployer private key encrypted under a passphrase.
type KeyStore interface {
	SaveKey(passphrase string, key []byte) error
	LoadKey(passphrase string) ([]byte, error)
}

// HistoryStore records proposal check runs.
type HistoryStore interface {
	AppendRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, proposal string, limit int) ([]RunRecord, error)
	Close() error
}

// ProposalSource lists and loads proposals by name.
type ProposalSource interface {
	Names() []string
	Get(name string) (Proposal, error)
}
