// Package chaintest provides an in-memory domain.Chain for tests.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"feigov/internal/domain"
)

// ErrNoHandler is returned for calls nobody registered.
var ErrNoHandler = errors.New("chaintest: no handler")

// Handler answers a call or transaction. from is the zero address for eth_call.
type Handler func(from common.Address, value *big.Int, data []byte) ([]byte, error)

// Tx is a recorded transaction.
type Tx struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
}

// Fake is a scriptable chain. Handlers are keyed by target and selector.
type Fake struct {
	mu sync.Mutex

	ID    *big.Int
	Block uint64
	Time  uint64

	handlers     map[common.Address]map[string]Handler
	Storage      map[common.Address]map[common.Hash]common.Hash
	Balances     map[common.Address]*big.Int
	Impersonated map[common.Address]bool
	Sent         []Tx
	Resets       int
	nonce        uint64
}

// New returns an empty fake at block 100.
func New() *Fake {
	return &Fake{
		ID:           big.NewInt(1),
		Block:        100,
		Time:         1_700_000_000,
		handlers:     make(map[common.Address]map[string]Handler),
		Storage:      make(map[common.Address]map[common.Hash]common.Hash),
		Balances:     make(map[common.Address]*big.Int),
		Impersonated: make(map[common.Address]bool),
	}
}

// Handle registers h for calls to target with the selector of sig.
func (f *Fake) Handle(target common.Address, sig string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[target] == nil {
		f.handlers[target] = make(map[string]Handler)
	}
	f.handlers[target][selectorHex(crypto.Keccak256([]byte(sig))[:4])] = h
}

// Word left-pads v into a 32-byte return value.
func Word(v *big.Int) []byte { return common.LeftPadBytes(v.Bytes(), 32) }

func (f *Fake) ChainID(context.Context) (*big.Int, error) { return f.ID, nil }

func (f *Fake) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Block, nil
}

func (f *Fake) BlockTime(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Time, nil
}

func (f *Fake) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	h, err := f.handler(to, data)
	if err != nil {
		return nil, err
	}
	return h(common.Address{}, new(big.Int), data)
}

func (f *Fake) StorageAt(_ context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Storage[addr][slot], nil
}

func (f *Fake) SendAs(_ context.Context, from common.Address, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	f.mu.Lock()
	if !f.Impersonated[from] {
		f.mu.Unlock()
		return nil, fmt.Errorf("sender %s not impersonated", from.Hex())
	}
	f.mu.Unlock()
	return f.send(from, to, value, data)
}

func (f *Fake) SendSigned(_ context.Context, key *ecdsa.PrivateKey, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	return f.send(crypto.PubkeyToAddress(key.PublicKey), to, value, data)
}

func (f *Fake) send(from common.Address, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	f.mu.Lock()
	f.Sent = append(f.Sent, Tx{From: from, To: to, Value: value, Data: append([]byte(nil), data...)})
	f.Block++
	f.nonce++
	nonce, block := f.nonce, f.Block
	f.mu.Unlock()

	rcpt := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: new(big.Int).SetUint64(block)}
	if to == nil {
		rcpt.ContractAddress = crypto.CreateAddress(from, nonce)
		return rcpt, nil
	}
	h, err := f.handler(*to, data)
	if errors.Is(err, ErrNoHandler) {
		return rcpt, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := h(from, value, data); err != nil {
		return nil, err
	}
	return rcpt, nil
}

func (f *Fake) Impersonate(_ context.Context, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Impersonated[addr] = true
	return nil
}

func (f *Fake) StopImpersonating(_ context.Context, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Impersonated, addr)
	return nil
}

func (f *Fake) SetBalance(_ context.Context, addr common.Address, wei *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Balances[addr] = new(big.Int).Set(wei)
	return nil
}

func (f *Fake) SetStorageAt(_ context.Context, addr common.Address, slot, value common.Hash) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Storage[addr] == nil {
		f.Storage[addr] = make(map[common.Hash]common.Hash)
	}
	f.Storage[addr][slot] = value
	return nil
}

func (f *Fake) Mine(_ context.Context, blocks uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Block += blocks
	f.Time += 12 * blocks
	return nil
}

func (f *Fake) IncreaseTime(_ context.Context, seconds uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Time += seconds
	return nil
}

func (f *Fake) Reset(context.Context, string, uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resets++
	return nil
}

func (f *Fake) handler(to common.Address, data []byte) (Handler, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: short calldata to %s", ErrNoHandler, to.Hex())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handlers[to][selectorHex(data[:4])]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoHandler, selectorHex(data[:4]), to.Hex())
	}
	return h, nil
}

func selectorHex(b []byte) string { return hex.EncodeToString(b) }

var _ domain.Chain = (*Fake)(nil)
