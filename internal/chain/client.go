package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"feigov/internal/domain"
	"feigov/internal/logger"
)

// Dialect selects the cheat-code namespace of the node.
type Dialect string

const (
	DialectHardhat Dialect = "hardhat"
	DialectAnvil   Dialect = "anvil"
)

// ErrReverted is returned when a mined transaction has status 0.
var ErrReverted = errors.New("transaction reverted")

// Client talks to an Ethereum node (typically a local fork).
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	dialect Dialect
	log     *logger.Logger

	// PollInterval is how often receipts are polled after sending.
	PollInterval time.Duration
}

// Dial connects to url.
func Dial(ctx context.Context, url string, dialect Dialect, log *logger.Logger) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(rc, dialect, log), nil
}

// New wraps an existing RPC client.
func New(rc *rpc.Client, dialect Dialect, log *logger.Logger) *Client {
	if dialect == "" {
		dialect = DialectHardhat
	}
	return &Client{
		rpc:          rc,
		eth:          ethclient.NewClient(rc),
		dialect:      dialect,
		log:          log,
		PollInterval: 200 * time.Millisecond,
	}
}

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// BlockTime returns the timestamp of the latest block.
func (c *Client) BlockTime(ctx context.Context) (uint64, error) {
	h, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return h.Time, nil
}

// Call performs eth_call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return out, nil
}

func (c *Client) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	b, err := c.eth.StorageAt(ctx, addr, slot, nil)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

// BalanceAt returns the ETH balance of addr.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, addr, nil)
}

var _ domain.Chain = (*Client)(nil)
