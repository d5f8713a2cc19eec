package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"

	"feigov/internal/chain"
	"feigov/internal/crypto"
	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/services/keys"
	"feigov/internal/services/proposal"
	"feigov/internal/services/redeemer"
	"feigov/internal/services/snapshot"
	"feigov/internal/store"
)

// ErrNoMainnetKey is returned when a mainnet deploy has no key source.
var ErrNoMainnetKey = errors.New("MAINNET_PRIVATE_KEY not set, please export env or set in .env file, or import a key")

// Wire holds the lazily opened connections of an App.
type Wire struct {
	mu      sync.Mutex
	chain   *chain.Client
	history *store.SQLiteHistory
}

// New loads the address book, allowlist and proposal registry named by
// cfg and constructs the services.
func New(cfg Config, log *logger.Logger) (*App, error) {
	book := domain.AddressBook{}
	if cfg.AddressBook != "" {
		b, err := store.LoadAddressBook(cfg.AddressBook)
		if err != nil {
			return nil, err
		}
		book = b
	}
	var allow []common.Address
	if cfg.Allowlist != "" {
		a, err := store.LoadAllowlist(cfg.Allowlist)
		if err != nil {
			return nil, err
		}
		allow = a
	}
	reg, err := proposal.NewRegistry(cfg.ProposalsIndex, cfg.ProposalsDir)
	if err != nil {
		return nil, err
	}
	ks := store.NewKeyFileStore(cfg.KeyDir)

	return &App{
		Config:    cfg,
		Log:       log,
		Book:      book,
		Allowlist: allow,
		Proposals: reg,
		Snapshots: snapshot.New(allow, cfg.Workers, log),
		Keys:      keys.New(ks),
		KeyStore:  ks,
		w:         &Wire{},
	}, nil
}

// Chain dials the configured node once.
func (a *App) Chain(ctx context.Context) (*chain.Client, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if a.w.chain != nil {
		return a.w.chain, nil
	}
	c, err := chain.Dial(ctx, a.Config.RPCURL, chain.Dialect(a.Config.Dialect), a.Log)
	if err != nil {
		return nil, err
	}
	a.w.chain = c
	return c, nil
}

// History opens the run history database once.
func (a *App) History() (*store.SQLiteHistory, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if a.w.history != nil {
		return a.w.history, nil
	}
	h, err := store.OpenHistory(a.Config.HistoryPath)
	if err != nil {
		return nil, err
	}
	a.w.history = h
	return h, nil
}

// DeployKey picks the signing key: the local dev key on a fork, otherwise
// MAINNET_PRIVATE_KEY or the imported key unlocked with passphrase.
func (a *App) DeployKey(passphrase string) (*ecdsa.PrivateKey, error) {
	if a.Config.Network == NetworkFork {
		return crypto.DevKey(), nil
	}
	if a.Config.PrivateKey != "" {
		return crypto.ParseKey(a.Config.PrivateKey)
	}
	if a.KeyStore.Exists() && passphrase != "" {
		return a.Keys.Load(passphrase)
	}
	return nil, ErrNoMainnetKey
}

// Redeemer returns the deploy service over the dialed chain.
func (a *App) Redeemer(ctx context.Context) (*redeemer.Service, error) {
	c, err := a.Chain(ctx)
	if err != nil {
		return nil, err
	}
	return redeemer.New(c, a.Log), nil
}

// Checker returns a proposal checker recording into the history database.
// Deploys use the key chosen by DeployKey when one is available.
func (a *App) Checker(ctx context.Context, passphrase string) (*proposal.Checker, error) {
	c, err := a.Chain(ctx)
	if err != nil {
		return nil, err
	}
	h, err := a.History()
	if err != nil {
		return nil, err
	}
	opts := []proposal.CheckerOption{proposal.WithHistory(h)}
	switch key, err := a.DeployKey(passphrase); {
	case err == nil:
		opts = append(opts, proposal.WithDeployer(key, a.Config.ArtifactsDir))
	case errors.Is(err, ErrNoMainnetKey):
		a.Log.Debug("no deployer key, deploys disabled")
	default:
		return nil, fmt.Errorf("deployer key: %w", err)
	}
	return proposal.NewChecker(c, common.HexToAddress(a.Config.Voter), a.Log, opts...), nil
}

// Close releases the chain connection and history database.
func (a *App) Close() error {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	var err error
	if a.w.chain != nil {
		a.w.chain.Close()
		a.w.chain = nil
	}
	if a.w.history != nil {
		err = multierr.Append(err, a.w.history.Close())
		a.w.history = nil
	}
	return err
}
