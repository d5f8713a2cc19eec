package app

import (
	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/services/keys"
	"feigov/internal/services/proposal"
	"feigov/internal/services/snapshot"
	"feigov/internal/store"
)

// App bundles the loaded inputs and services shared by commands. The chain
// client and history database are opened on first use.
type App struct {
	Config    Config
	Log       *logger.Logger
	Book      domain.AddressBook
	Allowlist []common.Address
	Proposals *proposal.Registry
	Snapshots *snapshot.Service
	Keys      *keys.Service
	KeyStore  *store.KeyFileStore

	w *Wire
}
