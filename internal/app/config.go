package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Network selects how deploy keys are chosen.
type Network string

const (
	NetworkFork    Network = "fork"
	NetworkMainnet Network = "mainnet"
)

// DefaultVoter holds enough delegated votes to pass a proposal on a fork.
const DefaultVoter = "0xB8f482539F2d3Ae2C9ea6076894df36D1f632775"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home string `yaml:"-"` // config directory, e.g. $HOME/.feigov

	RPCURL    string  `yaml:"rpc_url"`
	ForkURL   string  `yaml:"fork_url"`
	ForkBlock uint64  `yaml:"fork_block"`
	Dialect   string  `yaml:"dialect"`
	Network   Network `yaml:"network"`
	Voter     string  `yaml:"voter"`

	AddressBook    string `yaml:"address_book"`
	Allowlist      string `yaml:"allowlist"`
	ProposalsIndex string `yaml:"proposals_index"`
	ProposalsDir   string `yaml:"proposals_dir"`
	ArtifactsDir   string `yaml:"artifacts_dir"`
	HistoryPath    string `yaml:"history_path"`
	KeyDir         string `yaml:"key_dir"`

	Workers int    `yaml:"workers"`
	LogMode string `yaml:"log_mode"`

	// Environment only.
	PrivateKey   string `yaml:"-"`
	Proposal     string `yaml:"-"`
	Setup        bool   `yaml:"-"`
	ReadCROracle bool   `yaml:"-"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(home string) Config {
	return Config{
		Home:        home,
		RPCURL:      "http://127.0.0.1:8545",
		Dialect:     "hardhat",
		Network:     NetworkFork,
		Voter:       DefaultVoter,
		HistoryPath: filepath.Join(home, "history.db"),
		KeyDir:      home,
		Workers:     4,
		LogMode:     "dev",
	}
}

// DefaultHome returns ~/.feigov.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".feigov"), nil
}

// LoadConfig reads path over the defaults, then applies .env and
// environment overrides. A missing file yields the defaults.
func LoadConfig(home, path string) (Config, error) {
	cfg := DefaultConfig(home)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env never overrides variables already exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FEIGOV_RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("FEIGOV_FORK_URL"); v != "" {
		c.ForkURL = v
	}
	if v := os.Getenv("MAINNET_PRIVATE_KEY"); v != "" {
		c.PrivateKey = v
	}
	if v := os.Getenv("DEPLOY_FILE"); v != "" {
		c.Proposal = v
	}
	c.Setup = c.Setup || envBool("DO_SETUP")
	c.ReadCROracle = c.ReadCROracle || envBool("READ_CR_ORACLE")
}

// envBool treats any set value other than a parseable false as true.
func envBool(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b
}

// Validate checks option values.
func (c *Config) Validate() error {
	switch c.Network {
	case NetworkFork, NetworkMainnet:
	default:
		return fmt.Errorf("network must be %q or %q, got %q", NetworkFork, NetworkMainnet, c.Network)
	}
	switch c.Dialect {
	case "hardhat", "anvil":
	default:
		return fmt.Errorf("dialect must be hardhat or anvil, got %q", c.Dialect)
	}
	if !common.IsHexAddress(c.Voter) {
		return fmt.Errorf("voter %q is not an address", c.Voter)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}
