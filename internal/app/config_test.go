package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/app"
)

// clearEnv isolates tests from the caller's shell and any .env file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FEIGOV_RPC_URL", "FEIGOV_FORK_URL", "MAINNET_PRIVATE_KEY", "DEPLOY_FILE", "DO_SETUP", "READ_CR_ORACLE"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg, err := app.LoadConfig(home, filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, app.DefaultConfig(home), cfg)
	assert.Equal(t, app.NetworkFork, cfg.Network)
	assert.Equal(t, filepath.Join(home, "history.db"), cfg.HistoryPath)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc_url: http://file:8545
dialect: anvil
network: mainnet
workers: 8
address_book: book.yaml
`), 0o600))

	t.Setenv("FEIGOV_RPC_URL", "http://env:8545")
	t.Setenv("MAINNET_PRIVATE_KEY", "0xabc")
	t.Setenv("DEPLOY_FILE", "tip_121b")
	t.Setenv("DO_SETUP", "true")
	t.Setenv("READ_CR_ORACLE", "false")

	cfg, err := app.LoadConfig(home, path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:8545", cfg.RPCURL)
	assert.Equal(t, "anvil", cfg.Dialect)
	assert.Equal(t, app.NetworkMainnet, cfg.Network)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "book.yaml", cfg.AddressBook)
	assert.Equal(t, "0xabc", cfg.PrivateKey)
	assert.Equal(t, "tip_121b", cfg.Proposal)
	assert.True(t, cfg.Setup)
	assert.False(t, cfg.ReadCROracle)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("READ_CR_ORACLE"))
	require.NoError(t, os.WriteFile(".env", []byte("READ_CR_ORACLE=1\n"), 0o600))

	cfg, err := app.LoadConfig(t.TempDir(), "missing.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.ReadCROracle)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	for name, body := range map[string]string{
		"network": "network: testnet\n",
		"dialect": "dialect: ganache\n",
		"workers": "workers: 0\n",
		"voter":   "voter: nobody\n",
		"yaml":    "rpc_url: [\n",
	} {
		path := filepath.Join(home, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := app.LoadConfig(home, path)
		assert.Error(t, err, name)
	}
}
