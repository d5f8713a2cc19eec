package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"feigov/internal/app"
	"feigov/internal/logger"
)

var (
	home       string
	configPath string
	passphrase string
	verbose    bool
	appCtx     *app.App

	rpcURL  string
	dialect string
	network string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "feigov",
		Short:        "Governance, snapshot and fork tooling for the protocol shutdown",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := app.DefaultHome()
				if err != nil {
					return err
				}
				home = dir
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if configPath == "" {
				configPath = filepath.Join(home, "config.yaml")
			}
			cfg, err := app.LoadConfig(home, configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("rpc") {
				cfg.RPCURL = rpcURL
			}
			if flags.Changed("dialect") {
				cfg.Dialect = dialect
			}
			if flags.Changed("network") {
				cfg.Network = app.Network(network)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(cfg.LogMode, verbose)
			if err != nil {
				return err
			}
			appCtx, err = app.New(cfg, log)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "state dir (default ~/.feigov)")
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the deployer key")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&rpcURL, "rpc", "", "node JSON-RPC URL (overrides FEIGOV_RPC_URL)")
	pf.StringVar(&dialect, "dialect", "", "cheat-code dialect: hardhat or anvil")
	pf.StringVar(&network, "network", "", "fork or mainnet; selects the deploy key source")

	root.AddCommand(
		merkleCmd(),
		proposalCmd(),
		redeemerCmd(),
		forkCmd(),
		keysCmd(),
		historyCmd(),
		claimsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return closeApp(root.ExecuteContext(ctx))
}

// closeApp releases appCtx whether or not the command failed and folds
// any close error into err.
func closeApp(err error) error {
	if appCtx == nil {
		return err
	}
	a := appCtx
	appCtx = nil
	defer a.Log.Sync()
	return multierr.Append(err, a.Close())
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
