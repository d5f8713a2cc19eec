package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"feigov/internal/crypto"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the encrypted deployer key",
	}
	cmd.AddCommand(keysImportCmd(), keysAddressCmd())
	return cmd
}

func keysImportCmd() *cobra.Command {
	var hexKey string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Encrypt a private key (--key or MAINNET_PRIVATE_KEY) under the passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return errors.New("passphrase required (-p)")
			}
			if hexKey == "" {
				hexKey = appCtx.Config.PrivateKey
			}
			if hexKey == "" {
				return errors.New("no key given (--key or MAINNET_PRIVATE_KEY)")
			}
			addr, err := appCtx.Keys.Import(passphrase, hexKey)
			if err != nil {
				return err
			}
			fmt.Printf("Key imported to %s.\nAddress: %s (%s)\n", appCtx.KeyStore.Path(), addr.Hex(), crypto.Fingerprint(addr))
			return nil
		},
	}
	cmd.Flags().StringVar(&hexKey, "key", "", "hex private key")
	return cmd
}

func keysAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the imported key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return errors.New("passphrase required (-p)")
			}
			addr, err := appCtx.Keys.Address(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Address: %s\n", addr.Hex())
			return nil
		},
	}
}
