package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"feigov/internal/claims"
	"feigov/internal/services/snapshot"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Query a claims server",
	}
	cmd.AddCommand(claimsGetCmd())
	return cmd
}

func claimsGetCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "get <token> <holder>",
		Short: "Fetch a claim and verify its proof against the served root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			holder, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			c, err := claims.NewClient(server).Claim(cmd.Context(), token, holder)
			if err != nil {
				return err
			}
			ok, err := snapshot.VerifyClaim(c.Root, holder, c.Claim)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("served proof does not verify against root %s", c.Root.Hex())
			}
			return printJSON(c)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "claims server base URL")
	return cmd
}
