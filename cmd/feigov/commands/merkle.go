package commands

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"feigov/internal/domain"
	"feigov/internal/services/snapshot"
)

func merkleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merkle",
		Short: "Build snapshot merkle trees and proofs",
	}
	cmd.AddCommand(merkleBuildCmd(), merkleProofCmd(), merkleVerifyCmd())
	return cmd
}

func merkleBuildCmd() *cobra.Command {
	var opts snapshot.BuildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Validate a snapshot, build one tree per token and write the roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := appCtx.Snapshots.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if opts.RootsOut == "" {
				return printJSON(res.RootsFile())
			}
			fmt.Printf("%d roots written to %s\n", len(res.Tokens), opts.RootsOut)
			return nil
		},
	}
	addSnapshotFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.RootsOut, "roots-out", "", "write roots JSON here (stdout when empty)")
	cmd.Flags().StringVar(&opts.ClaimsOut, "claims-out", "", "also write every claim with its proof")
	return cmd
}

func merkleProofCmd() *cobra.Command {
	var opts snapshot.BuildOptions
	cmd := &cobra.Command{
		Use:   "proof <token> <holder>",
		Short: "Print a holder's amount and inclusion proof",
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
			res, err := appCtx.Snapshots.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			c, err := res.Proof(token, holder)
			if err != nil {
				return err
			}
			t, _ := res.Lookup(token)
			return printJSON(struct {
				Root common.Hash `json:"root"`
				domain.Claim
			}{Root: t.Tree.Root(), Claim: c})
		},
	}
	addSnapshotFlags(cmd, &opts)
	return cmd
}

func merkleVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <root> <holder> <amount> [proof...]",
		Short: "Check a proof against a root",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := parseHash(args[0])
			if err != nil {
				return err
			}
			holder, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			c := domain.Claim{Amount: args[2]}
			for _, p := range args[3:] {
				h, err := parseHash(p)
				if err != nil {
					return err
				}
				c.Proof = append(c.Proof, h)
			}
			ok, err := snapshot.VerifyClaim(root, holder, c)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("proof does not verify against %s", root.Hex())
			}
			fmt.Println("valid")
			return nil
		},
	}
}

func addSnapshotFlags(cmd *cobra.Command, opts *snapshot.BuildOptions) {
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "snapshot JSON {token: {holder: amount}}")
	cmd.Flags().StringVar(&opts.Extra, "extra", "", "optional snapshot whose holders override the base")
	_ = cmd.MarkFlagRequired("snapshot")
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexBytes(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%q is not a 32-byte hex value", s)
	}
	return common.BytesToHash(b), nil
}

func hexBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
