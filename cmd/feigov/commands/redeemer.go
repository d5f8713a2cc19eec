package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"feigov/internal/crypto"
	"feigov/internal/services/redeemer"
	"feigov/internal/store"
)

const feiName = "fei"

type redeemerInputs struct {
	fei   string
	rates string
	roots string
}

func (in *redeemerInputs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.fei, "fei", "", "FEI token address (default: address book \"fei\")")
	cmd.Flags().StringVar(&in.rates, "rates", "", "rates JSON {token: rate}")
	cmd.Flags().StringVar(&in.roots, "roots", "", "roots JSON {token: root}")
	_ = cmd.MarkFlagRequired("rates")
	_ = cmd.MarkFlagRequired("roots")
}

func (in *redeemerInputs) args() (redeemer.Args, error) {
	var (
		fei common.Address
		err error
	)
	if in.fei != "" {
		fei, err = parseAddress(in.fei)
	} else {
		fei, err = appCtx.Book.Lookup(feiName)
	}
	if err != nil {
		return redeemer.Args{}, err
	}
	rates, err := redeemer.LoadRates(in.rates)
	if err != nil {
		return redeemer.Args{}, err
	}
	roots, err := redeemer.LoadRoots(in.roots)
	if err != nil {
		return redeemer.Args{}, err
	}
	return redeemer.BuildArgs(fei, appCtx.Allowlist, rates, roots)
}

func redeemerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeemer",
		Short: "Encode and deploy the merkle redeemer",
	}
	cmd.AddCommand(redeemerArgsCmd(), redeemerDeployCmd())
	return cmd
}

func redeemerArgsCmd() *cobra.Command {
	var in redeemerInputs
	cmd := &cobra.Command{
		Use:   "args",
		Short: "Validate rates and roots and print the ABI-encoded constructor arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := in.args()
			if err != nil {
				return err
			}
			for i, t := range a.CTokens {
				fmt.Printf("%s rate=%s root=%s\n", t.Hex(), a.Rates[i], a.Roots[i].Hex())
			}
			packed, err := a.Pack()
			if err != nil {
				return err
			}
			fmt.Println(hexutil.Encode(packed))
			return nil
		},
	}
	in.bind(cmd)
	return cmd
}

func redeemerDeployCmd() *cobra.Command {
	var (
		in       redeemerInputs
		artifact string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the redeemer (dev key on a fork, MAINNET_PRIVATE_KEY or imported key on mainnet)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := in.args()
			if err != nil {
				return err
			}
			code, err := store.LoadArtifact(artifact)
			if err != nil {
				return err
			}
			key, err := appCtx.DeployKey(passphrase)
			if err != nil {
				return err
			}
			defer crypto.WipeKey(key)

			svc, err := appCtx.Redeemer(cmd.Context())
			if err != nil {
				return err
			}
			addr, err := svc.Deploy(cmd.Context(), key, code, a)
			if err != nil {
				return err
			}
			fmt.Printf("redeemer deployed to %s\n", addr.Hex())
			return nil
		},
	}
	in.bind(cmd)
	cmd.Flags().StringVar(&artifact, "artifact", "", "compiled contract artifact (hardhat or foundry JSON)")
	_ = cmd.MarkFlagRequired("artifact")
	return cmd
}
