package commands

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"feigov/internal/chain"
	"feigov/internal/protocol/calldata"
)

func forkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fork",
		Short: "Manipulate a forked development chain",
	}
	cmd.AddCommand(
		forkResetCmd(),
		forkSetBalanceCmd(),
		forkDealCmd(),
		forkImpersonateCmd(),
		forkMineCmd(),
		forkIncreaseTimeCmd(),
		forkSnapshotCmd(),
		forkRevertCmd(),
	)
	return cmd
}

// resolveAddress accepts an address book name or a hex address.
func resolveAddress(s string) (common.Address, error) {
	return appCtx.Book.Resolve(s)
}

// resolveAmount accepts a wei integer or a template such as '{{ ether 10 }}'.
func resolveAmount(s string) (*big.Int, error) {
	v, err := calldata.NewResolver(appCtx.Book).Resolve(s)
	if err != nil {
		return nil, err
	}
	n, err := calldata.ParseInt(v)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("amount %s is negative", n)
	}
	if n.BitLen() > 256 {
		return nil, fmt.Errorf("amount %s does not fit in uint256", n)
	}
	return n, nil
}

func forkResetCmd() *cobra.Command {
	var (
		url   string
		block uint64
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the fork, optionally to a new upstream and block",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("fork-url") {
				url = appCtx.Config.ForkURL
			}
			if !cmd.Flags().Changed("block") {
				block = appCtx.Config.ForkBlock
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Reset(cmd.Context(), url, block); err != nil {
				return err
			}
			n, err := c.BlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("fork reset, now at block %d\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "fork-url", "", "upstream RPC to fork (FEIGOV_FORK_URL)")
	cmd.Flags().Uint64Var(&block, "block", 0, "fork block (0 = latest)")
	return cmd
}

func forkSetBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance <account> <wei>",
		Short: "Set an account's ETH balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			wei, err := resolveAmount(args[1])
			if err != nil {
				return err
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.SetBalance(cmd.Context(), addr, wei); err != nil {
				return err
			}
			fmt.Printf("%s balance set to %s wei\n", addr.Hex(), wei)
			return nil
		},
	}
}

func forkDealCmd() *cobra.Command {
	var maxSlot uint64
	cmd := &cobra.Command{
		Use:   "deal <token> <holder> <amount>",
		Short: "Give a holder an ERC20 balance by writing the token's storage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			holder, err := resolveAddress(args[1])
			if err != nil {
				return err
			}
			amount, err := resolveAmount(args[2])
			if err != nil {
				return err
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			slot, err := chain.Deal(cmd.Context(), c, token, holder, amount, maxSlot)
			if err != nil {
				return err
			}
			fmt.Printf("%s balance of %s set to %s (mapping slot %d)\n", holder.Hex(), token.Hex(), amount, slot)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&maxSlot, "max-slot", 100, "number of storage slots to search")
	return cmd
}

func forkImpersonateCmd() *cobra.Command {
	var stop bool
	cmd := &cobra.Command{
		Use:   "impersonate <account>",
		Short: "Unlock an account on the node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddress(args[0])
			if err != nil {
				return err
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			verb := "started"
			if stop {
				verb = "stopped"
				err = c.StopImpersonating(cmd.Context(), addr)
			} else {
				err = c.Impersonate(cmd.Context(), addr)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s impersonation %s\n", addr.Hex(), verb)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stop, "stop", false, "stop impersonating instead")
	return cmd
}

func forkMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine [blocks]",
		Short: "Mine blocks (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := uint64(1)
			if len(args) == 1 {
				var err error
				if n, err = strconv.ParseUint(args[0], 10, 64); err != nil {
					return fmt.Errorf("blocks: %w", err)
				}
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			return c.Mine(cmd.Context(), n)
		},
	}
}

func forkIncreaseTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "increase-time <seconds>",
		Short: "Advance the chain clock and mine a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("seconds: %w", err)
			}
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.IncreaseTime(cmd.Context(), secs); err != nil {
				return err
			}
			return c.Mine(cmd.Context(), 1)
		},
	}
}

func forkSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Record the current chain state and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			id, err := c.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func forkRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id>",
		Short: "Return to a recorded snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := appCtx.Chain(cmd.Context())
			if err != nil {
				return err
			}
			return c.Revert(cmd.Context(), args[0])
		},
	}
}
