package commands

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"feigov/internal/domain"
	"feigov/internal/protocol/calldata"
	"feigov/internal/services/proposal"
)

func proposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Render and check governance proposals",
	}
	cmd.AddCommand(proposalListCmd(), proposalCalldataCmd(), proposalCheckCmd())
	return cmd
}

func proposalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tDEPLOY\tPROPOSAL ID")
			for _, name := range appCtx.Proposals.Names() {
				c, err := appCtx.Proposals.Config(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", name, c.Category, c.Deploy, c.ProposalID)
			}
			return w.Flush()
		},
	}
}

// proposalName falls back to DEPLOY_FILE.
func proposalName(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if appCtx.Config.Proposal != "" {
		return appCtx.Config.Proposal, nil
	}
	return "", errors.New("proposal name required (argument or DEPLOY_FILE)")
}

func proposalCalldataCmd() *cobra.Command {
	var delay string
	cmd := &cobra.Command{
		Use:   "calldata [name]",
		Short: "Print each command and the top-level proposal calldata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := proposalName(args)
			if err != nil {
				return err
			}
			p, err := appCtx.Proposals.Get(name)
			if err != nil {
				return err
			}
			var opts proposal.RenderOptions
			if delay != "" {
				if opts.Delay, err = calldata.ParseInt(delay); err != nil {
					return fmt.Errorf("delay: %w", err)
				}
			}
			r, err := proposal.Render(p, appCtx.Book, opts)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n\n", r.Title, r.Category)
			for i, c := range r.Commands {
				fmt.Printf("%d. %s\n", i+1, c.Description)
				fmt.Printf("   target:    %s\n", c.Target.Hex())
				fmt.Printf("   value:     %s\n", c.Value)
				fmt.Printf("   signature: %s\n", c.Signature)
				fmt.Printf("   calldata:  %s\n", hexutil.Encode(c.Calldata))
			}
			if r.Executor != (common.Address{}) {
				fmt.Printf("\nexecutor: %s\n", r.Executor.Hex())
			}
			if len(r.Calldata) == 0 {
				return nil
			}
			if r.ProposalID != nil {
				fmt.Printf("proposal id: %s\n", r.ProposalID)
			} else {
				fmt.Printf("operation id: %s\n", r.OperationID.Hex())
			}
			fmt.Printf("calldata: %s\n", hexutil.Encode(r.Calldata))
			return nil
		},
	}
	cmd.Flags().StringVar(&delay, "delay", "", "timelock delay in seconds for scheduleBatch")
	return cmd
}

func proposalCheckCmd() *cobra.Command {
	var (
		opts   proposal.CheckOptions
		mode   string
		id     string
		setup  bool
		oracle bool
	)
	cmd := &cobra.Command{
		Use:   "check [name]",
		Short: "Run a proposal against the fork and validate its checks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := proposalName(args)
			if err != nil {
				return err
			}
			p, err := appCtx.Proposals.Get(name)
			if err != nil {
				return err
			}
			opts.Mode = domain.RunMode(mode)
			opts.Setup = setup || appCtx.Config.Setup
			opts.ReadPCV = oracle || appCtx.Config.ReadCROracle
			if id != "" {
				if opts.ProposalID, err = calldata.ParseInt(id); err != nil {
					return fmt.Errorf("proposal id: %w", err)
				}
			}

			checker, err := appCtx.Checker(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			rep, err := checker.Check(cmd.Context(), p, appCtx.Book, opts)
			if rep != nil {
				printReport(rep)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(domain.RunSimulate), "simulate or exec")
	f.StringVar(&id, "proposal-id", "", "on-chain proposal id for exec mode (default from config)")
	f.BoolVar(&setup, "setup", false, "run setup steps (DO_SETUP)")
	f.BoolVar(&oracle, "cr-oracle", false, "report the PCV change (READ_CR_ORACLE)")
	f.BoolVar(&opts.Deploy, "deploy", false, "run deploys even when the config disables them")
	return cmd
}

func printReport(rep *proposal.Report) {
	fmt.Printf("%s [%s] at block %d in %s\n", rep.Proposal, rep.Mode, rep.Block, rep.Duration.Round(time.Millisecond))
	for name, addr := range rep.Deployed {
		fmt.Printf("  deployed %s at %s\n", name, addr.Hex())
	}
	for _, w := range rep.Warnings {
		fmt.Printf("\x1b[33m  warning: %s\x1b[0m\n", w)
	}
	for _, f := range rep.Failures {
		fmt.Printf("  FAIL %s\n", f)
	}
	if rep.PCVChange != nil {
		fmt.Printf("  PCV change: %s\n", proposal.FormatDelta(rep.PCVChange.PCV, true))
		fmt.Printf("  User-circulating FEI change: %s\n", proposal.FormatDelta(rep.PCVChange.Fei, true))
	}
	if rep.Passed() {
		fmt.Println("  all checks passed")
	}
}
