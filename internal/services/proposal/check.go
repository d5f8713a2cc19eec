package proposal

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"

	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/protocol/calldata"
	"feigov/internal/protocol/governor"
	"feigov/internal/store"
)

const governorName = "feiDAO"

var (
	// ErrChecksFailed wraps the aggregated check failures of a run.
	ErrChecksFailed = errors.New("proposal checks failed")
	// ErrNoProposalID is returned for exec runs without an on-chain id.
	ErrNoProposalID = errors.New("exec mode needs a proposal id")
	// ErrNoDeployKey is returned when a proposal deploys contracts but no key is configured.
	ErrNoDeployKey = errors.New("deploys need a deployer key")
)

// stepGas funds impersonated senders.
var stepGas = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))

// CheckOptions selects which optional stages run.
type CheckOptions struct {
	Mode    domain.RunMode
	Setup   bool
	ReadPCV bool
	// Deploy forces the deploy stage even when the config disables it.
	Deploy     bool
	ProposalID *big.Int
}

// Report is the outcome of a check run.
type Report struct {
	Proposal  string
	Mode      domain.RunMode
	Block     uint64
	Deployed  map[string]common.Address
	Captures  map[string]string
	Warnings  []string
	Failures  []string
	PCVChange *PCVChange
	Duration  time.Duration
}

// Passed reports whether every check held.
func (r *Report) Passed() bool { return len(r.Failures) == 0 }

// Checker runs proposals against a forked chain.
type Checker struct {
	chain        domain.Chain
	history      domain.HistoryStore
	log          *logger.Logger
	voter        common.Address
	artifactsDir string
	deployKey    *ecdsa.PrivateKey
}

// CheckerOption customises a Checker.
type CheckerOption func(*Checker)

// WithHistory records every run in h.
func WithHistory(h domain.HistoryStore) CheckerOption { return func(c *Checker) { c.history = h } }

// WithDeployer enables the deploy stage, loading artifacts from dir.
func WithDeployer(key *ecdsa.PrivateKey, dir string) CheckerOption {
	return func(c *Checker) { c.deployKey, c.artifactsDir = key, dir }
}

// NewChecker returns a checker that votes with voter in exec mode.
func NewChecker(chain domain.Chain, voter common.Address, log *logger.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{chain: chain, voter: voter, log: log}
	for _, o := range opts {
		o(c)
	}
	return c
}

// run carries the per-check mutable state.
type run struct {
	book     domain.AddressBook
	res      *calldata.Resolver
	captures map[string]any
	report   *Report
}

// Check executes p on the chain. Execution errors abort the run; check
// failures are collected and returned together wrapped in ErrChecksFailed.
func (c *Checker) Check(ctx context.Context, p domain.Proposal, book domain.AddressBook, opts CheckOptions) (*Report, error) {
	if opts.Mode == "" {
		opts.Mode = domain.RunSimulate
	}
	started := time.Now()
	r := &run{
		book:     book.Clone(),
		captures: make(map[string]any),
		report: &Report{
			Proposal: p.Config.Name,
			Mode:     opts.Mode,
			Deployed: make(map[string]common.Address),
			Captures: make(map[string]string),
		},
	}
	r.res = calldata.NewResolver(r.book)
	log := c.log.With("proposal", p.Config.Name, "mode", string(opts.Mode))

	err := c.execute(ctx, log, p, r, opts)
	r.report.Duration = time.Since(started)
	if block, berr := c.chain.BlockNumber(ctx); berr == nil {
		r.report.Block = block
	}
	c.record(ctx, log, started, r.report, err)
	if err != nil {
		return r.report, err
	}
	if !r.report.Passed() {
		var all error
		for _, f := range r.report.Failures {
			all = multierr.Append(all, errors.New(f))
		}
		return r.report, fmt.Errorf("%w: %w", ErrChecksFailed, all)
	}
	log.Info("all checks passed", "checks", len(p.Description.Checks))
	return r.report, nil
}

func (c *Checker) execute(ctx context.Context, log *logger.Logger, p domain.Proposal, r *run, opts CheckOptions) error {
	d := p.Description
	if (opts.Deploy || p.Config.Deploy) && len(d.Deploys) > 0 {
		log.Info("deploy", "contracts", len(d.Deploys))
		for _, dep := range d.Deploys {
			if err := c.deploy(ctx, r, dep); err != nil {
				return fmt.Errorf("deploy %s: %w", dep.Name, err)
			}
		}
	}

	if opts.Setup {
		log.Info("setup", "steps", len(d.Setup))
		if err := c.steps(ctx, r, d.Setup); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	} else if len(d.Setup) > 0 {
		msg := fmt.Sprintf("setup is defined in %s, but setup was not requested", p.Config.Name)
		log.Warn(msg)
		r.report.Warnings = append(r.report.Warnings, msg)
	}

	for _, rd := range d.Captures {
		v, err := c.read(ctx, r, rd)
		if err != nil {
			return fmt.Errorf("capture %s: %w", rd.Name, err)
		}
		r.captures[rd.Name] = v
		r.report.Captures[rd.Name] = calldata.Format(v)
	}

	var before domain.PCVStats
	if opts.ReadPCV {
		log.Info("reading CR oracle before proposal execution")
		var err error
		if before, err = ReadPCV(ctx, c.chain, r.book); err != nil {
			return err
		}
	}

	switch opts.Mode {
	case domain.RunSimulate:
		if err := c.simulate(ctx, log, p, r); err != nil {
			return err
		}
	case domain.RunExec:
		if err := c.exec(ctx, p, r, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown run mode %q", opts.Mode)
	}

	log.Info("teardown", "steps", len(d.Teardown))
	if err := c.steps(ctx, r, d.Teardown); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}

	log.Info("validate", "checks", len(d.Checks))
	for _, chk := range d.Checks {
		if msg, err := c.check(ctx, r, chk); err != nil {
			return fmt.Errorf("check %q: %w", chk.Name, err)
		} else if msg != "" {
			log.Warn("check failed", "check", chk.Name, "detail", msg)
			r.report.Failures = append(r.report.Failures, msg)
		}
	}

	if opts.ReadPCV {
		log.Info("reading CR oracle after proposal execution")
		after, err := ReadPCV(ctx, c.chain, r.book)
		if err != nil {
			return err
		}
		change := Diff(before, after)
		r.report.PCVChange = &change
	}
	return nil
}

func (c *Checker) deploy(ctx context.Context, r *run, dep domain.Deploy) error {
	if c.deployKey == nil {
		return ErrNoDeployKey
	}
	path := dep.Artifact
	if !filepath.IsAbs(path) && c.artifactsDir != "" {
		path = filepath.Join(c.artifactsDir, path)
	}
	code, err := store.LoadArtifact(path)
	if err != nil {
		return err
	}
	if dep.Constructor != "" {
		resolved, err := r.res.ResolveAll(dep.Arguments)
		if err != nil {
			return err
		}
		args, err := calldata.PackTypes(dep.Constructor, resolved)
		if err != nil {
			return err
		}
		code = append(code, args...)
	}
	rcpt, err := c.chain.SendSigned(ctx, c.deployKey, nil, nil, code)
	if err != nil {
		return err
	}
	r.book.Set(dep.Name, rcpt.ContractAddress)
	r.report.Deployed[dep.Name] = rcpt.ContractAddress
	c.log.Info("deployed", "name", dep.Name, "address", rcpt.ContractAddress.Hex())
	return nil
}

// steps sends each step from its impersonated sender.
func (c *Checker) steps(ctx context.Context, r *run, steps []domain.Step) error {
	for i, s := range steps {
		from, err := r.book.Resolve(s.From)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		rc, err := renderCommand(r.res, s.Command)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := c.sendAs(ctx, from, []RenderedCommand{rc}); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, rc.Signature, err)
		}
	}
	return nil
}

func (c *Checker) simulate(ctx context.Context, log *logger.Logger, p domain.Proposal, r *run) error {
	rendered, err := Render(p, r.book, RenderOptions{})
	if err != nil {
		return err
	}
	if rendered.Executor == (common.Address{}) {
		return fmt.Errorf("category %s has no executor to simulate", p.Config.Category)
	}
	log.Info("simulating proposal", "executor", rendered.Executor.Hex(), "commands", len(rendered.Commands))
	return c.sendAs(ctx, rendered.Executor, rendered.Commands)
}

func (c *Checker) exec(ctx context.Context, p domain.Proposal, r *run, opts CheckOptions) error {
	id := opts.ProposalID
	if id == nil && p.Config.ProposalID != "" {
		var err error
		if id, err = calldata.ParseInt(p.Config.ProposalID); err != nil {
			return fmt.Errorf("proposal id: %w", err)
		}
	}
	if id == nil {
		return ErrNoProposalID
	}
	gov, err := r.book.Lookup(governorName)
	if err != nil {
		return err
	}
	value := new(big.Int)
	if p.Config.TotalValue != "" {
		if value, err = calldata.ParseInt(p.Config.TotalValue); err != nil {
			return fmt.Errorf("total value: %w", err)
		}
	}
	return governor.NewExecutor(c.chain, gov, c.voter, c.log).Execute(ctx, id, value)
}

// sendAs impersonates from, funds it and sends cmds in order.
func (c *Checker) sendAs(ctx context.Context, from common.Address, cmds []RenderedCommand) error {
	if err := c.chain.Impersonate(ctx, from); err != nil {
		return fmt.Errorf("impersonate %s: %w", from.Hex(), err)
	}
	defer func() { _ = c.chain.StopImpersonating(ctx, from) }()

	fund := new(big.Int).Set(stepGas)
	for _, cmd := range cmds {
		fund.Add(fund, cmd.Value)
	}
	if err := c.chain.SetBalance(ctx, from, fund); err != nil {
		return fmt.Errorf("fund %s: %w", from.Hex(), err)
	}
	for i, cmd := range cmds {
		target := cmd.Target
		if _, err := c.chain.SendAs(ctx, from, &target, cmd.Value, cmd.Calldata); err != nil {
			return fmt.Errorf("command %d %s on %s: %w", i, cmd.Signature, target.Hex(), err)
		}
		c.log.Debug("command sent", "index", i, "method", cmd.Signature, "target", target.Hex())
	}
	return nil
}

// read performs an eth_call and returns the selected decoded value.
func (c *Checker) read(ctx context.Context, r *run, rd domain.Read) (any, error) {
	target, err := r.book.Resolve(rd.Target)
	if err != nil {
		return nil, err
	}
	m, err := calldata.ParseMethod(rd.Method)
	if err != nil {
		return nil, err
	}
	args, err := r.res.ResolveAll(rd.Arguments)
	if err != nil {
		return nil, err
	}
	data, err := m.Calldata(args)
	if err != nil {
		return nil, err
	}
	out, err := c.chain.Call(ctx, target, data)
	if err != nil {
		return nil, err
	}
	vals, err := calldata.Unpack(rd.Returns, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rd.Returns, err)
	}
	if rd.Index < 0 || rd.Index >= len(vals) {
		return nil, fmt.Errorf("index %d out of range for %d return values", rd.Index, len(vals))
	}
	return vals[rd.Index], nil
}

// check evaluates chk and returns a failure message, or "" when it holds.
func (c *Checker) check(ctx context.Context, r *run, chk domain.Check) (string, error) {
	got, err := c.read(ctx, r, chk.Read)
	if err != nil {
		return "", err
	}
	value, err := resolveOptional(r.res, chk.Value)
	if err != nil {
		return "", err
	}
	lo, err := resolveOptional(r.res, chk.Min)
	if err != nil {
		return "", err
	}
	hi, err := resolveOptional(r.res, chk.Max)
	if err != nil {
		return "", err
	}

	subject := calldata.Format(got)
	var (
		ok   bool
		want string
	)
	if n, isInt := toBig(got); isInt {
		if chk.DeltaOf != "" {
			base, baseInt := toBig(r.captures[chk.DeltaOf])
			if !baseInt {
				return "", fmt.Errorf("capture %q is not an integer", chk.DeltaOf)
			}
			n = new(big.Int).Sub(n, base)
			subject = "delta " + n.String()
		}
		ok, want, err = compareInts(chk.Op, n, value, lo, hi)
	} else {
		if chk.DeltaOf != "" {
			return "", fmt.Errorf("delta_of needs an integer result, got %T", got)
		}
		ok, want, err = compareValues(chk.Op, got, value)
	}
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	return fmt.Sprintf("%s: got %s, want %s", chk.Name, subject, want), nil
}

func resolveOptional(res *calldata.Resolver, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return res.Resolve(s)
}

// record appends the run to history; failures to record are only logged.
func (c *Checker) record(ctx context.Context, log *logger.Logger, started time.Time, rep *Report, runErr error) {
	if c.history == nil {
		return
	}
	rec := domain.RunRecord{
		Proposal:  rep.Proposal,
		Mode:      rep.Mode,
		Block:     rep.Block,
		StartedAt: started.UTC(),
		Duration:  rep.Duration,
		Passed:    runErr == nil && rep.Passed(),
		Failures:  append([]string(nil), rep.Failures...),
	}
	if runErr != nil {
		rec.Failures = append(rec.Failures, runErr.Error())
	}
	if rep.PCVChange != nil {
		rec.PCVDelta = rep.PCVChange.String()
	}
	if err := c.history.AppendRun(ctx, rec); err != nil {
		log.Warn("could not record run", "error", err)
	}
}
