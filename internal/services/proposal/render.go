package proposal

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/protocol/calldata"
	"feigov/internal/protocol/governor"
)

// RenderedCommand is one fully resolved timelock call.
type RenderedCommand struct {
	Description string
	Target      common.Address
	Value       *big.Int
	Signature   string
	Arguments   []string
	Calldata    []byte
	action      governor.Action
}

// Rendered is the governance payload of a proposal.
type Rendered struct {
	Name     string
	Title    string
	Category domain.Category
	// Executor is the timelock that performs the commands; zero for NONE.
	Executor common.Address
	Commands []RenderedCommand
	// Calldata is the top-level call: propose() on the governor for DAO
	// proposals, scheduleBatch() on the timelock otherwise. Empty for NONE
	// and the DEBUG categories, which are only ever simulated.
	Calldata    []byte
	ProposalID  *big.Int
	OperationID common.Hash
}

// RenderOptions tunes timelock batch encoding.
type RenderOptions struct {
	Delay       *big.Int
	Predecessor common.Hash
	Salt        common.Hash
}

// Actions returns the commands as governor actions.
func (r *Rendered) Actions() []governor.Action {
	out := make([]governor.Action, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.action
	}
	return out
}

// TotalValue sums the ETH sent by every command.
func (r *Rendered) TotalValue() *big.Int {
	sum := new(big.Int)
	for _, c := range r.Commands {
		sum.Add(sum, c.Value)
	}
	return sum
}

// Render resolves every command of p against book and encodes the payload
// appropriate to its category.
func Render(p domain.Proposal, book domain.AddressBook, opts RenderOptions) (*Rendered, error) {
	res := calldata.NewResolver(book)
	out := &Rendered{
		Name:     p.Config.Name,
		Title:    p.Description.Title,
		Category: p.Config.Category,
		Commands: make([]RenderedCommand, 0, len(p.Description.Commands)),
	}
	for i, c := range p.Description.Commands {
		rc, err := renderCommand(res, c)
		if err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, c.Method, err)
		}
		out.Commands = append(out.Commands, rc)
	}
	if p.Config.Category == domain.CategoryNone {
		return out, nil
	}

	execName, err := p.Config.Category.Executor()
	if err != nil {
		return nil, err
	}
	if out.Executor, err = book.Lookup(execName); err != nil {
		return nil, err
	}
	if p.Config.Category.Debug() {
		return out, nil
	}

	actions := out.Actions()
	switch p.Config.Category {
	case domain.CategoryDAO:
		desc := strings.TrimSpace(p.Description.Description)
		if out.Calldata, err = governor.Propose(actions, desc); err != nil {
			return nil, err
		}
		if out.ProposalID, err = governor.ProposalID(actions, desc); err != nil {
			return nil, err
		}
	default:
		delay := opts.Delay
		if delay == nil {
			delay = new(big.Int)
		}
		if out.Calldata, err = governor.ScheduleBatch(actions, opts.Predecessor, opts.Salt, delay); err != nil {
			return nil, err
		}
		if out.OperationID, err = governor.OperationID(actions, opts.Predecessor, opts.Salt); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func renderCommand(res *calldata.Resolver, c domain.Command) (RenderedCommand, error) {
	target, err := res.Book().Resolve(c.Target)
	if err != nil {
		return RenderedCommand{}, err
	}
	value, err := resolveValue(res, c.Value)
	if err != nil {
		return RenderedCommand{}, fmt.Errorf("value: %w", err)
	}
	m, err := calldata.ParseMethod(c.Method)
	if err != nil {
		return RenderedCommand{}, err
	}
	resolved, err := res.ResolveAll(c.Arguments)
	if err != nil {
		return RenderedCommand{}, err
	}
	packed, err := m.Pack(resolved)
	if err != nil {
		return RenderedCommand{}, err
	}
	return RenderedCommand{
		Description: strings.TrimSpace(c.Description),
		Target:      target,
		Value:       value,
		Signature:   m.Signature(),
		Arguments:   resolved,
		Calldata:    append(m.Selector(), packed...),
		action: governor.Action{
			Target:    target,
			Value:     value,
			Signature: m.Signature(),
			Args:      packed,
		},
	}, nil
}

func resolveValue(res *calldata.Resolver, v string) (*big.Int, error) {
	if strings.TrimSpace(v) == "" {
		return new(big.Int), nil
	}
	s, err := res.Resolve(v)
	if err != nil {
		return nil, err
	}
	n, err := calldata.ParseInt(s)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", n)
	}
	return n, nil
}
