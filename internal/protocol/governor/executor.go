package governor

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/logger"
)

// State mirrors the governor's ProposalState enum.
type State uint8

const (
	StatePending State = iota
	StateActive
	StateCanceled
	StateDefeated
	StateSucceeded
	StateQueued
	StateExpired
	StateExecuted
)

var stateNames = [...]string{"Pending", "Active", "Canceled", "Defeated", "Succeeded", "Queued", "Expired", "Executed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ErrNotExecutable is returned when a proposal reached a terminal state
// other than Executed.
var ErrNotExecutable = errors.New("proposal cannot be executed")

const (
	voteFor  = 1
	maxSteps = 16
)

var (
	stateMethod    = mustMethod("state", "uint256")
	snapshotMethod = mustMethod("proposalSnapshot", "uint256")
	deadlineMethod = mustMethod("proposalDeadline", "uint256")
	etaMethod      = mustMethod("proposalEta", "uint256")
	castVoteMethod = mustMethod("castVote", "uint256", "uint8")
	queueMethod    = mustMethod("queue", "uint256")
	executeMethod  = mustMethod("execute", "uint256")

	voterGas = new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))
)

// Executor drives an existing governor proposal to execution on a fork.
type Executor struct {
	chain    domain.Chain
	governor common.Address
	voter    common.Address
	log      *logger.Logger
}

// NewExecutor returns an executor voting with voter on governor.
func NewExecutor(chain domain.Chain, governor, voter common.Address, log *logger.Logger) *Executor {
	return &Executor{chain: chain, governor: governor, voter: voter, log: log}
}

// State reads the proposal state.
func (e *Executor) State(ctx context.Context, id *big.Int) (State, error) {
	n, err := e.readUint(ctx, stateMethod, id)
	if err != nil {
		return 0, err
	}
	return State(n.Uint64()), nil
}

// Execute moves proposal id to Executed, sending value with the execute call.
func (e *Executor) Execute(ctx context.Context, id, value *big.Int) error {
	if err := e.chain.Impersonate(ctx, e.voter); err != nil {
		return fmt.Errorf("impersonate voter: %w", err)
	}
	defer func() { _ = e.chain.StopImpersonating(ctx, e.voter) }()
	if err := e.chain.SetBalance(ctx, e.voter, voterGas); err != nil {
		return fmt.Errorf("fund voter: %w", err)
	}

	voted := false
	for step := 0; step < maxSteps; step++ {
		st, err := e.State(ctx, id)
		if err != nil {
			return err
		}
		e.log.Info("proposal state", "id", id.String(), "state", st.String())

		switch st {
		case StatePending:
			snapshot, err := e.readUint(ctx, snapshotMethod, id)
			if err != nil {
				return err
			}
			if err := e.mineTo(ctx, snapshot.Uint64()+1); err != nil {
				return err
			}
		case StateActive:
			if !voted {
				if err := e.send(ctx, nil, castVoteMethod, id, uint8(voteFor)); err != nil {
					return fmt.Errorf("cast vote: %w", err)
				}
				voted = true
			}
			deadline, err := e.readUint(ctx, deadlineMethod, id)
			if err != nil {
				return err
			}
			if err := e.mineTo(ctx, deadline.Uint64()+1); err != nil {
				return err
			}
		case StateSucceeded:
			if err := e.send(ctx, nil, queueMethod, id); err != nil {
				return fmt.Errorf("queue: %w", err)
			}
		case StateQueued:
			eta, err := e.readUint(ctx, etaMethod, id)
			if err != nil {
				return err
			}
			if err := e.advanceTo(ctx, eta.Uint64()); err != nil {
				return err
			}
			if err := e.send(ctx, value, executeMethod, id); err != nil {
				return fmt.Errorf("execute: %w", err)
			}
		case StateExecuted:
			return nil
		default:
			return fmt.Errorf("%w: state %s", ErrNotExecutable, st)
		}
	}
	return fmt.Errorf("%w: no progress after %d steps", ErrNotExecutable, maxSteps)
}

func (e *Executor) readUint(ctx context.Context, m method, args ...any) (*big.Int, error) {
	data, err := m.call(args...)
	if err != nil {
		return nil, err
	}
	out, err := e.chain.Call(ctx, e.governor, data)
	if err != nil {
		return nil, err
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("short return data (%d bytes)", len(out))
	}
	return new(big.Int).SetBytes(out[:32]), nil
}

func (e *Executor) send(ctx context.Context, value *big.Int, m method, args ...any) error {
	data, err := m.call(args...)
	if err != nil {
		return err
	}
	_, err = e.chain.SendAs(ctx, e.voter, &e.governor, value, data)
	return err
}

func (e *Executor) mineTo(ctx context.Context, block uint64) error {
	cur, err := e.chain.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if cur >= block {
		return e.chain.Mine(ctx, 1)
	}
	return e.chain.Mine(ctx, block-cur)
}

func (e *Executor) advanceTo(ctx context.Context, ts uint64) error {
	now, err := e.chain.BlockTime(ctx)
	if err != nil {
		return err
	}
	if ts > now {
		if err := e.chain.IncreaseTime(ctx, ts-now); err != nil {
			return err
		}
	}
	return e.chain.Mine(ctx, 1)
}
