package governor_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/chain/chaintest"
	"feigov/internal/logger"
	"feigov/internal/protocol/governor"
)

var (
	fei      = common.HexToAddress("0x956F47F50A910163D8BF957Cf5846D573E7f87CA")
	dripper  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	gov      = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	voter    = common.HexToAddress("0xB8f482539F2d3Ae2C9ea6076894df36D1f632775")
	mintArgs = common.LeftPadBytes(dripper.Bytes(), 32)
)

func actions() []governor.Action {
	return []governor.Action{
		{Target: fei, Signature: "mint(address,uint256)", Args: append(append([]byte(nil), mintArgs...), chaintest.Word(big.NewInt(10))...)},
		{Target: dripper, Value: big.NewInt(1), Signature: "clawback()"},
	}
}

func selector(sig string) []byte { return crypto.Keccak256([]byte(sig))[:4] }

func TestAction_Calldata(t *testing.T) {
	a := actions()[1]
	assert.Equal(t, selector("clawback()"), a.Calldata())
}

func TestPropose_RoundTrip(t *testing.T) {
	data, err := governor.Propose(actions(), "Part 2")
	require.NoError(t, err)
	assert.Equal(t, selector("propose(address[],uint256[],string[],bytes[],string)"), data[:4])

	args := abi.Arguments{}
	for _, ty := range []string{"address[]", "uint256[]", "string[]", "bytes[]", "string"} {
		typ, err := abi.NewType(ty, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: typ})
	}
	vals, err := args.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, []common.Address{fei, dripper}, vals[0])
	assert.Equal(t, []string{"mint(address,uint256)", "clawback()"}, vals[2])
	assert.Equal(t, "Part 2", vals[4])
	calldatas := vals[3].([][]byte)
	assert.Empty(t, calldatas[1], "bravo calldatas carry arguments only")
}

func TestProposalID_DependsOnDescription(t *testing.T) {
	a, err := governor.ProposalID(actions(), "one")
	require.NoError(t, err)
	b, err := governor.ProposalID(actions(), "one")
	require.NoError(t, err)
	c, err := governor.ProposalID(actions(), "two")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestScheduleAndOperationID(t *testing.T) {
	salt := common.Hash{7}
	data, err := governor.ScheduleBatch(actions(), common.Hash{}, salt, big.NewInt(86400))
	require.NoError(t, err)
	assert.Equal(t, selector("scheduleBatch(address[],uint256[],bytes[],bytes32,bytes32,uint256)"), data[:4])

	exec, err := governor.ExecuteBatch(actions(), common.Hash{}, salt)
	require.NoError(t, err)
	assert.Equal(t, selector("executeBatch(address[],uint256[],bytes[],bytes32,bytes32)"), exec[:4])

	id1, err := governor.OperationID(actions(), common.Hash{}, salt)
	require.NoError(t, err)
	id2, err := governor.OperationID(actions(), common.Hash{}, common.Hash{8})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

// fakeGovernor models the proposal lifecycle by block height and time.
type fakeGovernor struct {
	chain    *chaintest.Fake
	snapshot uint64
	deadline uint64
	eta      uint64
	votes    int
	queued   bool
	executed bool
	defeated bool
}

func (g *fakeGovernor) state() governor.State {
	switch {
	case g.executed:
		return governor.StateExecuted
	case g.queued:
		return governor.StateQueued
	case g.chain.Block <= g.snapshot:
		return governor.StatePending
	case g.chain.Block <= g.deadline:
		return governor.StateActive
	case g.defeated || g.votes == 0:
		return governor.StateDefeated
	default:
		return governor.StateSucceeded
	}
}

func (g *fakeGovernor) install() {
	word := func(v uint64) []byte { return chaintest.Word(new(big.Int).SetUint64(v)) }
	g.chain.Handle(gov, "state(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		return word(uint64(g.state())), nil
	})
	g.chain.Handle(gov, "proposalSnapshot(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		return word(g.snapshot), nil
	})
	g.chain.Handle(gov, "proposalDeadline(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		return word(g.deadline), nil
	})
	g.chain.Handle(gov, "proposalEta(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		return word(g.eta), nil
	})
	g.chain.Handle(gov, "castVote(uint256,uint8)", func(from common.Address, _ *big.Int, _ []byte) ([]byte, error) {
		if from != voter {
			return nil, errors.New("wrong voter")
		}
		g.votes++
		return nil, nil
	})
	g.chain.Handle(gov, "queue(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		g.queued = true
		g.eta = g.chain.Time + 2*86400
		return nil, nil
	})
	g.chain.Handle(gov, "execute(uint256)", func(common.Address, *big.Int, []byte) ([]byte, error) {
		if g.chain.Time < g.eta {
			return nil, errors.New("timelock not ready")
		}
		g.executed = true
		return nil, nil
	})
}

func TestExecutor_DrivesPendingProposalToExecuted(t *testing.T) {
	chain := chaintest.New()
	g := &fakeGovernor{chain: chain, snapshot: chain.Block + 10, deadline: chain.Block + 100}
	g.install()

	ex := governor.NewExecutor(chain, gov, voter, logger.Nop())
	require.NoError(t, ex.Execute(context.Background(), big.NewInt(42), nil))

	assert.True(t, g.executed)
	assert.Equal(t, 1, g.votes)
	assert.False(t, chain.Impersonated[voter], "voter impersonation is stopped")
	assert.Equal(t, 0, chain.Balances[voter].Cmp(new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))))
}

func TestExecutor_DefeatedIsError(t *testing.T) {
	chain := chaintest.New()
	g := &fakeGovernor{chain: chain, snapshot: chain.Block - 20, deadline: chain.Block - 10, defeated: true}
	g.install()

	ex := governor.NewExecutor(chain, gov, voter, logger.Nop())
	err := ex.Execute(context.Background(), big.NewInt(1), nil)
	assert.ErrorIs(t, err, governor.ErrNotExecutable)
}

func TestExecutor_AlreadyExecuted(t *testing.T) {
	chain := chaintest.New()
	g := &fakeGovernor{chain: chain, executed: true}
	g.install()

	ex := governor.NewExecutor(chain, gov, voter, logger.Nop())
	require.NoError(t, ex.Execute(context.Background(), big.NewInt(1), nil))
	assert.Empty(t, chain.Sent)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Queued", governor.StateQueued.String())
	assert.Equal(t, "State(9)", governor.State(9).String())
}
