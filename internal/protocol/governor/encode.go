package governor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Action is one encoded proposal call.
type Action struct {
	Target    common.Address
	Value     *big.Int
	Signature string
	Args      []byte // ABI-encoded arguments, no selector
}

// Calldata returns selector(Signature) ‖ Args.
func (a Action) Calldata() []byte {
	return append(crypto.Keccak256([]byte(a.Signature))[:4], a.Args...)
}

func (a Action) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value
}

var (
	proposeMethod       = mustMethod("propose", "address[]", "uint256[]", "string[]", "bytes[]", "string")
	scheduleBatchMethod = mustMethod("scheduleBatch", "address[]", "uint256[]", "bytes[]", "bytes32", "bytes32", "uint256")
	executeBatchMethod  = mustMethod("executeBatch", "address[]", "uint256[]", "bytes[]", "bytes32", "bytes32")

	proposalHashArgs  = mustArgs("address[]", "uint256[]", "bytes[]", "bytes32")
	operationHashArgs = mustArgs("address[]", "uint256[]", "bytes[]", "bytes32", "bytes32")
)

// Propose returns calldata for the governor's Bravo-compatible propose.
func Propose(actions []Action, description string) ([]byte, error) {
	targets, values, _ := columns(actions)
	sigs := make([]string, len(actions))
	args := make([][]byte, len(actions))
	for i, a := range actions {
		sigs[i] = a.Signature
		args[i] = a.Args
	}
	return proposeMethod.call(targets, values, sigs, args, description)
}

// ProposalID returns the governor proposal id for actions and description.
func ProposalID(actions []Action, description string) (*big.Int, error) {
	targets, values, datas := columns(actions)
	descHash := crypto.Keccak256Hash([]byte(description))
	enc, err := proposalHashArgs.Pack(targets, values, datas, [32]byte(descHash))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(crypto.Keccak256(enc)), nil
}

// ScheduleBatch returns TimelockController.scheduleBatch calldata.
func ScheduleBatch(actions []Action, predecessor, salt common.Hash, delay *big.Int) ([]byte, error) {
	targets, values, datas := columns(actions)
	return scheduleBatchMethod.call(targets, values, datas, [32]byte(predecessor), [32]byte(salt), delay)
}

// ExecuteBatch returns TimelockController.executeBatch calldata.
func ExecuteBatch(actions []Action, predecessor, salt common.Hash) ([]byte, error) {
	targets, values, datas := columns(actions)
	return executeBatchMethod.call(targets, values, datas, [32]byte(predecessor), [32]byte(salt))
}

// OperationID returns TimelockController.hashOperationBatch.
func OperationID(actions []Action, predecessor, salt common.Hash) (common.Hash, error) {
	targets, values, datas := columns(actions)
	enc, err := operationHashArgs.Pack(targets, values, datas, [32]byte(predecessor), [32]byte(salt))
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

func columns(actions []Action) ([]common.Address, []*big.Int, [][]byte) {
	targets := make([]common.Address, len(actions))
	values := make([]*big.Int, len(actions))
	datas := make([][]byte, len(actions))
	for i, a := range actions {
		targets[i] = a.Target
		values[i] = a.value()
		datas[i] = a.Calldata()
	}
	return targets, values, datas
}

type method struct {
	selector []byte
	args     abi.Arguments
}

func (m method) call(values ...any) ([]byte, error) {
	packed, err := m.args.Pack(values...)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), m.selector...), packed...), nil
}

func mustMethod(name string, types ...string) method {
	sig := name + "("
	for i, t := range types {
		if i > 0 {
			sig += ","
		}
		sig += t
	}
	sig += ")"
	return method{selector: crypto.Keccak256([]byte(sig))[:4], args: mustArgs(types...)}
}

func mustArgs(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("governor: abi type %s: %v", t, err))
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args
}
