package calldata

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pack ABI-encodes already resolved arguments without the selector.
func (m Method) Pack(resolved []string) ([]byte, error) {
	if len(resolved) != len(m.Types) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", m.Signature(), len(m.Types), len(resolved))
	}
	values := make([]any, len(resolved))
	for i, s := range resolved {
		v, err := toValue(m.args[i].Type, s)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d (%s): %w", m.Signature(), i, m.Types[i], err)
		}
		values[i] = v
	}
	return m.args.Pack(values...)
}

// Calldata returns selector ‖ Pack(resolved).
func (m Method) Calldata(resolved []string) ([]byte, error) {
	packed, err := m.Pack(resolved)
	if err != nil {
		return nil, err
	}
	return append(m.Selector(), packed...), nil
}

// Encoded is one resolved and encoded command.
type Encoded struct {
	Signature string
	Args      []byte // ABI-encoded arguments only
	Data      []byte // selector ‖ Args
}

// Encode parses sig, resolves args against r and encodes the call.
func Encode(r *Resolver, sig string, args []string) (Encoded, error) {
	m, err := ParseMethod(sig)
	if err != nil {
		return Encoded{}, err
	}
	resolved, err := r.ResolveAll(args)
	if err != nil {
		return Encoded{}, fmt.Errorf("%s: %w", sig, err)
	}
	packed, err := m.Pack(resolved)
	if err != nil {
		return Encoded{}, err
	}
	return Encoded{
		Signature: m.Signature(),
		Args:      packed,
		Data:      append(m.Selector(), packed...),
	}, nil
}

// PackTypes encodes resolved values for a type list such as "(address,uint256[])".
// It is used for constructor arguments, which carry no selector.
func PackTypes(types string, resolved []string) ([]byte, error) {
	ts, err := ParseTypes(types)
	if err != nil {
		return nil, err
	}
	args, err := arguments(ts)
	if err != nil {
		return nil, err
	}
	return Method{Name: "constructor", Types: ts, args: args}.Pack(resolved)
}

// Unpack decodes return data for a type list.
func Unpack(returns string, data []byte) ([]any, error) {
	ts, err := ParseTypes(returns)
	if err != nil {
		return nil, err
	}
	args, err := arguments(ts)
	if err != nil {
		return nil, err
	}
	return args.Unpack(data)
}

// Format renders a decoded ABI value for comparison and display.
func Format(v any) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case [32]byte:
		return common.Hash(x).Hex()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}
