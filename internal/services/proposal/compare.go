package proposal

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/protocol/calldata"
)

func validOp(op domain.CheckOp) bool {
	switch op {
	case domain.OpEq, domain.OpNeq, domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte, domain.OpBetween:
		return true
	}
	return false
}

// toBig converts decoded ABI integers to *big.Int.
func toBig(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return x, true
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	}
	return nil, false
}

// compareInts applies op to got against the resolved bounds.
func compareInts(op domain.CheckOp, got *big.Int, value, min, max string) (bool, string, error) {
	if op == domain.OpBetween {
		lo, err := calldata.ParseInt(min)
		if err != nil {
			return false, "", fmt.Errorf("min: %w", err)
		}
		hi, err := calldata.ParseInt(max)
		if err != nil {
			return false, "", fmt.Errorf("max: %w", err)
		}
		return got.Cmp(lo) >= 0 && got.Cmp(hi) <= 0, fmt.Sprintf("between %s and %s", lo, hi), nil
	}
	want, err := calldata.ParseInt(value)
	if err != nil {
		return false, "", err
	}
	c := got.Cmp(want)
	var ok bool
	switch op {
	case domain.OpEq:
		ok = c == 0
	case domain.OpNeq:
		ok = c != 0
	case domain.OpGt:
		ok = c > 0
	case domain.OpGte:
		ok = c >= 0
	case domain.OpLt:
		ok = c < 0
	case domain.OpLte:
		ok = c <= 0
	}
	return ok, string(op) + " " + want.String(), nil
}

// compareValues handles non-integer results, which only support eq and neq.
func compareValues(op domain.CheckOp, got any, value string) (bool, string, error) {
	if op != domain.OpEq && op != domain.OpNeq {
		return false, "", fmt.Errorf("op %s needs an integer result, got %T", op, got)
	}
	var equal bool
	switch x := got.(type) {
	case common.Address:
		if !common.IsHexAddress(value) {
			return false, "", fmt.Errorf("want %q is not an address", value)
		}
		equal = x == common.HexToAddress(value)
	default:
		equal = strings.EqualFold(calldata.Format(got), strings.TrimSpace(value))
	}
	if op == domain.OpEq {
		return equal, "eq " + value, nil
	}
	return !equal, "neq " + value, nil
}
