package calldata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrBadSignature is returned for malformed method signatures.
var ErrBadSignature = errors.New("malformed method signature")

// Method is a parsed method signature.
type Method struct {
	Name  string
	Types []string
	args  abi.Arguments
}

// ParseMethod parses "name(type1,type2)".
func ParseMethod(sig string) (Method, error) {
	sig = strings.ReplaceAll(strings.TrimSpace(sig), " ", "")
	open := strings.IndexByte(sig, '(')
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return Method{}, fmt.Errorf("%w: %q", ErrBadSignature, sig)
	}
	types, err := ParseTypes(sig[open:])
	if err != nil {
		return Method{}, fmt.Errorf("%s: %w", sig, err)
	}
	args, err := arguments(types)
	if err != nil {
		return Method{}, fmt.Errorf("%s: %w", sig, err)
	}
	return Method{Name: sig[:open], Types: types, args: args}, nil
}

// ParseTypes parses "(t1,t2)" or a bare single type "t1".
func ParseTypes(s string) ([]string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" || s == "()" {
		return nil, nil
	}
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("%w: %q", ErrBadSignature, s)
		}
		s = s[1 : len(s)-1]
	}
	if strings.ContainsAny(s, "()") {
		return nil, fmt.Errorf("%w: tuple types are not supported", ErrBadSignature)
	}
	types := strings.Split(s, ",")
	for _, t := range types {
		if t == "" {
			return nil, fmt.Errorf("%w: empty type", ErrBadSignature)
		}
	}
	return types, nil
}

// Signature returns the canonical "name(t1,t2)" form.
func (m Method) Signature() string {
	return m.Name + "(" + strings.Join(m.Types, ",") + ")"
}

// Selector returns the first four bytes of keccak256(signature).
func (m Method) Selector() []byte {
	return crypto.Keccak256([]byte(m.Signature()))[:4]
}

func arguments(types []string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", t, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args, nil
}
