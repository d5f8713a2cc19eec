package calldata

import (
	"fmt"
	"math/big"
	"strings"
	"text/template"

	"github.com/ethereum/go-ethereum/crypto"

	"feigov/internal/domain"
)

// Resolver expands argument templates against an address book.
//
// An argument that is exactly an address book name resolves to that
// address. Otherwise it is executed as a text/template with these helpers:
//
//	{{ addr "feiDAOTimelock" }}   address book lookup
//	{{ .feiDAOTimelock }}         same, as template data
//	{{ id "MINTER_ROLE" }}        keccak256 of the string (role ids)
//	{{ ether 18000000 }}          value * 1e18
//	{{ units "2.5" 6 }}           value * 10^decimals
//
// List arguments ("[a, b]") resolve element-wise.
type Resolver struct {
	book domain.AddressBook
}

// NewResolver returns a resolver over book.
func NewResolver(book domain.AddressBook) *Resolver {
	return &Resolver{book: book}
}

// Book returns the underlying address book.
func (r *Resolver) Book() domain.AddressBook { return r.book }

// Resolve expands a single argument.
func (r *Resolver) Resolve(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if strings.Contains(arg, "{{") {
		return r.execute(arg)
	}
	if addr, ok := r.book[arg]; ok {
		return addr.Hex(), nil
	}
	if strings.HasPrefix(arg, "[") {
		items, err := SplitList(arg)
		if err != nil {
			return "", err
		}
		for i, item := range items {
			if items[i], err = r.Resolve(item); err != nil {
				return "", err
			}
		}
		return "[" + strings.Join(items, ",") + "]", nil
	}
	return arg, nil
}

// ResolveAll expands every argument.
func (r *Resolver) ResolveAll(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		v, err := r.Resolve(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (r *Resolver) execute(text string) (string, error) {
	tmpl, err := template.New("arg").Option("missingkey=error").Funcs(template.FuncMap{
		"addr": func(name string) (string, error) {
			a, err := r.book.Lookup(name)
			if err != nil {
				return "", err
			}
			return a.Hex(), nil
		},
		"id": func(s string) string { return crypto.Keccak256Hash([]byte(s)).Hex() },
		"ether": func(v any) (string, error) {
			return Scale(fmt.Sprint(v), 18)
		},
		"units": func(v any, decimals int) (string, error) {
			return Scale(fmt.Sprint(v), decimals)
		},
	}).Parse(text)
	if err != nil {
		return "", err
	}
	data := make(map[string]string, len(r.book))
	for name, a := range r.book {
		data[name] = a.Hex()
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Scale multiplies a decimal string by 10^decimals and requires an integer result.
func Scale(v string, decimals int) (string, error) {
	r, ok := new(big.Rat).SetString(strings.ReplaceAll(v, "_", ""))
	if !ok {
		return "", fmt.Errorf("not a number: %q", v)
	}
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	if !r.IsInt() {
		return "", fmt.Errorf("%s has more than %d decimals", v, decimals)
	}
	return r.Num().String(), nil
}
