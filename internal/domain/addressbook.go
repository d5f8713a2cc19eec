package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownAddress is returned when a name is not present in the address book.
var ErrUnknownAddress = errors.New("unknown address name")

// AddressBook maps contract names (e.g. "feiDAOTimelock") to deployed addresses.
type AddressBook map[string]common.Address

// Lookup returns the address registered under name.
func (b AddressBook) Lookup(name string) (common.Address, error) {
	addr, ok := b[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %q", ErrUnknownAddress, name)
	}
	return addr, nil
}

// Resolve accepts either a literal hex address or an address book name.
func (b AddressBook) Resolve(nameOrHex string) (common.Address, error) {
	if common.IsHexAddress(nameOrHex) {
		return common.HexToAddress(nameOrHex), nil
	}
	return b.Lookup(nameOrHex)
}

// Set registers (or replaces) name.
func (b AddressBook) Set(name string, addr common.Address) { b[name] = addr }

// Clone returns a shallow copy that can be extended without touching b.
func (b AddressBook) Clone() AddressBook {
	out := make(AddressBook, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Names returns the registered names in sorted order.
func (b AddressBook) Names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
