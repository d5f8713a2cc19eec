package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"feigov/internal/domain"
)

// ErrBadAddress is returned for entries that are not 20-byte hex addresses.
var ErrBadAddress = errors.New("invalid address")

// bookEntry accepts either `name: 0x...` or `name: {address: 0x...}`.
type bookEntry struct {
	Address string `yaml:"address"`
}

func (e *bookEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return n.Decode(&e.Address)
	}
	type plain bookEntry
	return n.Decode((*plain)(e))
}

// LoadAddressBook reads a YAML (or JSON) address book.
func LoadAddressBook(path string) (domain.AddressBook, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAddressBook(b)
}

// ParseAddressBook decodes an address book document.
func ParseAddressBook(b []byte) (domain.AddressBook, error) {
	var raw map[string]bookEntry
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode address book: %w", err)
	}
	book := make(domain.AddressBook, len(raw))
	for name, e := range raw {
		if !common.IsHexAddress(e.Address) {
			return nil, fmt.Errorf("%w for %q: %q", ErrBadAddress, name, e.Address)
		}
		book.Set(name, common.HexToAddress(e.Address))
	}
	return book, nil
}

// LoadAllowlist reads a YAML or JSON list of token addresses. Order is
// preserved; duplicates are rejected.
func LoadAllowlist(path string) ([]common.Address, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode allowlist %s: %w", path, err)
	}
	return ParseAllowlist(raw)
}

// ParseAllowlist validates a list of hex addresses.
func ParseAllowlist(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	seen := make(map[common.Address]bool, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w in allowlist: %q", ErrBadAddress, s)
		}
		a := common.HexToAddress(s)
		if seen[a] {
			return nil, fmt.Errorf("duplicate allowlist entry %s", a.Hex())
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}
