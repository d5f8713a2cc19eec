package claims

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/domain"
	"feigov/internal/store"
)

var (
	ErrUnknownToken  = errors.New("unknown token")
	ErrUnknownHolder = errors.New("no claim for holder")
)

// Store is an immutable in-memory view of a claims file.
type Store struct {
	roots  domain.Roots
	claims domain.Claims
}

// NewStore indexes f. Every token with claims must have a root.
func NewStore(f domain.ClaimsFile) (*Store, error) {
	for token := range f.Claims {
		if _, ok := f.Roots[token]; !ok {
			return nil, fmt.Errorf("token %s has claims but no root", token.Hex())
		}
	}
	if f.Roots == nil {
		f.Roots = domain.Roots{}
	}
	return &Store{roots: f.Roots, claims: f.Claims}, nil
}

// LoadStore reads a claims file written by the snapshot builder.
func LoadStore(path string) (*Store, error) {
	var f domain.ClaimsFile
	if err := store.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	return NewStore(f)
}

// Roots returns the roots keyed by checksummed token address.
func (s *Store) Roots() domain.RootsFile {
	out := make(domain.RootsFile, len(s.roots))
	for token, root := range s.roots {
		out[token.Hex()] = root.Hex()
	}
	return out
}

// Claim returns the claim of holder for token together with the token root.
func (s *Store) Claim(token, holder common.Address) (domain.Claim, common.Hash, error) {
	root, ok := s.roots[token]
	if !ok {
		return domain.Claim{}, common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	c, ok := s.claims[token][holder]
	if !ok {
		return domain.Claim{}, common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownHolder, holder.Hex())
	}
	return c, root, nil
}

// Tokens reports how many tokens the store serves.
func (s *Store) Tokens() int { return len(s.roots) }
