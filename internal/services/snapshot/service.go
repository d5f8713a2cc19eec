package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/merkle"
	"feigov/internal/store"
)

// ErrHolderNotFound is returned when a proof is requested for a holder that
// has no balance for the token.
var ErrHolderNotFound = errors.New("holder not in snapshot")

// Service builds merkle trees from validated snapshots.
type Service struct {
	allowlist []common.Address
	workers   int
	log       *logger.Logger
}

// New returns a snapshot service. workers bounds concurrent tree builds.
func New(allowlist []common.Address, workers int, log *logger.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{allowlist: allowlist, workers: workers, log: log}
}

// TokenTree is one token's balances and its verified tree.
type TokenTree struct {
	domain.TokenBalances
	Tree *merkle.Tree
}

// Result holds every tree of a build, in allowlist order.
type Result struct {
	Tokens []TokenTree
}

// Roots returns the token -> root mapping.
func (r *Result) Roots() domain.Roots {
	out := make(domain.Roots, len(r.Tokens))
	for _, t := range r.Tokens {
		out[t.Token] = t.Tree.Root()
	}
	return out
}

// RootsFile renders roots as {token: 0xroot} with checksummed keys.
func (r *Result) RootsFile() domain.RootsFile {
	out := make(domain.RootsFile, len(r.Tokens))
	for _, t := range r.Tokens {
		out[t.Token.Hex()] = t.Tree.Root().Hex()
	}
	return out
}

// ClaimsFile renders every holder's amount and proof.
func (r *Result) ClaimsFile() (domain.ClaimsFile, error) {
	cf := domain.ClaimsFile{Roots: r.Roots(), Claims: make(domain.Claims, len(r.Tokens))}
	for _, t := range r.Tokens {
		m := make(map[common.Address]domain.Claim, len(t.Balances))
		for _, b := range t.Balances {
			c, err := claim(t.Tree, b)
			if err != nil {
				return cf, fmt.Errorf("token %s: %w", t.Token.Hex(), err)
			}
			m[b.Holder] = c
		}
		cf.Claims[t.Token] = m
	}
	return cf, nil
}

// Lookup returns the tree for token.
func (r *Result) Lookup(token common.Address) (TokenTree, bool) {
	for _, t := range r.Tokens {
		if t.Token == token {
			return t, true
		}
	}
	return TokenTree{}, false
}

// Proof returns holder's claim under token.
func (r *Result) Proof(token, holder common.Address) (domain.Claim, error) {
	t, ok := r.Lookup(token)
	if !ok {
		return domain.Claim{}, fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	for _, b := range t.Balances {
		if b.Holder == holder {
			return claim(t.Tree, b)
		}
	}
	return domain.Claim{}, fmt.Errorf("%w: %s for token %s", ErrHolderNotFound, holder.Hex(), token.Hex())
}

func claim(tree *merkle.Tree, b domain.Balance) (domain.Claim, error) {
	leaf, err := merkle.Leaf(b.Holder, b.Amount)
	if err != nil {
		return domain.Claim{}, err
	}
	proof, err := tree.Proof(leaf)
	if err != nil {
		return domain.Claim{}, err
	}
	return domain.Claim{Amount: b.Amount.String(), Proof: proof}, nil
}

// Build constructs and verifies one tree per token. The first failure
// cancels the remaining builds.
func (s *Service) Build(ctx context.Context, balances []domain.TokenBalances) (*Result, error) {
	res := &Result{Tokens: make([]TokenTree, len(balances))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, tb := range balances {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree, err := buildTree(tb)
			if err != nil {
				return fmt.Errorf("token %s: %w", tb.Token.Hex(), err)
			}
			s.log.Debug("tree generated", "token", tb.Token.Hex(), "leaves", tree.Len())
			res.Tokens[i] = TokenTree{TokenBalances: tb, Tree: tree}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info("all trees generated and verified", "tokens", len(res.Tokens))
	return res, nil
}

func buildTree(tb domain.TokenBalances) (*merkle.Tree, error) {
	leaves := make([]common.Hash, len(tb.Balances))
	for i, b := range tb.Balances {
		leaf, err := merkle.Leaf(b.Holder, b.Amount)
		if err != nil {
			return nil, fmt.Errorf("holder %s: %w", b.Holder.Hex(), err)
		}
		leaves[i] = leaf
	}
	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}
	if err := tree.VerifyAll(); err != nil {
		return nil, err
	}
	return tree, nil
}

// BuildOptions drives a full snapshot run.
type BuildOptions struct {
	Snapshot  string
	Extra     string
	RootsOut  string
	ClaimsOut string
}

// Run loads, validates and builds, then writes the requested outputs.
func (s *Service) Run(ctx context.Context, opts BuildOptions) (*Result, error) {
	f, err := Load(opts.Snapshot)
	if err != nil {
		return nil, err
	}
	if opts.Extra != "" {
		extra, err := Load(opts.Extra)
		if err != nil {
			return nil, err
		}
		if f, err = Merge(f, extra); err != nil {
			return nil, err
		}
	}
	balances, err := s.Validate(f)
	if err != nil {
		return nil, err
	}
	res, err := s.Build(ctx, balances)
	if err != nil {
		return nil, err
	}
	if opts.RootsOut != "" {
		if err := store.WriteJSON(opts.RootsOut, res.RootsFile(), 0o644); err != nil {
			return nil, fmt.Errorf("write roots: %w", err)
		}
		s.log.Info("merkle roots written", "path", opts.RootsOut)
	}
	if opts.ClaimsOut != "" {
		cf, err := res.ClaimsFile()
		if err != nil {
			return nil, err
		}
		if err := store.WriteJSON(opts.ClaimsOut, cf, 0o644); err != nil {
			return nil, fmt.Errorf("write claims: %w", err)
		}
		s.log.Info("claims written", "path", opts.ClaimsOut)
	}
	return res, nil
}

// Validate checks f against the service allowlist.
func (s *Service) Validate(f domain.SnapshotFile) ([]domain.TokenBalances, error) {
	if len(s.allowlist) == 0 {
		s.log.Warn("no token allowlist configured; accepting every token in the snapshot")
	}
	return Validate(f, s.allowlist)
}

// VerifyClaim checks a claim for holder against root.
func VerifyClaim(root common.Hash, holder common.Address, c domain.Claim) (bool, error) {
	amount, err := ParseAmount(c.Amount)
	if err != nil {
		return false, err
	}
	leaf, err := merkle.Leaf(holder, amount)
	if err != nil {
		return false, err
	}
	return merkle.Verify(c.Proof, leaf, root), nil
}

func sortAddresses(a []common.Address) {
	slices.SortFunc(a, func(x, y common.Address) int { return bytes.Compare(x[:], y[:]) })
}

func sortBalances(b []domain.Balance) {
	slices.SortFunc(b, func(x, y domain.Balance) int { return bytes.Compare(x.Holder[:], y.Holder[:]) })
}
