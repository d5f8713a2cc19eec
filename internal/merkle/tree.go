package merkle

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrEmptyTree is returned when building a tree without leaves.
	ErrEmptyTree = errors.New("merkle tree needs at least one leaf")
	// ErrDuplicateLeaf is returned when the same leaf appears twice.
	ErrDuplicateLeaf = errors.New("duplicate merkle leaf")
	// ErrLeafNotFound is returned when asking for a proof of an unknown leaf.
	ErrLeafNotFound = errors.New("leaf not in tree")
)

// Tree is an immutable sorted-pair merkle tree.
type Tree struct {
	layers [][]common.Hash
	index  map[common.Hash]int
}

// New builds a tree over leaves. The input slice is not modified.
func New(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	sorted := slices.Clone(leaves)
	slices.SortFunc(sorted, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })

	index := make(map[common.Hash]int, len(sorted))
	for i, l := range sorted {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLeaf, l.Hex())
		}
		index[l] = i
	}

	layers := [][]common.Hash{sorted}
	for cur := sorted; len(cur) > 1; {
		next := make([]common.Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 == len(cur) {
				next = append(next, cur[i])
				continue
			}
			next = append(next, hashPair(cur[i], cur[i+1]))
		}
		layers = append(layers, next)
		cur = next
	}
	return &Tree{layers: layers, index: index}, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash { return t.layers[len(t.layers)-1][0] }

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.layers[0]) }

// Leaves returns the sorted leaves.
func (t *Tree) Leaves() []common.Hash { return slices.Clone(t.layers[0]) }

// Proof returns the sibling path for leaf, bottom-up.
func (t *Tree) Proof(leaf common.Hash) ([]common.Hash, error) {
	idx, ok := t.index[leaf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLeafNotFound, leaf.Hex())
	}
	var proof []common.Hash
	for _, layer := range t.layers[:len(t.layers)-1] {
		if sib := idx ^ 1; sib < len(layer) {
			proof = append(proof, layer[sib])
		}
		idx /= 2
	}
	return proof, nil
}

// Verify reports whether proof links leaf to root.
func Verify(proof []common.Hash, leaf, root common.Hash) bool {
	h := leaf
	for _, p := range proof {
		h = hashPair(h, p)
	}
	return h == root
}

// VerifyAll checks every leaf against the root and returns the first leaf
// that fails.
func (t *Tree) VerifyAll() error {
	root := t.Root()
	for _, leaf := range t.layers[0] {
		proof, err := t.Proof(leaf)
		if err != nil {
			return err
		}
		if !Verify(proof, leaf, root) {
			return fmt.Errorf("proof for %s failed", leaf.Hex())
		}
	}
	return nil
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return keccak(a[:], b[:])
}
