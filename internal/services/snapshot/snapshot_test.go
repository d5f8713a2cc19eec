package snapshot_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/merkle"
	"feigov/internal/services/snapshot"
	"feigov/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	fei    = common.HexToAddress("0x956F47F50A910163D8BF957Cf5846D573E7f87CA")
	alice  = "0x11e52c75998fe2E7928B191bfc5B25937Ca16741"
	bob    = "0x96fa6ACfc5F683Db191234c74D315e5D732b07c0"
	carol  = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

func sample() domain.SnapshotFile {
	return domain.SnapshotFile{
		tokenA.Hex(): {alice: "1000000000000000000", bob: "1000000000000000000", carol: "5"},
		tokenB.Hex(): {bob: "42"},
	}
}

func newService(allow ...common.Address) *snapshot.Service {
	return snapshot.New(allow, 2, logger.Nop())
}

func TestValidate_AllowlistOrder(t *testing.T) {
	got, err := snapshot.Validate(sample(), []common.Address{tokenB, tokenA})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, tokenB, got[0].Token)
	assert.Equal(t, tokenA, got[1].Token)
	assert.Len(t, got[1].Balances, 3)
}

func TestValidate_Errors(t *testing.T) {
	allow := []common.Address{tokenA, tokenB}

	_, err := snapshot.Validate(sample(), []common.Address{tokenA})
	assert.ErrorIs(t, err, snapshot.ErrTokenCount)

	other := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	_, err = snapshot.Validate(sample(), []common.Address{tokenA, other})
	assert.ErrorIs(t, err, snapshot.ErrUnknownToken)

	bad := sample()
	bad[tokenB.Hex()]["not-an-address"] = "1"
	_, err = snapshot.Validate(bad, allow)
	assert.ErrorIs(t, err, snapshot.ErrBadHolder)

	bad = sample()
	bad[tokenB.Hex()][bob] = "-1"
	_, err = snapshot.Validate(bad, allow)
	assert.ErrorIs(t, err, snapshot.ErrBadAmount)

	bad = sample()
	bad[tokenB.Hex()][bob] = "1.5"
	_, err = snapshot.Validate(bad, allow)
	assert.ErrorIs(t, err, snapshot.ErrBadAmount)

	bad = sample()
	bad[tokenB.Hex()]["0x96FA6ACFC5F683DB191234C74D315E5D732B07C0"] = "1"
	_, err = snapshot.Validate(bad, allow)
	assert.ErrorIs(t, err, snapshot.ErrDuplicateHolder)
}

func TestParseAmount_Range(t *testing.T) {
	limit := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	n, err := snapshot.ParseAmount(limit.String())
	require.NoError(t, err)
	assert.Equal(t, 0, n.Cmp(limit))

	_, err = snapshot.ParseAmount(new(big.Int).Add(limit, big.NewInt(1)).String())
	assert.ErrorIs(t, err, snapshot.ErrBadAmount)
}

func checksum(h string) string { return common.HexToAddress(h).Hex() }

func TestMerge_ExtraOverrides(t *testing.T) {
	base := sample()
	extra := domain.SnapshotFile{
		tokenA.Hex(): {alice: "7"},
		tokenB.Hex(): {carol: "9"},
	}
	got, err := snapshot.Merge(base, extra)
	require.NoError(t, err)

	assert.Equal(t, "7", got[tokenA.Hex()][checksum(alice)])
	assert.Equal(t, "1000000000000000000", got[tokenA.Hex()][checksum(bob)])
	assert.Equal(t, "9", got[tokenB.Hex()][checksum(carol)])
	assert.Equal(t, "1000000000000000000", base[tokenA.Hex()][alice], "base untouched")
}

func TestMerge_MixedCaseKeysOverride(t *testing.T) {
	base := domain.SnapshotFile{
		fei.Hex(): {checksum(alice): "100", checksum(bob): "1"},
	}
	extra := domain.SnapshotFile{
		strings.ToLower(fei.Hex()): {strings.ToLower(alice): "7"},
	}
	got, err := snapshot.Merge(base, extra)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[fei.Hex()], 2)

	balances, err := snapshot.Validate(got, []common.Address{fei})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	for _, b := range balances[0].Balances {
		if b.Holder == common.HexToAddress(alice) {
			assert.Equal(t, int64(7), b.Amount.Int64())
		}
	}
}

func TestMerge_RejectsCaseVariantDuplicates(t *testing.T) {
	dupToken := domain.SnapshotFile{
		fei.Hex():                  {alice: "1"},
		strings.ToLower(fei.Hex()): {bob: "2"},
	}
	_, err := snapshot.Merge(sample(), dupToken)
	assert.ErrorIs(t, err, snapshot.ErrDuplicateToken)

	dupHolder := domain.SnapshotFile{
		fei.Hex(): {checksum(carol): "1", carol: "2"},
	}
	_, err = snapshot.Merge(dupHolder, domain.SnapshotFile{})
	assert.ErrorIs(t, err, snapshot.ErrDuplicateHolder)
}

func TestValidate_CaseVariantTokenRejected(t *testing.T) {
	f := domain.SnapshotFile{
		fei.Hex():                  {alice: "1"},
		strings.ToLower(fei.Hex()): {bob: "2"},
		tokenB.Hex():               {bob: "3"},
	}
	_, err := snapshot.Validate(f, nil)
	assert.ErrorIs(t, err, snapshot.ErrDuplicateToken)

	// Three keys but two distinct tokens must not pass a two-entry allowlist.
	_, err = snapshot.Validate(f, []common.Address{fei, tokenB})
	assert.ErrorIs(t, err, snapshot.ErrDuplicateToken)
}

func TestBuild_RootsMatchDirectTree(t *testing.T) {
	s := newService(tokenA, tokenB)
	balances, err := s.Validate(sample())
	require.NoError(t, err)

	res, err := s.Build(context.Background(), balances)
	require.NoError(t, err)

	leaf, err := merkle.Leaf(common.HexToAddress(bob), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, leaf, res.Roots()[tokenB], "single leaf is its own root")

	var leaves []common.Hash
	for h, a := range sample()[tokenA.Hex()] {
		n, _ := new(big.Int).SetString(a, 10)
		l, err := merkle.Leaf(common.HexToAddress(h), n)
		require.NoError(t, err)
		leaves = append(leaves, l)
	}
	tree, err := merkle.New(leaves)
	require.NoError(t, err)
	assert.Equal(t, tree.Root(), res.Roots()[tokenA])
}

func TestBuild_EmptyTokenFails(t *testing.T) {
	s := newService()
	_, err := s.Build(context.Background(), []domain.TokenBalances{
		{Token: tokenA, Balances: []domain.Balance{{Holder: common.HexToAddress(alice), Amount: big.NewInt(1)}}},
		{Token: tokenB},
	})
	require.ErrorIs(t, err, merkle.ErrEmptyTree)
	assert.Contains(t, err.Error(), tokenB.Hex())
}

func TestProofAndVerifyClaim(t *testing.T) {
	s := newService(tokenA, tokenB)
	balances, err := s.Validate(sample())
	require.NoError(t, err)
	res, err := s.Build(context.Background(), balances)
	require.NoError(t, err)

	c, err := res.Proof(tokenA, common.HexToAddress(carol))
	require.NoError(t, err)
	assert.Equal(t, "5", c.Amount)
	assert.NotEmpty(t, c.Proof)

	ok, err := snapshot.VerifyClaim(res.Roots()[tokenA], common.HexToAddress(carol), c)
	require.NoError(t, err)
	assert.True(t, ok)

	c.Amount = "6"
	ok, err = snapshot.VerifyClaim(res.Roots()[tokenA], common.HexToAddress(carol), c)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = res.Proof(tokenB, common.HexToAddress(alice))
	assert.ErrorIs(t, err, snapshot.ErrHolderNotFound)
}

func TestRun_WritesRootsAndClaims(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "snapshot.json")
	extra := filepath.Join(dir, "extra.json")
	require.NoError(t, store.WriteJSON(snap, sample(), 0o644))
	require.NoError(t, store.WriteJSON(extra, domain.SnapshotFile{tokenB.Hex(): {carol: "3"}}, 0o644))

	s := newService(tokenA, tokenB)
	res, err := s.Run(context.Background(), snapshot.BuildOptions{
		Snapshot:  snap,
		Extra:     extra,
		RootsOut:  filepath.Join(dir, "out", "roots.json"),
		ClaimsOut: filepath.Join(dir, "out", "claims.json"),
	})
	require.NoError(t, err)

	var roots domain.RootsFile
	require.NoError(t, store.ReadJSON(filepath.Join(dir, "out", "roots.json"), &roots))
	assert.Equal(t, res.RootsFile(), roots)

	var claims domain.ClaimsFile
	require.NoError(t, store.ReadJSON(filepath.Join(dir, "out", "claims.json"), &claims))
	require.Len(t, claims.Claims[tokenB], 2, "extra holder merged")
	for token, holders := range claims.Claims {
		for holder, c := range holders {
			ok, err := snapshot.VerifyClaim(claims.Roots[token], holder, c)
			require.NoError(t, err)
			assert.True(t, ok, "%s/%s", token.Hex(), holder.Hex())
		}
	}
}

func TestRun_MissingSnapshot(t *testing.T) {
	_, err := newService().Run(context.Background(), snapshot.BuildOptions{
		Snapshot: filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
