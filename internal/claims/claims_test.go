package claims_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/claims"
	"feigov/internal/domain"
	"feigov/internal/logger"
	"feigov/internal/services/snapshot"
	"feigov/internal/store"
)

var (
	token  = common.HexToAddress("0xd8553552f8868C1Ef160eEdf031cF0BCf9686945")
	holder = common.HexToAddress("0xaBcDEF0000000000000000000000000000000001")
	other  = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func init() { gin.SetMode(gin.TestMode) }

func claimsFile(t *testing.T) domain.ClaimsFile {
	t.Helper()
	res, err := snapshot.New(nil, 1, logger.Nop()).Build(context.Background(), []domain.TokenBalances{{
		Token: token,
		Balances: []domain.Balance{
			{Holder: holder, Amount: big.NewInt(1000)},
			{Holder: other, Amount: big.NewInt(5)},
		},
	}})
	require.NoError(t, err)
	f, err := res.ClaimsFile()
	require.NoError(t, err)
	return f
}

func newServer(t *testing.T) (*httptest.Server, domain.ClaimsFile) {
	t.Helper()
	f := claimsFile(t)
	s, err := claims.NewStore(f)
	require.NoError(t, err)
	srv := httptest.NewServer(claims.NewRouter(s, logger.Nop()))
	t.Cleanup(srv.Close)
	return srv, f
}

func TestServer_Roots(t *testing.T) {
	srv, f := newServer(t)

	roots, err := claims.NewClient(srv.URL).Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RootsFile{token.Hex(): f.Roots[token].Hex()}, roots)
}

func TestServer_ClaimCaseInsensitive(t *testing.T) {
	srv, f := newServer(t)

	for _, h := range []string{holder.Hex(), strings.ToLower(holder.Hex()), "0x" + strings.ToUpper(holder.Hex()[2:])} {
		resp, err := http.Get(srv.URL + "/claims/" + strings.ToLower(token.Hex()) + "/" + h)
		require.NoError(t, err)
		var got claims.ClaimResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, h)
		assert.Equal(t, "1000", got.Amount)
		assert.Equal(t, f.Claims[token][holder].Proof, got.Proof)
	}
}

func TestClient_ClaimVerifies(t *testing.T) {
	srv, _ := newServer(t)

	got, err := claims.NewClient(srv.URL).Claim(context.Background(), token, other)
	require.NoError(t, err)
	ok, err := snapshot.VerifyClaim(got.Root, other, got.Claim)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServer_NotFound(t *testing.T) {
	srv, _ := newServer(t)
	cases := map[string]struct {
		path   string
		status int
		code   string
	}{
		"token":   {"/claims/" + other.Hex() + "/" + holder.Hex(), http.StatusNotFound, "unknown_token"},
		"holder":  {"/claims/" + token.Hex() + "/" + token.Hex(), http.StatusNotFound, "unknown_holder"},
		"address": {"/claims/" + token.Hex() + "/bob", http.StatusBadRequest, "invalid_address"},
		"route":   {"/nope", http.StatusNotFound, "not_found"},
	}
	for name, c := range cases {
		resp, err := http.Get(srv.URL + c.path)
		require.NoError(t, err, name)
		var env claims.ErrorEnvelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env), name)
		resp.Body.Close()
		assert.Equal(t, c.status, resp.StatusCode, name)
		assert.Equal(t, c.code, env.Error.Code, name)
	}

	_, err := claims.NewClient(srv.URL).Claim(context.Background(), other, holder)
	assert.ErrorContains(t, err, "unknown token")
}

func TestServer_Health(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.json")
	require.NoError(t, store.WriteJSON(path, claimsFile(t), 0o644))

	s, err := claims.LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Tokens())
	_, _, err = s.Claim(token, holder)
	assert.NoError(t, err)

	_, err = claims.NewStore(domain.ClaimsFile{Claims: domain.Claims{token: {}}})
	assert.Error(t, err)
}
