package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/crypto"
	"feigov/internal/services/keys"
	"feigov/internal/store"
)

const pass = "Correct-Horse-9"

func newService(t *testing.T) (*keys.Service, *store.KeyFileStore) {
	t.Helper()
	ks := store.NewKeyFileStore(t.TempDir(), store.WithScryptCost(1<<10))
	return keys.New(ks), ks
}

func TestImport_ThenLoad(t *testing.T) {
	svc, ks := newService(t)

	addr, err := svc.Import(pass, crypto.DevKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr.Hex())
	assert.True(t, ks.Exists())

	k, err := svc.Load(pass)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.Address(k))

	got, err := svc.Address(pass)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestImport_WeakPassphrase(t *testing.T) {
	svc, ks := newService(t)
	for _, p := range []string{"short1!A", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, err := svc.Import(p, crypto.DevKeyHex)
		assert.ErrorIs(t, err, keys.ErrWeakPassphrase, p)
	}
	assert.False(t, ks.Exists())
}

func TestImport_BadKey(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Import(pass, "0x1234")
	assert.ErrorIs(t, err, crypto.ErrBadKey)
}

func TestLoad_WrongPassphrase(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Import(pass, crypto.DevKeyHex)
	require.NoError(t, err)

	_, err = svc.Load("Wrong-Horse-99")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestLoad_NoKey(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Load(pass)
	assert.ErrorIs(t, err, store.ErrNoKey)
}
