package proposal_test

import (
	"crypto/ecdsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"feigov/internal/crypto"
)

func writeArtifact(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	return crypto.DevKey()
}
