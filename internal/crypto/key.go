package crypto

import (
	"crypto/ecdsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DevKeyHex is account #0 of the default anvil/hardhat mnemonic. It only
// holds funds on local development chains.
const DevKeyHex = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// ErrBadKey is returned for malformed private keys.
var ErrBadKey = errors.New("invalid private key")

// ParseKey decodes a hex private key with or without 0x prefix.
func ParseKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	k, err := gethcrypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	return k, nil
}

// KeyFromBytes decodes a 32-byte private key.
func KeyFromBytes(b []byte) (*ecdsa.PrivateKey, error) {
	k, err := gethcrypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	return k, nil
}

// DevKey returns the fork deployer key.
func DevKey() *ecdsa.PrivateKey {
	k, err := ParseKey(DevKeyHex)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyBytes returns the 32-byte big-endian secret of k.
func KeyBytes(k *ecdsa.PrivateKey) []byte { return gethcrypto.FromECDSA(k) }

// Address derives the account address of k.
func Address(k *ecdsa.PrivateKey) common.Address { return gethcrypto.PubkeyToAddress(k.PublicKey) }

// WipeKey zeroes the secret scalar of k. k must not be used afterwards.
func WipeKey(k *ecdsa.PrivateKey) {
	if k == nil || k.D == nil {
		return
	}
	k.D.SetInt64(0)
}

// Wipe zeroes a secret byte slice.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
