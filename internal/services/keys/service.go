package keys

import (
	"crypto/ecdsa"
	"fmt"
	"unicode"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/crypto"
	"feigov/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service imports and unlocks the deployer key using a backing store.
type Service struct {
	store domain.KeyStore
}

// New returns a key service backed by the given store.
func New(s domain.KeyStore) *Service { return &Service{store: s} }

// Import validates hexKey, saves it encrypted with the passphrase and
// returns its account address.
func (s *Service) Import(passphrase, hexKey string) (common.Address, error) {
	if !isSecurePassphrase(passphrase) {
		return common.Address{}, ErrWeakPassphrase
	}
	k, err := crypto.ParseKey(hexKey)
	if err != nil {
		return common.Address{}, err
	}
	defer crypto.WipeKey(k)

	raw := crypto.KeyBytes(k)
	defer crypto.Wipe(raw)
	if err := s.store.SaveKey(passphrase, raw); err != nil {
		return common.Address{}, err
	}
	return crypto.Address(k), nil
}

// Load decrypts the deployer key. Callers should crypto.WipeKey it when done.
func (s *Service) Load(passphrase string) (*ecdsa.PrivateKey, error) {
	raw, err := s.store.LoadKey(passphrase)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(raw)
	return crypto.KeyFromBytes(raw)
}

// Address returns the account of the stored key.
func (s *Service) Address(passphrase string) (common.Address, error) {
	k, err := s.Load(passphrase)
	if err != nil {
		return common.Address{}, err
	}
	defer crypto.WipeKey(k)
	return crypto.Address(k), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
