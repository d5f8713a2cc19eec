package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"feigov/internal/domain"
)

const keyFile = "deployer.enc"

// ErrNoKey is returned by LoadKey before any key was imported.
var ErrNoKey = errors.New("no deployer key imported")

// KeyFileStore keeps one encrypted deployer key under dir.
type KeyFileStore struct {
	dir string
	kdf scryptParams
	mu  sync.Mutex
}

// KeyStoreOption customises a KeyFileStore.
type KeyStoreOption func(*KeyFileStore)

// WithScryptCost overrides the scrypt N parameter. Tests use a low value.
func WithScryptCost(n int) KeyStoreOption {
	return func(s *KeyFileStore) { s.kdf.N = n }
}

func NewKeyFileStore(dir string, opts ...KeyStoreOption) *KeyFileStore {
	s := &KeyFileStore{dir: dir, kdf: scryptParamsDefault()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path is the location of the encrypted key file.
func (s *KeyFileStore) Path() string { return filepath.Join(s.dir, keyFile) }

func (s *KeyFileStore) SaveKey(passphrase string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := seal(passphrase, key, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(s.Path(), b, 0o600)
}

func (s *KeyFileStore) LoadKey(passphrase string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.Path())
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNoKey
	}
	return open(passphrase, b)
}

// Exists reports whether a key has been imported.
func (s *KeyFileStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

var _ domain.KeyStore = (*KeyFileStore)(nil)
