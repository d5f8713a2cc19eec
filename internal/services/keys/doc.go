// Package keys manages the encrypted deployer key.
//
// It enforces the passphrase policy and persists the secp256k1 key via
// domain.KeyStore.
package keys
