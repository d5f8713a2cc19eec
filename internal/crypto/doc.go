// Package crypto handles the deployer's secp256k1 keys.
//
// Contents
//
//   - Parsing hex private keys (ParseKey) and the local fork dev key (DevKey)
//   - Raw key bytes for encrypted storage (KeyBytes) and wiping (WipeKey)
//   - Short address fingerprints for display/logging (Fingerprint)
//
// Callers should treat returned secrets as sensitive and wipe them when
// practical to reduce lifetime in memory.
package crypto
