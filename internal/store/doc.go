// Package store provides file-based persistence for feigov.
//
// It contains concrete implementations of the domain storage interfaces
// and the loaders for operator-maintained input files:
//   - Deployer key, encrypted under a passphrase (KeyFileStore)
//   - Proposal check history in SQLite (SQLiteHistory)
//   - Address book and token allowlist (YAML or JSON)
//   - Compiled contract artifacts (hardhat or foundry JSON)
//
// JSON outputs are written atomically (temp file, then rename).
package store
