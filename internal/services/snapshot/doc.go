// Package snapshot turns holder balance snapshots into per-token merkle
// roots, claims files and single inclusion proofs.
//
// Input is the snapshot JSON {token: {holder: "amount"}}. Every token must be
// on the configured allowlist and every allowlisted token must be present.
// Trees are built concurrently with a bounded worker count; each one is
// verified leaf by leaf before any output is written.
package snapshot
