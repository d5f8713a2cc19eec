// Package proposal loads declarative proposals, renders their governance
// calldata and checks them against a forked chain.
//
// A proposal is a config entry (category, value, on-chain id) plus a
// description file listing the timelock commands and the deploy, setup,
// capture, teardown and check steps that surround them. Built-in
// descriptions are embedded; a directory passed to NewRegistry overrides
// them by file name.
package proposal
