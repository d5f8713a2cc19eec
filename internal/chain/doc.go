// Package chain provides a JSON-RPC implementation of domain.Chain.
//
// Standard reads and writes go through go-ethereum's ethclient. Fork cheat
// codes (impersonation, balance and storage overrides, mining, time travel,
// reset) are sent as raw RPC calls using the method prefix of the node's
// dialect: "hardhat" (also understood by anvil) or "anvil".
//
// Transactions block until mined and fail with ErrReverted when the receipt
// status is 0, so callers can run proposal commands strictly in order.
package chain
