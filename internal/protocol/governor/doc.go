// Package governor encodes proposal batches for the DAO governor and for
// timelock controllers, and drives an existing governor proposal through
// its lifecycle on a forked chain.
//
// # Encodings
//
//   - Propose: propose(address[],uint256[],string[],bytes[],string), the
//     Bravo-compatible entry point taking signatures and argument-only
//     calldatas.
//   - ProposalID: keccak256(abi.encode(targets, values, calldatas,
//     keccak256(description))) over full calldatas.
//   - ScheduleBatch / ExecuteBatch: TimelockController batch calls.
//
// # Execution
//
// Executor walks Pending -> Active -> Succeeded -> Queued -> Executed by
// mining blocks, voting as an impersonated voter, queueing, advancing time
// to the eta and executing.
package governor
