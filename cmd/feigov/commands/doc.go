// Package commands defines the feigov CLI and wires dependencies for subcommands.
//
// Commands
//
//   - merkle build|proof|verify          Build snapshot trees, print or check proofs
//   - proposal list|calldata|check        Render and check governance proposals
//   - redeemer args|deploy                Encode and deploy the merkle redeemer
//   - fork reset|set-balance|deal|...     Manipulate a forked development chain
//   - keys import|address                 Manage the encrypted deployer key
//   - history                             List recorded proposal check runs
//   - claims get                          Fetch and verify a claim from a claims server
//
// # Implementation
//
// The root command loads Config (file, .env, environment, then flags) and
// builds the app context before any subcommand runs. The chain connection
// and history database are opened on first use and closed afterwards.
package commands
