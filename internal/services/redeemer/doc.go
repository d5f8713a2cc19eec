// Package redeemer prepares and deploys the merkle redeemer contract.
//
// Constructor arguments are (address fei, address[] cTokens, uint256[] rates,
// bytes32[] roots). The three arrays are ordered by the token allowlist, not
// by the order entries appear in the rates and roots files.
package redeemer
