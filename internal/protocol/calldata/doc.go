// Package calldata turns declarative proposal commands into ABI calldata.
//
// A command names a Solidity method signature such as
// "transfer(address,uint256)" and a list of argument templates. Templates
// are resolved against an address book (see Resolver) and then converted to
// typed ABI values and packed with go-ethereum's encoder.
//
// Supported argument types: address, bool, string, bytes, bytesN, uintN,
// intN, and fixed or dynamic arrays of those written as "[a, b, c]".
// Tuples are not supported.
package calldata
