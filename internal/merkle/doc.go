// Package merkle builds keccak256 merkle trees with sorted-pair hashing.
//
// Leaves are sorted before construction and every internal node hashes the
// smaller child first, so a proof does not encode left/right positions and
// verifies the same way on-chain (OpenZeppelin MerkleProof). An odd node at
// the end of a layer is promoted unchanged.
//
// Snapshot leaves are keccak256(abi.encodePacked(address, uint256)); see Leaf.
package merkle
