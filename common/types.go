package common

// HashSize is the byte length of a Hash.
const HashSize = 32

// Hash is a 32-byte keccak256 digest. It is the identity of an MPT node,
// being the hash of the node's canonical RLP encoding.
type Hash [32]byte
