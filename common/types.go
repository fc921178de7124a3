package common

// Hash is a fixed-size 32-byte digest, the output type of every hashing
// primitive used across this module: accumulator finalisation, per-node
// tree hashes, and the final commitment digest.
type Hash [32]byte
