package commitment

import (
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/fantom-foundation/utxo-commit/go/common"
)

// hashWriter is the streaming 32-byte hash primitive hash() feeds every
// branch's children hashes, and every leaf's accumulator digest, into.
// There is no explicit domain separation beyond positional layout: a
// trunk's hash depends only on the ordered sequence of its children's
// hashes (or, for a leaf, its accumulator's digest alone).
type hashWriter struct {
	h hash.Hash
}

func newHashWriter() hashWriter {
	return hashWriter{h: sha3.New256()}
}

func (w hashWriter) Write(b []byte) {
	w.h.Write(b)
}

func (w hashWriter) Finalize() (out common.Hash) {
	copy(out[:], w.h.Sum(nil))
	return out
}

// reduceHashes combines a list of child digests into one, grouping them into
// branchingFactor-sized chunks and repeatedly hashing each chunk down to a
// single digest until only one remains. Short groups are padded with the
// zero hash so every chunk is full-width.
func reduceHashes(branchingFactor int, hashes []common.Hash) common.Hash {
	if len(hashes) == 0 {
		return common.Hash{}
	}
	if len(hashes) == 1 {
		return hashes[0]
	}

	level := make([]common.Hash, len(hashes))
	copy(level, hashes)
	for len(level)%branchingFactor != 0 {
		level = append(level, common.Hash{})
	}

	for len(level) > 1 {
		next := make([]common.Hash, len(level)/branchingFactor)
		for i := range next {
			w := newHashWriter()
			for j := 0; j < branchingFactor; j++ {
				h := level[i*branchingFactor+j]
				w.Write(h[:])
			}
			next[i] = w.Finalize()
		}
		level = next
		for len(level) > 1 && len(level)%branchingFactor != 0 {
			level = append(level, common.Hash{})
		}
	}
	return level[0]
}
