// Package commitment implements the bucketed commitment tree: an
// in-memory, incrementally-maintainable, order-independent cryptographic
// commitment over a set of unspent transaction outputs.
//
// A Tree decomposes the element space into 16 independently lockable
// Trunk subtrees by leading nibble. Each Trunk maintains a radix-16 tree
// over element prefixes whose leaves carry an incremental elliptic-curve
// multiset accumulator (package accumulator), adaptively splitting leaves
// that grow past a size threshold and collapsing branches that shrink
// below it. The commitment digest is a hash of the 16 trunk digests.
package commitment

import (
	"fmt"
	"sync"

	"github.com/fantom-foundation/utxo-commit/go/common"
	"github.com/fantom-foundation/utxo-commit/go/dataset"
)

// Tree is the top-level commitment engine: an array of 16 Trunks, dispatched
// by the high nibble of an element's first byte.
type Tree struct {
	cfg    Config
	trunks [BranchCount]*Trunk
}

// New returns an empty Tree using the protocol-mandated configuration.
func New() *Tree {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns an empty Tree using the given configuration. Tests
// may lower MaxLeafSize to exercise splitting without constructing
// thousands of elements.
func NewWithConfig(cfg Config) *Tree {
	t := &Tree{cfg: cfg}
	for i := range t.trunks {
		t.trunks[i] = newTrunk(cfg)
	}
	return t
}

// Update applies a single add or remove of element to the tree. It panics
// if element is shorter than the configured MinElementSize -- a programmer
// error, not a runtime condition callers are expected to recover from.
func (t *Tree) Update(element []byte, remove bool) {
	if len(element) < t.cfg.MinElementSize {
		panic(fmt.Sprintf("commitment: element too short: got %d bytes, need at least %d", len(element), t.cfg.MinElementSize))
	}
	trunkIdx := element[0] >> 4
	t.trunks[trunkIdx].update(element, remove)
}

// Add is a convenience wrapper serializing (outpoint, coin) and calling
// Update(..., false).
func (t *Tree) Add(op OutPoint, coin Coin) {
	t.Update(Encode(op, coin), false)
}

// Remove is a convenience wrapper serializing (outpoint, coin) and calling
// Update(..., true).
func (t *Tree) Remove(op OutPoint, coin Coin) {
	t.Update(Encode(op, coin), true)
}

// Normalize drains every trunk's FIFO queue, splitting over-sized leaves
// (via range queries against ds) and collapsing under-sized branches. The
// 16 trunks are normalized concurrently; per spec.md section 5, callers
// must not interleave concurrent Update calls with a Normalize whose result
// they intend to treat as a consistent point-in-time snapshot.
func (t *Tree) Normalize(ds dataset.DataSet) error {
	return t.forEachTrunk(func(i int) error {
		return t.trunks[i].normalize(ds)
	})
}

// InitialLoad rebuilds the tree from scratch by pulling every element out
// of ds, one independent loader goroutine per trunk. It is not safe to call
// concurrently with Update or Normalize on the same Tree.
func (t *Tree) InitialLoad(ds dataset.DataSet) error {
	return t.forEachTrunk(func(i int) error {
		t.trunks[i] = newTrunk(t.cfg)
		trunk := t.trunks[i]

		est := ds.Size() / BranchCount
		trunk.setCapacity(est, 0)

		prefix := []byte{byte(i) << 4}
		cursor, err := ds.GetRange(prefix, BranchBits)
		if err != nil {
			return fmt.Errorf("commitment: initial load range query failed: %w", err)
		}
		defer cursor.Close()

		for cursor.HasNext() {
			trunk.update(cursor.Next(), false)
		}
		if err := cursor.Err(); err != nil {
			return fmt.Errorf("commitment: initial load range query failed: %w", err)
		}

		return trunk.normalize(ds)
	})
}

// forEachTrunk runs fn(i) for every trunk index concurrently and returns the
// first error encountered, if any, after all 16 have completed.
func (t *Tree) forEachTrunk(fn func(i int) error) error {
	var wg sync.WaitGroup
	errs := make([]error, BranchCount)
	for i := 0; i < BranchCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Hash returns the tree's 32-byte commitment digest: each of the 16 trunks'
// root digests, fed in order into a single streaming hash. The digest of
// an empty tree is therefore H(L||L||...||L), 16 copies of the identity
// accumulator's digest.
func (t *Tree) Hash() common.Hash {
	var hashes [BranchCount]common.Hash
	for i := 0; i < BranchCount; i++ {
		hashes[i] = t.trunks[i].hash(0)
	}
	return reduceHashes(BranchCount, hashes[:])
}

// Combine builds a new Tree whose accumulators are the position-by-position
// combination of a's and b's. It is only defined when a and b share an
// identical node structure at every position (same kind, same branch
// shape) -- see DESIGN.md for why structural merging of differently-shaped
// trees is left undefined. ErrIncompatibleTreeShape is returned otherwise.
func Combine(a, b *Tree) (*Tree, error) {
	if a.cfg != b.cfg {
		return nil, fmt.Errorf("%w: configurations differ", ErrIncompatibleTreeShape)
	}
	out := &Tree{cfg: a.cfg}
	for i := 0; i < BranchCount; i++ {
		combined, err := combineTrunks(a.trunks[i], b.trunks[i])
		if err != nil {
			return nil, fmt.Errorf("trunk %d: %w", i, err)
		}
		out.trunks[i] = combined
	}
	return out, nil
}
