package commitment

import (
	"fmt"
	"sync"

	"github.com/fantom-foundation/utxo-commit/go/accumulator"
	"github.com/fantom-foundation/utxo-commit/go/common"
	"github.com/fantom-foundation/utxo-commit/go/dataset"
)

// Trunk is one of the 16 top-level subtrees of a Tree. It owns its own
// node arena, leaf-accumulator pool, branch-slot pool, FIFO normalize
// queue, and mutex; every public operation acquires that mutex for its
// full duration, so distinct trunks never contend with one another.
//
// Node index 0 is always the trunk's root; splits only ever append to the
// arenas, so indices remain stable across the trunk's lifetime. Collapses
// leave their former descendants in the arena, unreclaimed (spec.md section
// 9: acceptable, since branch/leaf oscillation is rare).
type Trunk struct {
	mu sync.Mutex

	cfg Config

	nodes    []node
	leaves   []*accumulator.Accumulator
	branches []branchSlots
	queue    []normalizeItem
}

// newTrunk returns a Trunk whose root is a single empty leaf, per spec.md
// section 3: "initial state is a single empty leaf (count 0, accumulator =
// identity)".
func newTrunk(cfg Config) *Trunk {
	t := &Trunk{cfg: cfg}
	leafIdx := t.newLeafAccumulator(accumulator.New())
	t.nodes = append(t.nodes, node{kind: kindLeaf, count: 0, payload: leafIdx})
	return t
}

func (t *Trunk) newLeafAccumulator(acc *accumulator.Accumulator) uint32 {
	t.leaves = append(t.leaves, acc)
	return uint32(len(t.leaves) - 1)
}

func (t *Trunk) newBranchSlots(children branchSlots) uint32 {
	t.branches = append(t.branches, children)
	return uint32(len(t.branches) - 1)
}

func (t *Trunk) newNode(n node) uint32 {
	t.nodes = append(t.nodes, n)
	return uint32(len(t.nodes) - 1)
}

// update applies a single add/remove to the trunk, starting descent at node
// 0 with the root's nibble depth of 1 (the first nibble has already been
// consumed by the Tree to select this trunk).
func (t *Trunk) update(element []byte, remove bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delta := int64(1)
	if remove {
		delta = -1
	}

	depth := 1
	idx := uint32(0)
	for {
		n := &t.nodes[idx]
		n.count += delta

		if n.kind == kindLeaf {
			if n.count > t.cfg.MaxLeafSize {
				t.queue = append(t.queue, normalizeItem{
					nodeIndex: idx,
					bits:      uint32(depth) * BranchBits,
					prefix:    prefixBytes(element, depth),
				})
			}
			acc := t.leaves[n.payload]
			if remove {
				acc.Remove(element)
			} else {
				acc.Add(element)
			}
			return
		}

		// Branch.
		if n.count <= t.cfg.MaxLeafSize {
			t.queue = append(t.queue, normalizeItem{
				nodeIndex: idx,
				bits:      uint32(depth) * BranchBits,
				prefix:    prefixBytes(element, depth),
			})
		}
		nib := nibbleAt(element, depth)
		idx = t.branches[n.payload][nib]
		depth++
	}
}

// setCapacity pre-splits the node at nodeIndex, and recursively its
// children, when the estimated element count makes a split all but certain
// -- an optimisation for initial_load that avoids repeatedly re-splitting
// while bulk loading. It must only be called before any concurrent update
// reaches this trunk.
func (t *Trunk) setCapacity(estCount uint64, nodeIndex uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setCapacityLocked(estCount, nodeIndex, 1)
}

func (t *Trunk) setCapacityLocked(estCount uint64, nodeIndex uint32, depth int) {
	if float64(estCount)*1.5 < float64(t.cfg.MaxLeafSize) {
		return
	}
	n := &t.nodes[nodeIndex]
	if n.kind != kindLeaf {
		return
	}

	oldLeafIdx := n.payload
	t.leaves[oldLeafIdx].Reset()

	var children branchSlots
	children[0] = t.newNode(node{kind: kindLeaf, count: 0, payload: oldLeafIdx})
	for i := 1; i < BranchCount; i++ {
		leafIdx := t.newLeafAccumulator(accumulator.New())
		children[i] = t.newNode(node{kind: kindLeaf, count: 0, payload: leafIdx})
	}
	branchIdx := t.newBranchSlots(children)
	// newNode may have reallocated the arena; re-take the pointer.
	n = &t.nodes[nodeIndex]
	n.kind = kindBranch
	n.payload = branchIdx

	for _, childIdx := range children {
		t.setCapacityLocked(estCount/BranchCount, childIdx, depth+1)
	}
}

// normalize drains the trunk's FIFO queue, splitting leaves that have grown
// past MaxLeafSize and collapsing branches that have shrunk to or below it.
// Items appended to the queue by a split (its 16 fresh children) are
// processed within the same call if they themselves already qualify.
func (t *Trunk) normalize(ds dataset.DataSet) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.queue) > 0 {
		item := t.queue[0]
		t.queue = t.queue[1:]

		n := t.nodes[item.nodeIndex]
		switch {
		case n.kind == kindBranch && n.count <= t.cfg.MaxLeafSize:
			if err := t.collapse(item.nodeIndex); err != nil {
				return err
			}
		case n.kind == kindLeaf && n.count > t.cfg.MaxLeafSize:
			if err := t.split(ds, item); err != nil {
				return err
			}
		default:
			// State no longer matches the queued intent; drop it.
		}
	}
	return nil
}

// split converts the leaf at item.nodeIndex into a branch, redistributing
// the elements currently routed there (fetched fresh from ds) across 16
// new leaves.
func (t *Trunk) split(ds dataset.DataSet, item normalizeItem) error {
	n := &t.nodes[item.nodeIndex]
	depth := int(item.bits / BranchBits)

	oldLeafIdx := n.payload
	t.leaves[oldLeafIdx].Reset()

	var children branchSlots
	children[0] = t.newNode(node{kind: kindLeaf, count: 0, payload: oldLeafIdx})
	for i := 1; i < BranchCount; i++ {
		leafIdx := t.newLeafAccumulator(accumulator.New())
		children[i] = t.newNode(node{kind: kindLeaf, count: 0, payload: leafIdx})
	}
	branchIdx := t.newBranchSlots(children)

	// newNode may have reallocated the arena; re-take the pointer.
	n = &t.nodes[item.nodeIndex]
	targetCount := n.count
	n.kind = kindBranch
	n.payload = branchIdx

	cursor, err := ds.GetRange(item.prefix, item.bits)
	if err != nil {
		return fmt.Errorf("commitment: range query for split failed: %w", err)
	}
	defer cursor.Close()

	var yielded int64
	for cursor.HasNext() {
		elem := cursor.Next()
		for d := 0; d < depth; d++ {
			if nibbleAt(elem, d) != nibbleAt(item.prefix, d) {
				return fmt.Errorf("%w: element %x does not match prefix %x", ErrElementOutOfRange, elem, item.prefix)
			}
		}
		nib := nibbleAt(elem, depth)
		childIdx := children[nib]
		child := &t.nodes[childIdx]
		child.count++
		t.leaves[child.payload].Add(elem)
		yielded++
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("commitment: range query for split failed: %w", err)
	}

	if yielded != targetCount {
		return fmt.Errorf("%w: node expected %d elements, dataset yielded %d", ErrDatasetCountMismatch, targetCount, yielded)
	}

	for i, childIdx := range children {
		t.queue = append(t.queue, normalizeItem{
			nodeIndex: childIdx,
			bits:      uint32(depth+1) * BranchBits,
			prefix:    extendPrefix(item.prefix, depth, byte(i)),
		})
	}
	return nil
}

// collapse converts the branch at nodeIndex into a single leaf, combining
// every descendant leaf accumulator into one fresh accumulator. Descendant
// nodes are left in the arena, unreclaimed.
func (t *Trunk) collapse(nodeIndex uint32) error {
	n := &t.nodes[nodeIndex]
	combined := accumulator.New()
	t.collectLeaves(n.payload, combined)

	leafIdx := t.newLeafAccumulator(combined)
	n.kind = kindLeaf
	n.payload = leafIdx
	return nil
}

func (t *Trunk) collectLeaves(branchIdx uint32, into *accumulator.Accumulator) {
	for _, childIdx := range t.branches[branchIdx] {
		child := t.nodes[childIdx]
		if child.kind == kindLeaf {
			into.Combine(t.leaves[child.payload])
		} else {
			t.collectLeaves(child.payload, into)
		}
	}
}

// hash computes the trunk's digest rooted at nodeIndex: a leaf's digest is
// its accumulator's finalisation, a branch's digest is the hash of its 16
// children's digests fed into a fresh streaming hash in slot order.
func (t *Trunk) hash(nodeIndex uint32) common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hashNodeLocked(nodeIndex)
}

func (t *Trunk) hashNodeLocked(nodeIndex uint32) common.Hash {
	n := t.nodes[nodeIndex]
	if n.kind == kindLeaf {
		return t.leaves[n.payload].Finalize()
	}
	var childHashes [BranchCount]common.Hash
	for i, childIdx := range t.branches[n.payload] {
		childHashes[i] = t.hashNodeLocked(childIdx)
	}
	return reduceHashes(BranchCount, childHashes[:])
}
