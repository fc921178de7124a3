package commitment

import "fmt"

// combineTrunks builds a fresh Trunk whose arena mirrors a's and b's
// structure, with each leaf's accumulator combined and each node's count
// summed. See spec.md section 9, open question 1: the structural merge
// semantics of differently-shaped trunks are left to the implementation;
// this one requires identical shape and fails loudly otherwise.
func combineTrunks(a, b *Trunk) (*Trunk, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := newTrunk(a.cfg)
	// newTrunk already allocated a root leaf; discard it and rebuild from
	// the combined structure starting at index 0.
	out.nodes = out.nodes[:0]
	out.leaves = out.leaves[:0]
	out.branches = out.branches[:0]

	if _, err := combineNode(a, b, 0, 0, out); err != nil {
		return nil, err
	}
	return out, nil
}

func combineNode(a, b *Trunk, idxA, idxB uint32, out *Trunk) (uint32, error) {
	na := a.nodes[idxA]
	nb := b.nodes[idxB]
	if na.kind != nb.kind {
		return 0, fmt.Errorf("%w: node kind mismatch at a=%d b=%d", ErrIncompatibleTreeShape, idxA, idxB)
	}

	if na.kind == kindLeaf {
		acc := a.leaves[na.payload].Clone()
		acc.Combine(b.leaves[nb.payload])
		leafIdx := out.newLeafAccumulator(acc)
		return out.newNode(node{kind: kindLeaf, count: na.count + nb.count, payload: leafIdx}), nil
	}

	// Append the branch node before its children so that the root of the
	// combined trunk lands at index 0.
	idx := out.newNode(node{kind: kindBranch, count: na.count + nb.count})
	childrenA := a.branches[na.payload]
	childrenB := b.branches[nb.payload]
	var outChildren branchSlots
	for i := 0; i < BranchCount; i++ {
		childIdx, err := combineNode(a, b, childrenA[i], childrenB[i], out)
		if err != nil {
			return 0, err
		}
		outChildren[i] = childIdx
	}
	out.nodes[idx].payload = out.newBranchSlots(outChildren)
	return idx, nil
}
