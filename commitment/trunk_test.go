package commitment

import (
	"testing"

	"github.com/fantom-foundation/utxo-commit/go/dataset"
)

func TestTrunk_SplitRedistributesByNibble(t *testing.T) {
	cfg := Config{MaxLeafSize: 4, MinElementSize: 4}
	tr := newTrunk(cfg)
	ds := dataset.NewMemoryDataSet()

	elements := [][]byte{
		{0x00, 0x00, 0x00, 0x00},
		{0x01, 0x00, 0x00, 0x00},
		{0x02, 0x00, 0x00, 0x00},
		{0x03, 0x00, 0x00, 0x00},
		{0x04, 0x00, 0x00, 0x00},
	}
	for _, e := range elements {
		tr.update(e, false)
		ds.Put(e)
	}

	if len(tr.queue) != 1 {
		t.Fatalf("expected exactly one queued split item, got %d", len(tr.queue))
	}

	if err := tr.normalize(ds); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if tr.nodes[0].kind != kindBranch {
		t.Fatalf("expected root to have split into a branch")
	}
	root := tr.branches[tr.nodes[0].payload]
	for i, childIdx := range root {
		child := tr.nodes[childIdx]
		var want int64
		if i < len(elements) {
			want = 1
		}
		if child.count != want {
			t.Fatalf("child %d: expected count %d, got %d", i, want, child.count)
		}
	}
}

func TestTrunk_SplitFailsOnDatasetMismatch(t *testing.T) {
	cfg := Config{MaxLeafSize: 2, MinElementSize: 4}
	tr := newTrunk(cfg)
	ds := dataset.NewMemoryDataSet()

	// Update the trunk directly without ever inserting matching elements
	// into the dataset, so the split's range query yields nothing.
	for i := 0; i < 3; i++ {
		tr.update([]byte{0x00, byte(i), 0, 0}, false)
	}

	if err := tr.normalize(ds); err == nil {
		t.Fatalf("expected a dataset count mismatch error")
	}
}

func TestTrunk_CollapseRestoresSingleLeaf(t *testing.T) {
	cfg := Config{MaxLeafSize: 4, MinElementSize: 4}
	tr := newTrunk(cfg)
	ds := dataset.NewMemoryDataSet()

	elements := [][]byte{
		{0x00, 0x00, 0x00, 0x00},
		{0x01, 0x00, 0x00, 0x00},
		{0x02, 0x00, 0x00, 0x00},
		{0x03, 0x00, 0x00, 0x00},
		{0x04, 0x00, 0x00, 0x00},
	}
	for _, e := range elements {
		tr.update(e, false)
		ds.Put(e)
	}
	if err := tr.normalize(ds); err != nil {
		t.Fatalf("normalize (split) failed: %v", err)
	}
	if tr.nodes[0].kind != kindBranch {
		t.Fatalf("precondition: expected root to be a branch")
	}
	digestAfterSplit := tr.hash(0)

	// Remove enough elements that the branch collapses back below threshold.
	for _, e := range elements[:3] {
		tr.update(e, true)
		ds.Delete(e)
	}
	if err := tr.normalize(ds); err != nil {
		t.Fatalf("normalize (collapse) failed: %v", err)
	}
	if tr.nodes[0].kind != kindLeaf {
		t.Fatalf("expected root to collapse back into a leaf")
	}

	// The collapsed leaf's digest must equal the digest of a trunk that
	// only ever saw the two surviving elements.
	fresh := newTrunk(cfg)
	fresh.update(elements[3], false)
	fresh.update(elements[4], false)
	if got, want := tr.hash(0), fresh.hash(0); got != want {
		t.Fatalf("collapsed digest does not match direct accumulation of survivors")
	}
	if digestAfterSplit == tr.hash(0) {
		t.Fatalf("digest did not change after removing elements")
	}
}

func TestTrunk_SetCapacityPreSplitsDeepEnough(t *testing.T) {
	cfg := Config{MaxLeafSize: 10, MinElementSize: 4}
	tr := newTrunk(cfg)

	tr.setCapacity(16*20, 0)

	if tr.nodes[0].kind != kindBranch {
		t.Fatalf("expected root to be pre-split into a branch")
	}
	root := tr.branches[tr.nodes[0].payload]
	for _, childIdx := range root {
		if tr.nodes[childIdx].kind != kindBranch {
			t.Fatalf("expected second level to also be pre-split for a large estimate")
		}
	}
}

func TestTrunk_SetCapacityNoOpForSmallEstimate(t *testing.T) {
	cfg := DefaultConfig()
	tr := newTrunk(cfg)
	tr.setCapacity(10, 0)
	if tr.nodes[0].kind != kindLeaf {
		t.Fatalf("expected root to remain a leaf for a small estimate")
	}
}
