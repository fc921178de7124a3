package commitment

import (
	"testing"

	"github.com/fantom-foundation/utxo-commit/go/common"
)

func TestReduceHashes_EmptyAndSingleton(t *testing.T) {
	if got := reduceHashes(16, nil); got != (common.Hash{}) {
		t.Fatalf("expected zero hash for empty input, got %x", got)
	}
	one := common.Hash{1, 2, 3}
	if got := reduceHashes(16, []common.Hash{one}); got != one {
		t.Fatalf("expected singleton input to pass through unchanged")
	}
}

func TestReduceHashes_FullGroupMatchesDirectHash(t *testing.T) {
	var hashes [16]common.Hash
	for i := range hashes {
		hashes[i] = common.Hash{byte(i)}
	}

	got := reduceHashes(16, hashes[:])

	w := newHashWriter()
	for _, h := range hashes {
		w.Write(h[:])
	}
	want := w.Finalize()

	if got != want {
		t.Fatalf("reduceHashes on one full branch did not match a direct streaming hash")
	}
}

func TestReduceHashes_PadsShortGroupsWithZero(t *testing.T) {
	hashes := []common.Hash{{1}, {2}, {3}}

	padded := append([]common.Hash{}, hashes...)
	for len(padded) < 16 {
		padded = append(padded, common.Hash{})
	}

	if got, want := reduceHashes(16, hashes), reduceHashes(16, padded); got != want {
		t.Fatalf("short group was not implicitly padded to match an explicitly padded one")
	}
}

func TestReduceHashes_MultiLevelReduction(t *testing.T) {
	// 5 leaf hashes with branching factor 2: pads to 6, reduces to 3, pads
	// to 4, reduces to 2, reduces to 1.
	hashes := make([]common.Hash, 5)
	for i := range hashes {
		hashes[i] = common.Hash{byte(i + 1)}
	}
	got := reduceHashes(2, hashes)

	// Recompute by hand following the same padding rule at each level.
	level := append([]common.Hash{}, hashes...)
	combine := func(lvl []common.Hash) []common.Hash {
		for len(lvl)%2 != 0 {
			lvl = append(lvl, common.Hash{})
		}
		next := make([]common.Hash, len(lvl)/2)
		for i := range next {
			w := newHashWriter()
			w.Write(lvl[2*i][:])
			w.Write(lvl[2*i+1][:])
			next[i] = w.Finalize()
		}
		return next
	}
	for len(level) > 1 {
		level = combine(level)
	}

	if got != level[0] {
		t.Fatalf("multi-level reduction did not match manual step-by-step reduction")
	}
}
