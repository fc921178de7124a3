package dataset

import (
	"testing"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/fantom-foundation/utxo-commit/go/common"
)

func newTestLevelDataSet(t *testing.T) *LevelDataSet {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		t.Fatalf("failed to open in-memory leveldb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return OpenLevelDataSet(db)
}

func TestLevelDataSet_GetRange_FullByteBoundary(t *testing.T) {
	d := newTestLevelDataSet(t)
	for _, e := range [][]byte{{0x30, 0x01}, {0x30, 0x02}, {0x31, 0x01}, {0x40, 0x01}} {
		if err := d.Put(e); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	c, err := d.GetRange([]byte{0x30}, 8)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	got := drain(t, c)
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got))
	}
}

func TestLevelDataSet_GetRange_HalfNibbleBoundary(t *testing.T) {
	d := newTestLevelDataSet(t)
	for _, e := range [][]byte{{0x30, 0x01}, {0x3F, 0x02}, {0x40, 0x01}} {
		if err := d.Put(e); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	c, err := d.GetRange([]byte{0x30}, 4)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	got := drain(t, c)
	if len(got) != 2 {
		t.Fatalf("expected 2 elements sharing nibble 3, got %d", len(got))
	}
}

func TestLevelDataSet_SizeTracksPutAndDelete(t *testing.T) {
	d := newTestLevelDataSet(t)
	if d.Size() != 0 {
		t.Fatalf("fresh dataset should report size 0")
	}
	if err := d.Put([]byte{0x01}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := d.Put([]byte{0x02}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if d.Size() != 2 {
		t.Fatalf("expected size 2, got %d", d.Size())
	}
	if err := d.Delete([]byte{0x01}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if d.Size() != 1 {
		t.Fatalf("expected size 1 after delete, got %d", d.Size())
	}
}

func TestNibbleRange_FullByteMatchesBytesPrefix(t *testing.T) {
	rng := nibbleRange([]byte{0x30, 0x01}, 8)
	if string(rng.Start) != "\x30" {
		t.Fatalf("unexpected start: %x", rng.Start)
	}
}

func TestLevelDataSet_FlushThenCloseSucceeds(t *testing.T) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		t.Fatalf("failed to open in-memory leveldb: %v", err)
	}
	d := OpenLevelDataSet(db)

	for _, e := range [][]byte{{0x01}, {0x02}, {0x03}} {
		if err := d.Put(e); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	if err := d.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestLevelDataSet_ImplementsFlushAndCloser(t *testing.T) {
	var _ common.FlushAndCloser = &LevelDataSet{}
}
