package dataset

import (
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/fantom-foundation/utxo-commit/go/common"
)

// LevelDataSet is a DataSet backed by a goleveldb database. Elements are
// stored as keys with an empty value; the database therefore also acts as
// the deduplicated backing set an on-disk deployment loads from.
type LevelDataSet struct {
	db          *leveldb.DB
	approxCount int64 // maintained by Put/Delete; a best-effort estimate
}

var _ common.FlushAndCloser = (*LevelDataSet)(nil)

// OpenLevelDataSet wraps an already-opened goleveldb database as a DataSet.
func OpenLevelDataSet(db *leveldb.DB) *LevelDataSet {
	return &LevelDataSet{db: db}
}

// Put inserts an element into the backing database.
func (d *LevelDataSet) Put(element []byte) error {
	if err := d.db.Put(element, nil, nil); err != nil {
		return err
	}
	atomic.AddInt64(&d.approxCount, 1)
	return nil
}

// Delete removes an element from the backing database.
func (d *LevelDataSet) Delete(element []byte) error {
	if err := d.db.Delete(element, nil); err != nil {
		return err
	}
	atomic.AddInt64(&d.approxCount, -1)
	return nil
}

// Size implements DataSet. It is the running Put/Delete count, not a fresh
// scan of the database, and is therefore only a best-effort estimate: it
// drifts if the database was populated outside of Put/Delete (e.g. loaded
// from a snapshot written by another process), and every Put or Delete
// moves it by one even when the key was already present or absent.
func (d *LevelDataSet) Size() uint64 {
	n := atomic.LoadInt64(&d.approxCount)
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// Flush forces any writes still sitting in leveldb's memtable out to
// on-disk sstables by compacting the full keyspace, so that a Close (or a
// crash) afterward cannot lose an acknowledged Put or Delete.
func (d *LevelDataSet) Flush() error {
	return d.db.CompactRange(util.Range{})
}

// Close flushes the database and then closes it. The DataSet must not be
// used after Close returns.
func (d *LevelDataSet) Close() error {
	if err := d.Flush(); err != nil {
		return err
	}
	return d.db.Close()
}

// GetRange implements DataSet using a nibble-aligned key range scan.
func (d *LevelDataSet) GetRange(prefix []byte, bits uint32) (Cursor, error) {
	rng := nibbleRange(prefix, bits)
	it := d.db.NewIterator(rng, nil)
	return &levelCursor{it: it, prefix: prefix, bits: bits}, nil
}

// nibbleRange computes the [Start, Limit) key range covering every key
// whose first bits bits equal prefix's. For a full-byte boundary this is
// exactly util.BytesPrefix's range; for a trailing half-byte it narrows the
// final byte to the matching nibble's 16-value span.
func nibbleRange(prefix []byte, bits uint32) *util.Range {
	fullBytes := int(bits / 8)
	if bits%8 == 0 {
		return util.BytesPrefix(prefix[:fullBytes])
	}

	base := append([]byte(nil), prefix[:fullBytes+1]...)
	base[fullBytes] &= 0xF0
	start := base

	limit := append([]byte(nil), base...)
	limit[fullBytes] |= 0x0F
	limit = increment(limit)
	return &util.Range{Start: start, Limit: limit}
}

// increment returns the lexicographically next byte string after b,
// carrying through 0xFF bytes; a nil result signals no upper bound (the
// range extends to the end of the keyspace).
func increment(b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

type levelCursor struct {
	it     iterator.Iterator
	prefix []byte
	bits   uint32
	next   []byte
	done   bool
	err    error
}

func (c *levelCursor) HasNext() bool {
	if c.done {
		return false
	}
	if c.next != nil {
		return true
	}
	for c.it.Next() {
		key := c.it.Key()
		if !matchesPrefix(key, c.prefix, c.bits) {
			continue
		}
		c.next = append([]byte(nil), key...)
		return true
	}
	c.err = c.it.Error()
	c.done = true
	return false
}

func (c *levelCursor) Next() []byte {
	v := c.next
	c.next = nil
	return v
}

func (c *levelCursor) Err() error {
	return c.err
}

func (c *levelCursor) Close() error {
	c.it.Release()
	return nil
}
