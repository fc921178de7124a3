// Package dataset defines the external DataSet / Cursor contract the
// commitment tree borrows during normalize and initial_load, plus two
// concrete implementations: an in-memory one for tests, and a goleveldb
// backed one for real deployments.
//
// The commitment tree never mutates a DataSet and never retains a reference
// to one beyond the call it was passed into.
package dataset

import "github.com/fantom-foundation/utxo-commit/go/common"

// Cursor iterates the elements yielded by a range query. It is finite and
// not restartable.
type Cursor interface {
	common.Iterator[[]byte]

	// Err returns any error encountered during iteration. Callers must
	// check Err once HasNext reports false, before trusting that the
	// iteration reached the end of the range rather than an I/O failure.
	Err() error

	// Close releases resources held by the cursor. Safe to call multiple
	// times.
	Close() error
}

// DataSet is a range-queryable source of the full element set, indexed by
// nibble-aligned bit prefix. Implementations must be safe for concurrent
// use by multiple goroutines issuing independent range queries.
type DataSet interface {
	// Size returns a best-effort total element count, used only for
	// capacity estimation during initial_load; it may be approximate.
	Size() uint64

	// GetRange returns a cursor over every element whose first bits bits
	// (bits is always a multiple of BranchBits) equal prefix. prefix must
	// contain at least ceil(bits/8) bytes.
	GetRange(prefix []byte, bits uint32) (Cursor, error)
}
