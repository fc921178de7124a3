package commitment

import "github.com/fantom-foundation/utxo-commit/go/common"

// Sentinel errors. ErrDatasetCountMismatch and ErrElementOutOfRange are
// surfaced by Normalize and InitialLoad and indicate the dataset passed in
// is out of sync with the tree's recorded counts; the tree state is then
// unreliable and callers must rebuild via InitialLoad against a consistent
// dataset rather than continue operating. ErrIncompatibleTreeShape is
// surfaced by Combine only.
const (
	// ErrDatasetCountMismatch is returned when a split's range query yields
	// a different number of elements than the node's recorded count.
	ErrDatasetCountMismatch = common.ConstError("commitment: dataset range query yielded a different element count than expected")

	// ErrElementOutOfRange is returned when a range query yields an element
	// that does not actually fall under the queried prefix.
	ErrElementOutOfRange = common.ConstError("commitment: dataset range query yielded an element outside the requested prefix")

	// ErrIncompatibleTreeShape is returned by Combine when the two trees do
	// not share an identical node structure at every position.
	ErrIncompatibleTreeShape = common.ConstError("commitment: trees do not share a compatible structure for combine")
)
