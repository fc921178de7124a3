package commitment

// normalizeItem is a FIFO entry recording that a node may need splitting or
// collapsing. prefix holds the first ceil(bits/8) bytes of some element
// that was routed through the node at the time it was enqueued; bits is the
// node's nibble depth times BranchBits.
type normalizeItem struct {
	nodeIndex uint32
	bits      uint32
	prefix    []byte
}
