package trie

// A node is the single record type used for both interior and terminal
// nodes of the radix trie. The high bit of the header distinguishes the
// two roles. For a terminal node the remaining 31 bits hold the length
// of the radix-compressed suffix stored in suffix. For an interior node
// they hold the child arity, the length of children.
//
// Storing both roles in one record makes it cheap to convert a terminal
// into an interior node when a second sequence needs to share its
// prefix, and back again when pruning after deletion.
//
// A count higher than 0 signifies that there are sequences that have
// this node as their last node. Nodes with a count are not necessarily
// terminal, since sequences stored in the trie may be of unequal size.
type node struct {
	header   uint32
	count    uint32
	children []*node
	suffix   []byte
}

const (
	terminalFlag   = 0x80000000
	suffixSizeMask = 0x7FFFFFFF
	maxSuffixSize  = 0x7FFFFFFF
	maxNodeArity   = 255

	// Memory accounting uses a packed layout: a node costs 8 bytes of
	// header plus count, 8 bytes per child slot and one byte per
	// suffix byte. memorySize reports this layout, not the Go heap.
	nodeBaseSize  = 8
	childSlotSize = 8
)

func (n *node) isTerminal() bool {
	return n.header&terminalFlag != 0
}

func (n *node) suffixSize() int {
	return int(n.header & suffixSizeMask)
}

func (n *node) arity() int {
	return int(n.header)
}

func (n *node) setTerminal(suffixSize int) {
	n.header = terminalFlag | uint32(suffixSize)
}

func (n *node) setInterior(arity int) {
	n.header = uint32(arity)
}

// newLeaf allocates a terminal node holding a copy of suffix.
func newLeaf(suffix []byte, count uint32) *node {
	n := &node{count: count}
	n.setTerminal(len(suffix))
	n.suffix = make([]byte, len(suffix))
	copy(n.suffix, suffix)
	return n
}

// childAt returns the child for the given index. It returns nil when
// the node is terminal or the index lies beyond the arity, so an
// unknown character index can be probed without a bounds check.
func (n *node) childAt(i int) *node {
	if n.isTerminal() || i >= n.arity() {
		return nil
	}
	return n.children[i]
}

// resize grows the child slot array to the given arity, zero filling
// the new trailing slots. Valid on interior nodes, or on a terminal
// node with no suffix as the arity 0 starting point of a split.
func (n *node) resize(arity int) error {
	if arity > maxNodeArity {
		return ErrAlphabetFull
	}
	old := 0
	if !n.isTerminal() {
		old = n.arity()
	}
	if arity == old {
		return nil
	}
	children := make([]*node, arity)
	copy(children, n.children[:min(old, arity)])
	n.children = children
	n.setInterior(arity)
	return nil
}

// memorySize returns the byte cost of the subtree under the packed
// layout described above.
func (n *node) memorySize() int64 {
	if n == nil {
		return 0
	}
	size := int64(nodeBaseSize)
	if n.isTerminal() {
		return size + int64(n.suffixSize())
	}
	size += childSlotSize * int64(n.arity())
	for _, child := range n.children {
		size += child.memorySize()
	}
	return size
}

// gatherStats records one bucket per node into the rectangular stats
// table: terminal nodes in bucket 0 of their layer, interior nodes in
// the bucket matching their arity.
func (n *node) gatherStats(layer, layerSize int, stats []int64) {
	if n == nil {
		return
	}
	layerStats := stats[layerSize*layer:]
	if n.isTerminal() {
		layerStats[0]++
		return
	}
	layerStats[n.arity()]++
	for _, child := range n.children {
		child.gatherStats(layer+1, layerSize, stats)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
