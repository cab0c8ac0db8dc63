package proof

import (
	"github.com/gfx-labs/ssz/merkle"
	"github.com/gfx-labs/ssz/sszerrors"
)

// Node is one node of the in-memory Merkle tree built over a value's leaves,
// adapted from the node/left/right/isEmpty shape used for SSZ proof
// generation: leaves carry a value directly, branch nodes cache their hash
// on first computation and recompute nothing afterward.
type Node struct {
	left, right *Node
	isEmpty     bool
	value       [32]byte
	hashed      bool
}

// NewLeaf wraps a single 32-byte chunk as a leaf node.
func NewLeaf(value [32]byte) *Node {
	return &Node{value: value, hashed: true}
}

// newZero returns the cached zero-subtree node of the given depth.
func newZero(depth uint8) *Node {
	return &Node{value: merkle.ZeroHash(depth), hashed: true, isEmpty: true}
}

// NewBranch joins two children into a branch node; its hash is computed
// lazily on first call to Hash.
func NewBranch(left, right *Node) *Node {
	return &Node{left: left, right: right}
}

// BuildTree builds a complete binary Merkle tree over leaves, padding with
// cached zero subtrees up to limit (which must already be a power of two,
// per spec §4.3's "pad to the next power of two >= limit").
func BuildTree(leaves []*Node, limit uint64) (*Node, error) {
	if limit == 0 {
		return nil, sszerrors.NewInvalidBound(0)
	}
	if limit == 1 {
		if len(leaves) == 0 {
			return newZero(0), nil
		}
		return leaves[0], nil
	}

	depth := merkle.GetDepth(limit)
	level := make([]*Node, limit)
	for i := range level {
		if i < len(leaves) {
			level[i] = leaves[i]
		} else {
			level[i] = newZero(0)
		}
	}

	for d := uint8(0); d < depth; d++ {
		next := make([]*Node, len(level)/2)
		for i := range next {
			next[i] = NewBranch(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0], nil
}

// Hash returns the 32-byte root of the subtree rooted at n, memoizing the
// result the first time it is computed.
func (n *Node) Hash() [32]byte {
	if n.hashed {
		return n.value
	}
	left := n.left.Hash()
	right := n.right.Hash()
	n.value = merkle.Sha256(left[:], right[:])
	n.hashed = true
	return n.value
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.left == nil && n.right == nil }

// Get walks down from n following i's generalized-index bit path (most
// significant bit first, after the leading 1) and returns the node at i.
func (n *Node) Get(i GeneralizedIndex) (*Node, error) {
	depth := i.Depth()
	cur := n
	for k := 0; k < depth; k++ {
		if cur.IsLeaf() {
			return nil, sszerrors.NewInvalidProof("generalized index descends past a leaf")
		}
		if i.Bit(k) {
			cur = cur.right
		} else {
			cur = cur.left
		}
		if cur == nil {
			return nil, sszerrors.NewInvalidProof("generalized index not present in tree")
		}
	}
	return cur, nil
}
