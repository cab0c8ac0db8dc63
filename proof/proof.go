package proof

import (
	"github.com/gfx-labs/ssz/merkle"
	"github.com/gfx-labs/ssz/sszerrors"
)

// Proof is a single-leaf Merkle proof: the leaf value at GeneralizedIndex,
// the branch of sibling nodes from the leaf up to (but excluding) the root,
// ordered leaf-to-root, and the witness root it is meant to reconstruct.
type Proof struct {
	Index   GeneralizedIndex
	Leaf    [32]byte
	Branch  [][32]byte
	Witness [32]byte
}

// Prove builds a single-leaf proof for index i against tree, whose root is
// the witness.
func Prove(tree *Node, i GeneralizedIndex) (*Proof, error) {
	depth := i.Depth()
	branch := make([][32]byte, 0, depth)

	cur := tree
	for k := 0; k < depth; k++ {
		if cur.IsLeaf() {
			return nil, sszerrors.NewInvalidProof("generalized index descends past a leaf")
		}
		var sibling *Node
		if i.Bit(k) {
			sibling = cur.left
			cur = cur.right
		} else {
			sibling = cur.right
			cur = cur.left
		}
		if cur == nil || sibling == nil {
			return nil, sszerrors.NewInvalidProof("generalized index not present in tree")
		}
		branch = append(branch, sibling.Hash())
	}

	// branch was collected root-to-leaf (outermost sibling first); reverse
	// it to leaf-to-root order per spec's branch layout.
	for l, r := 0, len(branch)-1; l < r; l, r = l+1, r-1 {
		branch[l], branch[r] = branch[r], branch[l]
	}

	return &Proof{
		Index:   i,
		Leaf:    cur.Hash(),
		Branch:  branch,
		Witness: tree.Hash(),
	}, nil
}

// VerifyProof folds branch upward from leaf using i's bit path (LSB-first,
// after the leading 1) and succeeds iff the fold reproduces root.
func VerifyProof(leaf [32]byte, branch [][32]byte, i GeneralizedIndex, root [32]byte) bool {
	if len(branch) != i.PathLength() {
		return false
	}
	acc := leaf
	depth := i.Depth()
	for k := 0; k < depth; k++ {
		// k here indexes from the leaf upward (LSB-first); the deepest
		// split corresponds to branch[0].
		bitFromLeaf := i.Bit(depth - 1 - k)
		if bitFromLeaf {
			acc = merkle.Sha256(branch[k][:], acc[:])
		} else {
			acc = merkle.Sha256(acc[:], branch[k][:])
		}
	}
	return acc == root
}
