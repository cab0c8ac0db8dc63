package proof

import (
	"sort"

	"github.com/gfx-labs/ssz/merkle"
	"github.com/gfx-labs/ssz/sszerrors"
)

// BranchIndices returns the siblings along i's path up to (but excluding)
// the final ancestor, nearest-first: sibling(i), sibling(parent(i)), ...
func BranchIndices(i GeneralizedIndex) []GeneralizedIndex {
	focus := i.Sibling()
	result := []GeneralizedIndex{focus}
	for focus > 1 {
		focus = focus.Parent().Sibling()
		result = append(result, focus)
	}
	return result[:len(result)-1]
}

// PathIndices returns i's ancestors including i itself, excluding the root.
func PathIndices(i GeneralizedIndex) []GeneralizedIndex {
	focus := i
	result := []GeneralizedIndex{focus}
	for focus > 1 {
		focus = focus.Parent()
		result = append(result, focus)
	}
	return result[:len(result)-1]
}

// HelperIndices returns (⋃ BranchIndices) \ (⋃ PathIndices) over indices,
// sorted descending, the minimal set of sibling nodes a verifier needs to
// reconstruct the root from the given leaves.
func HelperIndices(indices []GeneralizedIndex) []GeneralizedIndex {
	allHelper := make(map[GeneralizedIndex]struct{})
	allPath := make(map[GeneralizedIndex]struct{})

	for _, idx := range indices {
		for _, b := range BranchIndices(idx) {
			allHelper[b] = struct{}{}
		}
		for _, p := range PathIndices(idx) {
			allPath[p] = struct{}{}
		}
	}

	var out []GeneralizedIndex
	for h := range allHelper {
		if _, onPath := allPath[h]; !onPath {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] > out[b] })
	return out
}

// Multiproof is a helper-index proof for a set of generalized indices: the
// leaves at Indices plus the shared Hashes at HelperIndices(Indices).
type Multiproof struct {
	Indices []GeneralizedIndex
	Leaves  [][32]byte
	Hashes  [][32]byte
	Witness [32]byte
}

// BuildMultiproof builds a Multiproof for indices against tree.
func BuildMultiproof(tree *Node, indices []GeneralizedIndex) (*Multiproof, error) {
	leaves := make([][32]byte, len(indices))
	for i, idx := range indices {
		n, err := tree.Get(idx)
		if err != nil {
			return nil, err
		}
		leaves[i] = n.Hash()
	}

	helpers := HelperIndices(indices)
	hashes := make([][32]byte, len(helpers))
	for i, idx := range helpers {
		n, err := tree.Get(idx)
		if err != nil {
			return nil, err
		}
		hashes[i] = n.Hash()
	}

	return &Multiproof{
		Indices: indices,
		Leaves:  leaves,
		Hashes:  hashes,
		Witness: tree.Hash(),
	}, nil
}

// CalculateMultiMerkleRoot reconstructs the root from leaves/proof/indices
// by repeatedly hashing any pair whose parent is still missing, following
// ssz-rs's calculate_multi_merkle_root.
func CalculateMultiMerkleRoot(leaves [][32]byte, hashes [][32]byte, indices []GeneralizedIndex) ([32]byte, error) {
	if len(leaves) != len(indices) {
		return [32]byte{}, sszerrors.NewInvalidProof("leaves and indices length mismatch")
	}
	helperIndices := HelperIndices(indices)
	if len(hashes) != len(helperIndices) {
		return [32]byte{}, sszerrors.NewInvalidProof("proof length does not match helper index count")
	}

	objects := make(map[GeneralizedIndex][32]byte, len(indices)+len(helperIndices))
	for i, idx := range indices {
		objects[idx] = leaves[i]
	}
	for i, idx := range helperIndices {
		objects[idx] = hashes[i]
	}

	keys := make([]GeneralizedIndex, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] > keys[b] })

	for pos := 0; pos < len(keys); pos++ {
		key := keys[pos]
		_, keyPresent := objects[key]
		_, siblingPresent := objects[key.Sibling()]
		parentIndex := key.Parent()
		_, parentPresent := objects[parentIndex]

		if keyPresent && siblingPresent && !parentPresent {
			rightIndex := GeneralizedIndex(uint64(key) | 1)
			leftIndex := rightIndex.Sibling()
			left := objects[leftIndex]
			right := objects[rightIndex]
			objects[parentIndex] = merkle.Sha256(left[:], right[:])
			keys = append(keys, parentIndex)
		}
	}

	root, ok := objects[Root]
	if !ok {
		return [32]byte{}, sszerrors.NewInvalidProof("could not reconstruct root from proof")
	}
	return root, nil
}

// VerifyMultiproof reports whether proof reconstructs root.
func VerifyMultiproof(leaves [][32]byte, hashes [][32]byte, indices []GeneralizedIndex, root [32]byte) bool {
	got, err := CalculateMultiMerkleRoot(leaves, hashes, indices)
	if err != nil {
		return false
	}
	return got == root
}
