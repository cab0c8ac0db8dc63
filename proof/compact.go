package proof

import (
	"math/bits"
	"sort"
	"strconv"

	"github.com/gfx-labs/ssz/merkle"
	"github.com/gfx-labs/ssz/sszerrors"
)

// computeProofIndices reduces a requested index set to the minimal set of
// indices a compact descriptor needs to name: the union of every index's
// helper indices, minus the union of their path indices (which the verifier
// derives implicitly), plus the indices themselves — then sorted by the order
// their binary representations sort as strings (plain lexicographic order on
// the bit strings, so "1000" sorts before "11").
func computeProofIndices(indices []GeneralizedIndex) []GeneralizedIndex {
	set := make(map[GeneralizedIndex]struct{})
	for _, idx := range indices {
		for _, h := range BranchIndices(idx) {
			set[h] = struct{}{}
		}
	}
	for _, idx := range indices {
		for _, p := range PathIndices(idx) {
			delete(set, p)
		}
	}
	for _, idx := range indices {
		set[idx] = struct{}{}
	}

	out := make([]GeneralizedIndex, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Slice(out, func(a, b int) bool {
		return strconv.FormatUint(uint64(out[a]), 2) < strconv.FormatUint(uint64(out[b]), 2)
	})
	return out
}

// CompactDescriptor encodes indices as a bit-string per spec §4.5: for each
// proof index i in computeProofIndices order, trailing_zeros_in_binary(i)
// zero bits followed by a single 1 bit, the whole string right-padded with
// zero bits to a byte boundary.
func CompactDescriptor(indices []GeneralizedIndex) []byte {
	proofIndices := computeProofIndices(indices)

	var bitBuf []bool
	for _, idx := range proofIndices {
		trailingZeros := bits.TrailingZeros64(uint64(idx))
		for i := 0; i < trailingZeros; i++ {
			bitBuf = append(bitBuf, false)
		}
		bitBuf = append(bitBuf, true)
	}

	for len(bitBuf)%8 != 0 {
		bitBuf = append(bitBuf, false)
	}

	out := make([]byte, len(bitBuf)/8)
	for i, b := range bitBuf {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// decodeDescriptorBits converts descriptor back into its bit sequence,
// trimmed to end at the last set bit, validating the padding-after-last-1
// rule and the running 0s-vs-1s balance per ssz-rs's
// compute_bits_from_proof_descriptor.
func decodeDescriptorBits(descriptor []byte) ([]bool, error) {
	allBits := make([]bool, 0, len(descriptor)*8)
	for _, b := range descriptor {
		for i := 7; i >= 0; i-- {
			allBits = append(allBits, (b>>uint(i))&1 == 1)
		}
	}

	lastOne := -1
	for i := len(allBits) - 1; i >= 0; i-- {
		if allBits[i] {
			lastOne = i
			break
		}
	}
	if lastOne < 0 {
		return nil, sszerrors.NewInvalidDescriptor("descriptor does not contain any 1 bits")
	}
	if len(allBits)-lastOne > 8 {
		return nil, sszerrors.NewInvalidDescriptor("padding after the last 1 bit exceeds 8 bits")
	}

	result := make([]bool, 0, lastOne+1)
	balance := 0
	for i := 0; i <= lastOne; i++ {
		bit := allBits[i]
		result = append(result, bit)
		if bit {
			balance--
		} else {
			balance++
		}
		if (balance < 0) != (i == lastOne) {
			return nil, sszerrors.NewInvalidDescriptor("mismatched count of 0s vs 1s at the last index")
		}
	}
	return result, nil
}

// descriptorCursor walks bits/nodes while recursively reconstructing the
// compact-proof tree: a 1 consumes one node as a subtree root; a 0 recurses
// into a left then right child and hashes the pair.
type descriptorCursor struct {
	bits   []bool
	nodes  [][32]byte
	bitAt  int
	nodeAt int
}

func (c *descriptorCursor) next() ([32]byte, error) {
	if c.bitAt >= len(c.bits) {
		return [32]byte{}, sszerrors.NewInvalidProof("descriptor exhausted before tree was complete")
	}
	bit := c.bits[c.bitAt]
	c.bitAt++
	if bit {
		if c.nodeAt >= len(c.nodes) {
			return [32]byte{}, sszerrors.NewInvalidProof("not enough nodes for descriptor")
		}
		node := c.nodes[c.nodeAt]
		c.nodeAt++
		return node, nil
	}
	left, err := c.next()
	if err != nil {
		return [32]byte{}, err
	}
	right, err := c.next()
	if err != nil {
		return [32]byte{}, err
	}
	return merkle.Sha256(left[:], right[:]), nil
}

// VerifyCompactMultiproof decodes descriptor and nodes into the witness
// root and reports whether it equals root, failing with an error on any
// malformed descriptor or leftover input.
func VerifyCompactMultiproof(nodes [][32]byte, descriptor []byte, root [32]byte) error {
	bits, err := decodeDescriptorBits(descriptor)
	if err != nil {
		return err
	}
	cur := &descriptorCursor{bits: bits, nodes: nodes}
	got, err := cur.next()
	if err != nil {
		return err
	}
	if cur.bitAt != len(cur.bits) || cur.nodeAt != len(cur.nodes) {
		return sszerrors.NewInvalidProof("descriptor or node list had leftover data")
	}
	if got != root {
		return sszerrors.NewInvalidProof("reconstructed root does not match witness")
	}
	return nil
}
