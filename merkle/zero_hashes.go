package merkle

// MaxZeroHashDepth bounds the precomputed zero-subtree table. 64 covers any
// depth reachable by the taxonomy's largest representable bound (a List/
// Vector/BitList/BitVector limit fits in a uint64, so next_pow2(limit) never
// exceeds 2^64 and GetDepth of that never exceeds 64).
const MaxZeroHashDepth = 64

// ZeroHashes[i] is the root of a perfectly empty subtree of depth i:
// ZeroHashes[0] is the all-zero leaf, ZeroHashes[i] = hash_chunks(ZeroHashes[i-1], ZeroHashes[i-1]).
// It is the padding value used whenever a layer has to be extended to a
// power of two during Merkleization (spec §3's "virtual padding", never
// materialized as real chunks).
var ZeroHashes [MaxZeroHashDepth][32]byte

func init() {
	h := DefaultHasher()
	for i := 1; i < MaxZeroHashDepth; i++ {
		ZeroHashes[i] = h.HashChunks(ZeroHashes[i-1], ZeroHashes[i-1])
	}
}
