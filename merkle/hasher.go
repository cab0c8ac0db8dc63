package merkle

import (
	stdsha256 "crypto/sha256"

	"github.com/minio/sha256-simd"
	"github.com/prysmaticlabs/gohashtree"
)

// Hasher is the hash_chunks(left, right) -> [32]byte collaborator the core
// consumes (spec §6). Implementations are swappable hashing back ends; the
// codec/merkleizer/proof engine never depend on a concrete one.
type Hasher interface {
	// HashChunks hashes one pair of 32-byte chunks.
	HashChunks(left, right [32]byte) [32]byte
	// HashLayer hashes a contiguous layer of 32-byte chunks pairwise,
	// writing len(layer)/64 chunks of output into out. len(layer) must be
	// a positive even multiple of 32. Implementations may batch this.
	HashLayer(out, layer []byte) error
}

// simdHasher is backed by github.com/minio/sha256-simd, an
// assembly-accelerated SHA-256 implementation, for single-pair hash_chunks
// calls such as mix-in-length and proof verification.
type simdHasher struct{}

func (simdHasher) HashChunks(left, right [32]byte) (out [32]byte) {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	h.Sum(out[:0])
	return out
}

func (simdHasher) HashLayer(out, layer []byte) error {
	for i := 0; i+64 <= len(layer); i += 64 {
		h := sha256.New()
		h.Write(layer[i : i+64])
		copy(out[i/2:i/2+32], h.Sum(nil))
	}
	return nil
}

// batchedHasher is backed by github.com/prysmaticlabs/gohashtree, which
// hashes an entire layer of chunk pairs in one batched call. spec.md §1
// names "hashtree" batched hashing as an optional, out-of-core collaborator;
// it is wired here as one concrete Hasher implementation among several, for
// the bulk layer-hashing path.
type batchedHasher struct{}

func (batchedHasher) HashChunks(left, right [32]byte) [32]byte {
	var out [32]byte
	var in [64]byte
	copy(in[:32], left[:])
	copy(in[32:], right[:])
	if err := gohashtree.HashByteSlice(out[:], in[:]); err != nil {
		panic(err)
	}
	return out
}

func (batchedHasher) HashLayer(out, layer []byte) error {
	return gohashtree.HashByteSlice(out, layer)
}

// stdHasher is backed by plain crypto/sha256.
type stdHasher struct{}

func (stdHasher) HashChunks(left, right [32]byte) (out [32]byte) {
	h := stdsha256.New()
	h.Write(left[:])
	h.Write(right[:])
	h.Sum(out[:0])
	return out
}

func (stdHasher) HashLayer(out, layer []byte) error {
	for i := 0; i+64 <= len(layer); i += 64 {
		h := stdsha256.New()
		h.Write(layer[i : i+64])
		copy(out[i/2:i/2+32], h.Sum(nil))
	}
	return nil
}

// DefaultHasher returns the batched gohashtree-backed Hasher, used for bulk
// layer hashing during Merkleization.
func DefaultHasher() Hasher { return batchedHasher{} }

// SimdHasher returns the sha256-simd-backed Hasher.
func SimdHasher() Hasher { return simdHasher{} }

// StdHasher returns the plain crypto/sha256-backed Hasher.
func StdHasher() Hasher { return stdHasher{} }

var defaultHasher Hasher = DefaultHasher()

// SetDefaultHasher swaps the package-level default Hasher used by the
// merkleization helpers below. Not safe for concurrent use with in-flight
// hashing calls.
func SetDefaultHasher(h Hasher) { defaultHasher = h }

// Sha256 hashes data followed by any extras using the SIMD back end; it is
// the general-purpose helper used outside of layer hashing (e.g. mix-in-length).
func Sha256(data []byte, extras ...[]byte) (b [32]byte) {
	h := sha256.New()
	h.Write(data)
	for _, extra := range extras {
		h.Write(extra)
	}
	h.Sum(b[:0])
	return b
}
