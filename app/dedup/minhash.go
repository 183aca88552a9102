package dedup

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/bits"
	"math/rand"
)

const (
	DefaultNumPerm = 128

	// mersennePrime is the field modulus for the permutation hashes.
	// Every hashed value is strictly below it, which leaves the prime
	// itself free to act as the sentinel slot value for empty input.
	mersennePrime = uint64(1<<61 - 1)

	emptySentinel = mersennePrime
)

// DeduplicationError reports a signature encoding or decoding failure.
type DeduplicationError struct {
	Reason string
}

func (e *DeduplicationError) Error() string {
	return "deduplication error: " + e.Reason
}

// Signature is a fixed-length MinHash signature. Slot i holds the minimum
// of permutation i over all shingles of the source text.
type Signature []uint64

// IsEmpty reports whether the signature is the sentinel produced for an
// empty shingle set.
func (s Signature) IsEmpty() bool {
	for _, v := range s {
		if v != emptySentinel {
			return false
		}
	}
	return true
}

// Serialize encodes the signature as fixed-width big-endian uint64 values
// so it round-trips byte-exact through storage.
func (s Signature) Serialize() []byte {
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

// DeserializeSignature decodes a serialized signature, validating that the
// decoded length matches numPerm. A mismatch fails loudly rather than
// silently truncating or padding.
func DeserializeSignature(data []byte, numPerm int) (Signature, error) {
	if len(data) != numPerm*8 {
		return nil, &DeduplicationError{
			Reason: fmt.Sprintf("signature length mismatch: got %d bytes, want %d", len(data), numPerm*8),
		}
	}

	sig := make(Signature, numPerm)
	for i := range sig {
		sig[i] = binary.BigEndian.Uint64(data[i*8:])
	}
	return sig, nil
}

// MinHasher computes MinHash signatures over k-shingle sets. Permutation
// coefficients are generated once at construction from the given seed, so
// signatures from the same instance (or two instances with the same seed)
// are comparable.
type MinHasher struct {
	numPerm     int
	shingleSize int
	coeffA      []uint64
	coeffB      []uint64
}

func NewMinHasher(numPerm int, seed int64) *MinHasher {
	if numPerm < 1 {
		numPerm = DefaultNumPerm
	}

	rng := rand.New(rand.NewSource(seed))
	coeffA := make([]uint64, numPerm)
	coeffB := make([]uint64, numPerm)
	for i := 0; i < numPerm; i++ {
		coeffA[i] = uint64(rng.Int63n(int64(mersennePrime-1))) + 1
		coeffB[i] = uint64(rng.Int63n(int64(mersennePrime)))
	}

	return &MinHasher{
		numPerm:     numPerm,
		shingleSize: DefaultShingleSize,
		coeffA:      coeffA,
		coeffB:      coeffB,
	}
}

func (m *MinHasher) NumPerm() int {
	return m.numPerm
}

// Signature cleans and shingles the text, then computes the per-permutation
// minimum across all shingles. An empty shingle set yields the sentinel
// signature, which never compares similar to anything.
func (m *MinHasher) Signature(text string) Signature {
	shingles := Shingles(CleanText(text), m.shingleSize)

	sig := make(Signature, m.numPerm)
	for i := range sig {
		sig[i] = emptySentinel
	}

	if len(shingles) == 0 {
		return sig
	}

	for shingle := range shingles {
		h := hashShingle(shingle)
		for i := 0; i < m.numPerm; i++ {
			v := addMod(mulMod(m.coeffA[i], h), m.coeffB[i])
			if v < sig[i] {
				sig[i] = v
			}
		}
	}

	return sig
}

// Similarity estimates the Jaccard similarity of the underlying shingle
// sets as the fraction of permutation slots where the signatures agree.
// Sentinel signatures and length mismatches compare as 0.
func (m *MinHasher) Similarity(a, b Signature) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}

	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

func hashShingle(shingle string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(shingle))
	return h.Sum64() % mersennePrime
}

// mulMod computes a*b mod 2^61-1 without overflow by folding the 128-bit
// product into 61-bit chunks (2^61 is congruent to 1 modulo the prime).
func mulMod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)

	sum := lo & mersennePrime
	sum += ((lo >> 61) | (hi << 3)) & mersennePrime
	sum += hi >> 58

	for sum >= mersennePrime {
		sum -= mersennePrime
	}
	return sum
}

func addMod(a, b uint64) uint64 {
	sum := a + b
	if sum >= mersennePrime {
		sum -= mersennePrime
	}
	return sum
}
