package kmerhash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// windowHasher hashes windows with a seed bound at construction.
//
// A windowHasher is NOT safe for concurrent use; the xxHash64 implementation
// reuses a digest between windows. Each sliding call creates its own.
type windowHasher interface {
	hashWindow(window []byte) uint64
}

// Murmur3Hash applies MurmurHash3 x64_128 to window and returns the low
// 64 bits (h1) of the 128-bit digest.
func Murmur3Hash(window []byte, seed uint32) uint64 {
	h1, _ := murmur3.Sum128WithSeed(window, seed)
	return h1
}

// XXHash64Hash applies XXH64 to window with the given seed.
func XXHash64Hash(window []byte, seed uint32) uint64 {
	if seed == 0 {
		return xxhash.Sum64(window)
	}
	d := xxhash.NewWithSeed(uint64(seed))
	_, _ = d.Write(window) // Digest.Write never fails
	return d.Sum64()
}

// XXH3Hash applies XXH3-64 to window with the given seed.
func XXH3Hash(window []byte, seed uint32) uint64 {
	return xxh3.HashSeed(window, uint64(seed))
}

type murmur3Hasher struct {
	seed uint32
}

func (h murmur3Hasher) hashWindow(window []byte) uint64 {
	h1, _ := murmur3.Sum128WithSeed(window, h.seed)
	return h1
}

// xxhash64Hasher keeps one digest for the whole call so that seeded hashing
// does not allocate per window.
type xxhash64Hasher struct {
	seed   uint64
	digest *xxhash.Digest
}

func newXXHash64Hasher(seed uint32) *xxhash64Hasher {
	h := &xxhash64Hasher{seed: uint64(seed)}
	if seed != 0 {
		h.digest = xxhash.NewWithSeed(h.seed)
	}
	return h
}

func (h *xxhash64Hasher) hashWindow(window []byte) uint64 {
	if h.digest == nil {
		return xxhash.Sum64(window)
	}
	h.digest.ResetWithSeed(h.seed)
	_, _ = h.digest.Write(window)
	return h.digest.Sum64()
}

type xxh3Hasher struct {
	seed uint64
}

func (h xxh3Hasher) hashWindow(window []byte) uint64 {
	return xxh3.HashSeed(window, h.seed)
}

// funcHasher adapts a user-supplied HashFunc.
type funcHasher struct {
	fn   HashFunc
	seed uint32
}

func (h funcHasher) hashWindow(window []byte) uint64 {
	return h.fn(window, h.seed)
}
