package kmerhash

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a PCG generator seeded from the test name, so every
// test sees its own reproducible stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomDNA returns n pseudo-random bases from ACGT.
func randomDNA(rng *rand.Rand, n int) []byte {
	const bases = "ACGT"
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = bases[rng.IntN(4)]
	}
	return seq
}

// allFamilies lists every built-in hash family.
var allFamilies = []HashFamily{FamilyMurmur3, FamilyXXHash64, FamilyXXH3}

// naiveSliding hashes every window with fn, without truncation.
func naiveSliding(input []byte, width int, fn HashFunc, seed uint32) []uint64 {
	var out []uint64
	for i := 0; i+width <= len(input); i++ {
		out = append(out, fn(input[i:i+width], seed))
	}
	return out
}

// fillSentinel sets every slot of out to v.
func fillSentinel(out []uint64, v uint64) {
	for i := range out {
		out[i] = v
	}
}

const sentinel = 0xDEADBEEFDEADBEEF
