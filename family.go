package kmerhash

import (
	"fmt"

	kmererrors "github.com/tamirms/kmerhash/errors"
)

// HashFamily identifies the hash primitive applied to each window.
// This is stored in signature file headers.
type HashFamily uint16

const (
	// FamilyMurmur3 uses MurmurHash3 x64_128 and keeps the low 64 bits.
	FamilyMurmur3 HashFamily = 0

	// FamilyXXHash64 uses seeded XXH64.
	FamilyXXHash64 HashFamily = 1

	// FamilyXXH3 uses seeded XXH3-64.
	FamilyXXH3 HashFamily = 2
)

// Default seeds per family. These match the seeds used by Mash/sourmash
// (MurmurHash3) and the xxHash reference (zero).
const (
	DefaultMurmur3Seed uint32 = 42
	DefaultXXHashSeed  uint32 = 0
	DefaultXXH3Seed    uint32 = 0
)

// String returns the family name.
func (f HashFamily) String() string {
	switch f {
	case FamilyMurmur3:
		return "murmur3"
	case FamilyXXHash64:
		return "xxhash64"
	case FamilyXXH3:
		return "xxh3"
	default:
		return "unknown"
	}
}

// DefaultSeed returns the seed used when no explicit seed is configured.
func (f HashFamily) DefaultSeed() uint32 {
	switch f {
	case FamilyXXHash64:
		return DefaultXXHashSeed
	case FamilyXXH3:
		return DefaultXXH3Seed
	default:
		return DefaultMurmur3Seed
	}
}

func (f HashFamily) valid() bool {
	return f <= FamilyXXH3
}

// ParseHashFamily returns the family with the given name.
func ParseHashFamily(name string) (HashFamily, error) {
	switch name {
	case "murmur3", "murmurhash3":
		return FamilyMurmur3, nil
	case "xxhash64", "xxhash":
		return FamilyXXHash64, nil
	case "xxh3":
		return FamilyXXH3, nil
	default:
		return 0, fmt.Errorf("%w: %q", kmererrors.ErrUnknownFamily, name)
	}
}

// HashFunc hashes a single window with a seed.
//
// Any HashFunc can drive the sliding hashers through WithHashFunc; the
// built-in families are also exposed as HashFuncs for callers that hash
// single k-mers (Murmur3Hash, XXHash64Hash, XXH3Hash).
type HashFunc func(window []byte, seed uint32) uint64

// HashFunc returns the family primitive as a HashFunc.
func (f HashFamily) HashFunc() (HashFunc, error) {
	switch f {
	case FamilyMurmur3:
		return Murmur3Hash, nil
	case FamilyXXHash64:
		return XXHash64Hash, nil
	case FamilyXXH3:
		return XXH3Hash, nil
	default:
		return nil, fmt.Errorf("%w: %d", kmererrors.ErrUnknownFamily, uint16(f))
	}
}
