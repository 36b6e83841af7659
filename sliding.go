package kmerhash

import (
	"bytes"
	"fmt"

	kmererrors "github.com/tamirms/kmerhash/errors"
)

// Hasher computes one hash per fixed-width window of a sequence.
//
// A Hasher holds only its validated configuration, so it is safe for
// concurrent use as long as every call gets its own output slice and no
// goroutine mutates the input slices during the call.
type Hasher struct {
	family HashFamily
	seed   uint32
	fn     HashFunc
}

// NewHasher validates opts and returns a reusable Hasher.
func NewHasher(opts ...HashOption) (*Hasher, error) {
	cfg := defaultHashConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fn == nil && !cfg.family.valid() {
		return nil, fmt.Errorf("%w: %d", kmererrors.ErrUnknownFamily, uint16(cfg.family))
	}
	return &Hasher{
		family: cfg.family,
		seed:   cfg.effectiveSeed(),
		fn:     cfg.fn,
	}, nil
}

// Family returns the configured hash family.
func (h *Hasher) Family() HashFamily { return h.family }

// Seed returns the seed passed to the hash primitive.
func (h *Hasher) Seed() uint32 { return h.seed }

func (h *Hasher) newWindowHasher() windowHasher {
	if h.fn != nil {
		return funcHasher{fn: h.fn, seed: h.seed}
	}
	switch h.family {
	case FamilyXXHash64:
		return newXXHash64Hasher(h.seed)
	case FamilyXXH3:
		return xxh3Hasher{seed: uint64(h.seed)}
	default:
		return murmur3Hasher{seed: h.seed}
	}
}

// windowCount validates width against length and returns
// maxi = min(capacity, length-width+1).
func windowCount(length, width, capacity int) (int, error) {
	if width <= 0 {
		return 0, fmt.Errorf("%w: width %d is not positive", kmererrors.ErrInvalidWidth, width)
	}
	if width > length {
		return 0, fmt.Errorf("%w: width %d, input length %d", kmererrors.ErrInvalidWidth, width, length)
	}
	return min(capacity, length-width+1), nil
}

// Sliding hashes every width-byte window of input into out and returns the
// number of windows written.
//
// out[i] receives the hash of input[i:i+width] for i in [0, maxi) where
// maxi = min(len(out), len(input)-width+1). When out is shorter than the
// number of windows the remaining windows are not computed; slots past maxi
// are left untouched.
//
// Returns ErrInvalidWidth when width is not positive or exceeds len(input).
// Nothing is written on error.
func (h *Hasher) Sliding(input []byte, width int, out []uint64) (int, error) {
	maxi, err := windowCount(len(input), width, len(out))
	if err != nil {
		return 0, err
	}
	wh := h.newWindowHasher()
	for i := range maxi {
		out[i] = wh.hashWindow(input[i : i+width])
	}
	return maxi, nil
}

// SlidingCanonical is like Sliding but hashes, for each offset i, the
// lexicographically smaller of the forward window input[i:i+width] and its
// reverse-complement mirror inputRC[j:j+width] with j = len(input)-width-i.
//
// inputRC must be the reverse complement of input under the caller's
// alphabet; only its length is checked. The result is strand symmetric:
// swapping input and inputRC yields the same hashes in mirrored order.
// Ties hash the forward window.
//
// Returns ErrLengthMismatch when len(input) != len(inputRC), then
// ErrInvalidWidth as for Sliding. Nothing is written on error.
func (h *Hasher) SlidingCanonical(input, inputRC []byte, width int, out []uint64) (int, error) {
	if len(input) != len(inputRC) {
		return 0, fmt.Errorf("%w: input length %d, reverse-complement length %d",
			kmererrors.ErrLengthMismatch, len(input), len(inputRC))
	}
	maxi, err := windowCount(len(input), width, len(out))
	if err != nil {
		return 0, err
	}
	wh := h.newWindowHasher()
	last := len(input) - width
	for i := range maxi {
		fwd := input[i : i+width]
		j := last - i
		rc := inputRC[j : j+width]
		// Bounded comparison over exactly width bytes; embedded zero bytes
		// and the bytes past the window do not take part.
		if bytes.Compare(rc, fwd) < 0 {
			out[i] = wh.hashWindow(rc)
		} else {
			out[i] = wh.hashWindow(fwd)
		}
	}
	return maxi, nil
}

// HashSliding hashes every width-byte window of input into out.
// See Hasher.Sliding for the contract. Default family is FamilyMurmur3 with
// seed DefaultMurmur3Seed.
func HashSliding(input []byte, width int, out []uint64, opts ...HashOption) (int, error) {
	h, err := NewHasher(opts...)
	if err != nil {
		return 0, err
	}
	return h.Sliding(input, width, out)
}

// HashSlidingCanonical hashes the canonical form of every width-byte window
// of input into out. See Hasher.SlidingCanonical for the contract.
func HashSlidingCanonical(input, inputRC []byte, width int, out []uint64, opts ...HashOption) (int, error) {
	h, err := NewHasher(opts...)
	if err != nil {
		return 0, err
	}
	return h.SlidingCanonical(input, inputRC, width, out)
}
