package kmerhash

import (
	"fmt"
	"slices"

	kmererrors "github.com/tamirms/kmerhash/errors"
	"github.com/tamirms/kmerhash/nucleotide"
)

// SketchMode selects which extreme of the hash values a sketch retains.
type SketchMode uint8

const (
	// MinHash retains the smallest distinct hash values.
	MinHash SketchMode = 0

	// MaxHash retains the largest distinct hash values.
	MaxHash SketchMode = 1
)

// String returns the mode name.
func (m SketchMode) String() string {
	switch m {
	case MinHash:
		return "minhash"
	case MaxHash:
		return "maxhash"
	default:
		return "unknown"
	}
}

// Sketch is a bottom-k (or top-k) sketch of the k-mers of one or more
// sequences: it retains at most MaxSize distinct k-mer hashes.
//
// A Sketch is NOT safe for concurrent use. SketchParallel builds one sketch
// per worker and merges them with Update.
type Sketch struct {
	k       int
	maxSize int
	cfg     sketchConfig
	hasher  *Hasher

	heap     *hashHeap
	members  map[uint64]struct{}
	counts   map[uint64]uint32 // nil unless WithCounts
	nvisited uint64

	// Scratch reused across Add calls
	buf    []uint64
	masked []byte
	rc     []byte
}

// NewSketch creates an empty sketch of k-mers of size k retaining at most
// maxSize hashes.
func NewSketch(k, maxSize int, opts ...SketchOption) (*Sketch, error) {
	cfg := defaultSketchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k %d is not positive", kmererrors.ErrInvalidWidth, k)
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", kmererrors.ErrInvalidSketchSize, maxSize)
	}
	if cfg.mode > MaxHash {
		return nil, fmt.Errorf("%w: %d", kmererrors.ErrInvalidMode, cfg.mode)
	}
	hasher, err := NewHasher(WithFamily(cfg.family), WithSeed(cfg.effectiveSeed()))
	if err != nil {
		return nil, err
	}

	s := &Sketch{
		k:       k,
		maxSize: maxSize,
		cfg:     *cfg,
		hasher:  hasher,
		heap:    newHashHeap(min(maxSize, 1<<16), cfg.mode == MaxHash),
		members: make(map[uint64]struct{}),
		buf:     make([]uint64, cfg.bufferSize),
	}
	s.cfg.seed = hasher.Seed()
	s.cfg.seedSet = true
	if cfg.counts {
		s.counts = make(map[uint64]uint32)
	}
	return s, nil
}

// K returns the k-mer size.
func (s *Sketch) K() int { return s.k }

// MaxSize returns the maximum number of retained hashes.
func (s *Sketch) MaxSize() int { return s.maxSize }

// Mode returns the sketch mode.
func (s *Sketch) Mode() SketchMode { return s.cfg.mode }

// Family returns the hash family.
func (s *Sketch) Family() HashFamily { return s.cfg.family }

// Seed returns the hash seed.
func (s *Sketch) Seed() uint32 { return s.cfg.seed }

// Canonical reports whether k-mers are canonicalized against their reverse
// complement.
func (s *Sketch) Canonical() bool { return s.cfg.canonical }

// HasCounts reports whether the sketch tracks per-hash counts.
func (s *Sketch) HasCounts() bool { return s.counts != nil }

// Len returns the number of retained hashes.
func (s *Sketch) Len() int { return s.heap.len() }

// NVisited returns the number of k-mers hashed into the sketch.
func (s *Sketch) NVisited() uint64 { return s.nvisited }

// Contains reports whether h is retained.
func (s *Sketch) Contains(h uint64) bool {
	_, ok := s.members[h]
	return ok
}

// Count returns how many times h was seen while retained.
// Returns false when h is not retained or counts are not tracked.
func (s *Sketch) Count(h uint64) (uint32, bool) {
	if s.counts == nil {
		return 0, false
	}
	c, ok := s.counts[h]
	return c, ok
}

// Values returns the retained hashes in ascending order.
func (s *Sketch) Values() []uint64 {
	out := slices.Clone(s.heap.values)
	slices.Sort(out)
	return out
}

// Add hashes every k-mer of seq into the sketch. Sequences shorter than k
// contribute nothing.
//
// The sequence is processed in segments sized to the sketch buffer; each
// sliding call fills the buffer and reports how many windows it hashed.
func (s *Sketch) Add(seq []byte) error {
	n := len(seq)
	if n < s.k {
		return nil
	}

	fwd := seq
	var rc []byte
	if s.cfg.canonical {
		s.masked = nucleotide.MaskACGT(s.masked, seq)
		s.rc = nucleotide.ReverseComplement(s.rc, s.masked)
		fwd, rc = s.masked, s.rc
	}

	for off := 0; off+s.k <= n; {
		end := min(n, off+len(s.buf)+s.k-1)
		var (
			written int
			err     error
		)
		if rc != nil {
			// The reverse complement of fwd[off:end] is rc[n-end:n-off].
			written, err = s.hasher.SlidingCanonical(fwd[off:end], rc[n-end:n-off], s.k, s.buf)
		} else {
			written, err = s.hasher.Sliding(fwd[off:end], s.k, s.buf)
		}
		if err != nil {
			return fmt.Errorf("hash segment at offset %d: %w", off, err)
		}
		for _, h := range s.buf[:written] {
			s.offer(h, 1)
		}
		off += written
	}

	s.nvisited += uint64(n - s.k + 1)
	return nil
}

// AddHashes offers precomputed hash values to the sketch. NVisited is not
// changed.
func (s *Sketch) AddHashes(values ...uint64) {
	for _, h := range values {
		s.offer(h, 1)
	}
}

// offer inserts h if it is already retained, if there is room, or if it is
// better than the current top (which is then evicted).
func (s *Sketch) offer(h uint64, count uint32) {
	if _, ok := s.members[h]; ok {
		if s.counts != nil {
			s.counts[h] += count
		}
		return
	}
	if s.heap.len() < s.maxSize {
		s.heap.push(h)
	} else {
		if !s.heap.better(h, s.heap.top()) {
			return
		}
		evicted := s.heap.replaceTop(h)
		delete(s.members, evicted)
		if s.counts != nil {
			delete(s.counts, evicted)
		}
	}
	s.members[h] = struct{}{}
	if s.counts != nil {
		s.counts[h] = count
	}
}

// compatible returns ErrSketchMismatch unless both sketches hash k-mers the
// same way.
func (s *Sketch) compatible(other *Sketch) error {
	switch {
	case s.k != other.k:
		return fmt.Errorf("%w: k %d vs %d", kmererrors.ErrSketchMismatch, s.k, other.k)
	case s.cfg.mode != other.cfg.mode:
		return fmt.Errorf("%w: mode %s vs %s", kmererrors.ErrSketchMismatch, s.cfg.mode, other.cfg.mode)
	case s.cfg.family != other.cfg.family:
		return fmt.Errorf("%w: family %s vs %s", kmererrors.ErrSketchMismatch, s.cfg.family, other.cfg.family)
	case s.cfg.seed != other.cfg.seed:
		return fmt.Errorf("%w: seed %d vs %d", kmererrors.ErrSketchMismatch, s.cfg.seed, other.cfg.seed)
	case s.cfg.canonical != other.cfg.canonical:
		return fmt.Errorf("%w: canonical %t vs %t", kmererrors.ErrSketchMismatch, s.cfg.canonical, other.cfg.canonical)
	}
	return nil
}

// Update merges other into s. The result is the sketch that would have been
// obtained by adding both inputs to s; counts add up and NVisited sums.
// Both sketches must agree on tracking counts.
func (s *Sketch) Update(other *Sketch) error {
	if err := s.compatible(other); err != nil {
		return err
	}
	if s.HasCounts() != other.HasCounts() {
		return fmt.Errorf("%w: counts %t vs %t", kmererrors.ErrSketchMismatch, s.HasCounts(), other.HasCounts())
	}
	for _, h := range other.heap.values {
		count := uint32(1)
		if other.counts != nil {
			count = other.counts[h]
		}
		s.offer(h, count)
	}
	s.nvisited += other.nvisited
	return nil
}

// Jaccard estimates the Jaccard similarity of the k-mer sets behind s and
// other: among the min(MaxSize) extreme hashes of the union, the fraction
// retained by both. Two empty sketches have similarity 0.
func (s *Sketch) Jaccard(other *Sketch) (float64, error) {
	if err := s.compatible(other); err != nil {
		return 0, err
	}
	union := make([]uint64, 0, s.Len()+other.Len())
	union = append(union, s.heap.values...)
	for _, h := range other.heap.values {
		if !s.Contains(h) {
			union = append(union, h)
		}
	}
	if len(union) == 0 {
		return 0, nil
	}
	slices.Sort(union)
	if s.cfg.mode == MaxHash {
		slices.Reverse(union)
	}
	union = union[:min(len(union), s.maxSize, other.maxSize)]

	shared := 0
	for _, h := range union {
		if s.Contains(h) && other.Contains(h) {
			shared++
		}
	}
	return float64(shared) / float64(len(union)), nil
}

// restoreSketch rebuilds a sketch from persisted values.
func restoreSketch(k, maxSize int, values []uint64, counts []uint32, nvisited uint64, opts ...SketchOption) (*Sketch, error) {
	s, err := NewSketch(k, maxSize, opts...)
	if err != nil {
		return nil, err
	}
	for i, h := range values {
		c := uint32(1)
		if counts != nil {
			c = counts[i]
		}
		s.offer(h, c)
	}
	s.nvisited = nvisited
	return s, nil
}
