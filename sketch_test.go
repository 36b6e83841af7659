package kmerhash

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	kmererrors "github.com/tamirms/kmerhash/errors"
	"github.com/tamirms/kmerhash/nucleotide"
)

// bruteForceExtremes returns the maxSize smallest (MinHash) or largest
// (MaxHash) distinct hashes, ascending, plus the occurrence count of each.
func bruteForceExtremes(hashes []uint64, maxSize int, mode SketchMode) ([]uint64, map[uint64]uint32) {
	counts := make(map[uint64]uint32)
	for _, h := range hashes {
		counts[h]++
	}
	distinct := make([]uint64, 0, len(counts))
	for h := range counts {
		distinct = append(distinct, h)
	}
	slices.Sort(distinct)
	if len(distinct) > maxSize {
		if mode == MaxHash {
			distinct = distinct[len(distinct)-maxSize:]
		} else {
			distinct = distinct[:maxSize]
		}
	}
	return distinct, counts
}

func canonicalHashes(t *testing.T, seq []byte, k int, opts ...HashOption) []uint64 {
	t.Helper()
	rc := nucleotide.ReverseComplement(nil, seq)
	out := make([]uint64, len(seq))
	n, err := HashSlidingCanonical(seq, rc, k, out, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return out[:n]
}

func TestSketchMatchesBruteForce(t *testing.T) {
	rng := newTestRNG(t)
	const k = 21

	for _, length := range []int{50, 125, 250} {
		seq := randomDNA(rng, length)
		for _, fam := range allFamilies {
			fn, _ := fam.HashFunc()
			all := naiveSliding(seq, k, fn, fam.DefaultSeed())
			for _, mode := range []SketchMode{MinHash, MaxHash} {
				for _, maxSize := range []int{10, 200} {
					for _, bufSize := range []int{0, 7, 1} {
						sk, err := NewSketch(k, maxSize, WithMode(mode), WithSketchFamily(fam), WithBufferSize(bufSize))
						if err != nil {
							t.Fatal(err)
						}
						if err := sk.Add(seq); err != nil {
							t.Fatal(err)
						}
						want, _ := bruteForceExtremes(all, maxSize, mode)
						if got := sk.Values(); !slices.Equal(got, want) {
							t.Fatalf("len=%d %s %s maxSize=%d buf=%d: values differ\n got %v\nwant %v",
								length, fam, mode, maxSize, bufSize, got, want)
						}
						if sk.Len() != len(want) {
							t.Fatalf("Len() = %d, want %d", sk.Len(), len(want))
						}
						if sk.NVisited() != uint64(length-k+1) {
							t.Fatalf("NVisited() = %d, want %d", sk.NVisited(), length-k+1)
						}
					}
				}
			}
		}
	}
}

func TestSketchCounts(t *testing.T) {
	rng := newTestRNG(t)
	seq := randomDNA(rng, 50)
	const k, maxSize = 2, 10

	for _, mode := range []SketchMode{MinHash, MaxHash} {
		sk, err := NewSketch(k, maxSize, WithMode(mode), WithCounts(), WithBufferSize(4))
		if err != nil {
			t.Fatal(err)
		}
		if err := sk.Add(seq); err != nil {
			t.Fatal(err)
		}
		all := naiveSliding(seq, k, Murmur3Hash, DefaultMurmur3Seed)
		want, counts := bruteForceExtremes(all, maxSize, mode)
		if !slices.Equal(sk.Values(), want) {
			t.Fatalf("%s: values differ", mode)
		}
		for _, h := range want {
			got, ok := sk.Count(h)
			if !ok || got != counts[h] {
				t.Fatalf("%s: Count(%d) = %d,%t, want %d", mode, h, got, ok, counts[h])
			}
		}
	}

	plain, _ := NewSketch(k, maxSize)
	_ = plain.Add(seq)
	if _, ok := plain.Count(plain.Values()[0]); ok {
		t.Fatal("Count reported a value for a sketch without counts")
	}
}

func TestSketchCanonical(t *testing.T) {
	rng := newTestRNG(t)
	seq := randomDNA(rng, 300)
	const k = 15

	sk, err := NewSketch(k, 50, WithCanonical(), WithBufferSize(13))
	if err != nil {
		t.Fatal(err)
	}
	if err := sk.Add(seq); err != nil {
		t.Fatal(err)
	}
	want, _ := bruteForceExtremes(canonicalHashes(t, seq, k), 50, MinHash)
	if !slices.Equal(sk.Values(), want) {
		t.Fatal("canonical sketch differs from canonical sliding hashes")
	}

	// The reverse strand gives the same sketch.
	rcSketch, _ := NewSketch(k, 50, WithCanonical(), WithBufferSize(13))
	if err := rcSketch.Add(nucleotide.ReverseComplement(nil, seq)); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(sk.Values(), rcSketch.Values()) {
		t.Fatal("canonical sketch is not strand independent")
	}
}

// TestSketchCanonicalMasks verifies non-ACGT bytes are hashed as N.
func TestSketchCanonicalMasks(t *testing.T) {
	a, _ := NewSketch(4, 100, WithCanonical())
	b, _ := NewSketch(4, 100, WithCanonical())
	if err := a.Add([]byte("ACGTRYACGTTT")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add([]byte("ACGTNNACGTTT")); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Values(), b.Values()) {
		t.Fatal("masked and unmasked sequences sketch differently")
	}
}

func TestSketchShortSequence(t *testing.T) {
	sk, _ := NewSketch(21, 10)
	if err := sk.Add([]byte("ACGT")); err != nil {
		t.Fatal(err)
	}
	if sk.Len() != 0 || sk.NVisited() != 0 {
		t.Fatalf("Len=%d NVisited=%d, want 0 and 0", sk.Len(), sk.NVisited())
	}
}

func TestSketchAddHashesAndContains(t *testing.T) {
	sk, _ := NewSketch(3, 3)
	sk.AddHashes(50, 10, 40, 10, 30, 20)
	if got := sk.Values(); !slices.Equal(got, []uint64{10, 20, 30}) {
		t.Fatalf("Values() = %v, want [10 20 30]", got)
	}
	if !sk.Contains(20) || sk.Contains(40) || sk.Contains(123) {
		t.Fatal("Contains reports wrong membership")
	}
	if sk.NVisited() != 0 {
		t.Fatal("AddHashes changed NVisited")
	}

	mx, _ := NewSketch(3, 2, WithMode(MaxHash))
	mx.AddHashes(5, 1, 9, 7)
	if got := mx.Values(); !slices.Equal(got, []uint64{7, 9}) {
		t.Fatalf("MaxHash Values() = %v, want [7 9]", got)
	}
}

func TestNewSketchInvalid(t *testing.T) {
	if _, err := NewSketch(0, 10); !errors.Is(err, kmererrors.ErrInvalidWidth) {
		t.Fatalf("k=0: err = %v, want ErrInvalidWidth", err)
	}
	if _, err := NewSketch(21, 0); !errors.Is(err, kmererrors.ErrInvalidSketchSize) {
		t.Fatalf("maxSize=0: err = %v, want ErrInvalidSketchSize", err)
	}
	if _, err := NewSketch(21, 10, WithSketchFamily(HashFamily(7))); !errors.Is(err, kmererrors.ErrUnknownFamily) {
		t.Fatalf("bad family: err = %v, want ErrUnknownFamily", err)
	}
	_, err := NewSketch(21, 10, WithMode(SketchMode(2)))
	if !errors.Is(err, kmererrors.ErrInvalidMode) {
		t.Fatalf("bad mode: err = %v, want ErrInvalidMode", err)
	}
	if errors.Is(err, kmererrors.ErrSketchMismatch) {
		t.Fatal("bad mode reported as ErrSketchMismatch")
	}
}

func TestSketchSeed(t *testing.T) {
	sk, _ := NewSketch(21, 10, WithSketchFamily(FamilyXXH3))
	if sk.Seed() != DefaultXXH3Seed {
		t.Fatalf("Seed() = %d, want %d", sk.Seed(), DefaultXXH3Seed)
	}
	sk, _ = NewSketch(21, 10, WithSketchSeed(9))
	if sk.Seed() != 9 || sk.Family() != FamilyMurmur3 {
		t.Fatalf("Seed()=%d Family()=%s", sk.Seed(), sk.Family())
	}
}

// TestSketchUpdateCountsMismatchLeavesCounts merges a sketch without counts
// into one with counts and checks the rejected merge changes nothing.
func TestSketchUpdateCountsMismatchLeavesCounts(t *testing.T) {
	seq := []byte("AAAAAAAAAA")
	a, _ := NewSketch(3, 10, WithCounts())
	b, _ := NewSketch(3, 10)
	_ = a.Add(seq)
	_ = b.Add(seq)

	h := a.Values()[0]
	before, _ := a.Count(h)
	if before != 8 {
		t.Fatalf("Count = %d, want 8", before)
	}
	if err := a.Update(b); !errors.Is(err, kmererrors.ErrSketchMismatch) {
		t.Fatalf("err = %v, want ErrSketchMismatch", err)
	}
	if after, _ := a.Count(h); after != before {
		t.Fatalf("Count changed from %d to %d by a rejected merge", before, after)
	}
	if a.NVisited() != 8 {
		t.Fatalf("NVisited = %d, want 8", a.NVisited())
	}
}

// TestSketchUpdate splits a sequence in two overlapping halves and checks
// the merged sketch equals the sketch of the whole sequence.
func TestSketchUpdate(t *testing.T) {
	rng := newTestRNG(t)
	seq := randomDNA(rng, 250)
	const k = 21

	for _, maxSize := range []int{10, 150} {
		for _, mode := range []SketchMode{MinHash, MaxHash} {
			opts := []SketchOption{WithMode(mode), WithCounts()}
			whole, _ := NewSketch(k, maxSize, opts...)
			_ = whole.Add(seq)

			a, _ := NewSketch(k, maxSize, opts...)
			seqA := seq[:len(seq)/2]
			_ = a.Add(seqA)
			if a.NVisited() != uint64(len(seqA)-k+1) {
				t.Fatalf("a.NVisited() = %d", a.NVisited())
			}
			b, _ := NewSketch(k, maxSize, opts...)
			_ = b.Add(seq[len(seq)/2-k+1:])

			if err := a.Update(b); err != nil {
				t.Fatal(err)
			}
			if a.NVisited() != whole.NVisited() {
				t.Fatalf("NVisited %d, want %d", a.NVisited(), whole.NVisited())
			}
			if !slices.Equal(a.Values(), whole.Values()) {
				t.Fatalf("maxSize=%d %s: merged values differ", maxSize, mode)
			}
			for _, h := range whole.Values() {
				wc, _ := whole.Count(h)
				ac, _ := a.Count(h)
				if wc != ac {
					t.Fatalf("Count(%d) = %d after merge, want %d", h, ac, wc)
				}
			}
		}
	}
}

func TestSketchUpdateMismatch(t *testing.T) {
	base, _ := NewSketch(21, 10)

	mismatched := []struct {
		name string
		k    int
		opts []SketchOption
	}{
		{"K", 22, nil},
		{"Family", 21, []SketchOption{WithSketchFamily(FamilyXXHash64)}},
		{"Seed", 21, []SketchOption{WithSketchSeed(43)}},
		{"Mode", 21, []SketchOption{WithMode(MaxHash)}},
		{"Canonical", 21, []SketchOption{WithCanonical()}},
	}
	for _, tt := range mismatched {
		t.Run(tt.name, func(t *testing.T) {
			other, err := NewSketch(tt.k, 10, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if err := base.Update(other); !errors.Is(err, kmererrors.ErrSketchMismatch) {
				t.Fatalf("Update err = %v, want ErrSketchMismatch", err)
			}
			if _, err := base.Jaccard(other); !errors.Is(err, kmererrors.ErrSketchMismatch) {
				t.Fatalf("Jaccard err = %v, want ErrSketchMismatch", err)
			}
		})
	}

	// Counts only matter for merging; Jaccard ignores them.
	counted, _ := NewSketch(21, 10, WithCounts())
	if err := base.Update(counted); !errors.Is(err, kmererrors.ErrSketchMismatch) {
		t.Fatalf("Update(counted) err = %v, want ErrSketchMismatch", err)
	}
	if err := counted.Update(base); !errors.Is(err, kmererrors.ErrSketchMismatch) {
		t.Fatalf("counted.Update(plain) err = %v, want ErrSketchMismatch", err)
	}
	if _, err := base.Jaccard(counted); err != nil {
		t.Fatalf("Jaccard(counted) err = %v", err)
	}

	// Explicit default seed is compatible with the implicit one.
	same, _ := NewSketch(21, 10, WithSketchSeed(DefaultMurmur3Seed))
	if err := base.Update(same); err != nil {
		t.Fatalf("explicit default seed rejected: %v", err)
	}
}

func TestSketchJaccard(t *testing.T) {
	a, _ := NewSketch(21, 100)
	b, _ := NewSketch(21, 100)
	for h := uint64(1); h <= 10; h++ {
		a.AddHashes(h)
	}
	for h := uint64(6); h <= 15; h++ {
		b.AddHashes(h)
	}
	j, err := a.Jaccard(b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(j-1.0/3.0) > 1e-12 {
		t.Fatalf("Jaccard = %f, want 1/3", j)
	}

	// Bottom-10 of the union is 1..10; 6..10 are shared.
	a10, _ := NewSketch(21, 10)
	b10, _ := NewSketch(21, 10)
	for h := uint64(1); h <= 10; h++ {
		a10.AddHashes(h)
	}
	for h := uint64(6); h <= 15; h++ {
		b10.AddHashes(h)
	}
	if j, _ := a10.Jaccard(b10); j != 0.5 {
		t.Fatalf("bottom-k Jaccard = %f, want 0.5", j)
	}

	empty1, _ := NewSketch(21, 10)
	empty2, _ := NewSketch(21, 10)
	if j, _ := empty1.Jaccard(empty2); j != 0 {
		t.Fatalf("empty Jaccard = %f, want 0", j)
	}
}

func TestSketchJaccardIdenticalSequences(t *testing.T) {
	rng := newTestRNG(t)
	seq := randomDNA(rng, 1000)
	a, _ := NewSketch(21, 100, WithCanonical())
	b, _ := NewSketch(21, 100, WithCanonical())
	_ = a.Add(seq)
	_ = b.Add(nucleotide.ReverseComplement(nil, seq))
	j, err := a.Jaccard(b)
	if err != nil {
		t.Fatal(err)
	}
	if j != 1 {
		t.Fatalf("Jaccard of a sequence and its reverse complement = %f, want 1", j)
	}
}

// =============================================================================
// Parallel
// =============================================================================

func TestSketchParallelMatchesSequential(t *testing.T) {
	rng := newTestRNG(t)
	seq := randomDNA(rng, 5000)
	const k = 21

	for _, canonical := range []bool{false, true} {
		opts := []SketchOption{WithCounts()}
		if canonical {
			opts = append(opts, WithCanonical())
		}
		newSketch := func() (*Sketch, error) { return NewSketch(k, 64, opts...) }

		want, _ := newSketch()
		if err := want.Add(seq); err != nil {
			t.Fatal(err)
		}

		for _, workers := range []int{0, 1, 3, 8} {
			for _, chunkWidth := range []int{k, 100, 997, 10000} {
				got, err := SketchParallel(context.Background(), seq, chunkWidth, workers, newSketch)
				if err != nil {
					t.Fatal(err)
				}
				if !slices.Equal(got.Values(), want.Values()) {
					t.Fatalf("canonical=%t workers=%d chunk=%d: values differ", canonical, workers, chunkWidth)
				}
				if got.NVisited() != want.NVisited() {
					t.Fatalf("canonical=%t workers=%d chunk=%d: NVisited %d, want %d",
						canonical, workers, chunkWidth, got.NVisited(), want.NVisited())
				}
				for _, h := range want.Values() {
					wc, _ := want.Count(h)
					gc, _ := got.Count(h)
					if wc != gc {
						t.Fatalf("workers=%d chunk=%d: Count(%d) = %d, want %d", workers, chunkWidth, h, gc, wc)
					}
				}
			}
		}
	}
}

func TestSketchParallelErrors(t *testing.T) {
	newSketch := func() (*Sketch, error) { return NewSketch(21, 10) }

	if _, err := SketchParallel(context.Background(), make([]byte, 100), 10, 2, newSketch); !errors.Is(err, kmererrors.ErrInvalidChunkWidth) {
		t.Fatalf("err = %v, want ErrInvalidChunkWidth", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := newTestRNG(t)
	if _, err := SketchParallel(ctx, randomDNA(rng, 1000), 50, 4, newSketch); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	short, err := SketchParallel(context.Background(), []byte("ACGT"), 50, 4, newSketch)
	if err != nil {
		t.Fatal(err)
	}
	if short.Len() != 0 || short.NVisited() != 0 {
		t.Fatal("short sequence produced a non-empty sketch")
	}
}
