// Package kmerhash computes non-cryptographic hashes over every fixed-width
// window (k-mer) of a byte sequence, the core step of MinHash-style genomic
// sketching.
//
// # Basic Usage
//
// Hashing every 21-mer of a sequence into a caller-owned array:
//
//	out := make([]uint64, 1000)
//	n, err := kmerhash.HashSliding(seq, 21, out)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hashes := out[:n]
//
// The number of windows written is min(len(out), len(seq)-21+1); a short
// output array silently truncates. Strand-independent hashing takes the
// reverse complement computed by the caller:
//
//	rc := nucleotide.ReverseComplement(nil, seq)
//	n, err := kmerhash.HashSlidingCanonical(seq, rc, 21, out,
//	    kmerhash.WithFamily(kmerhash.FamilyXXHash64), kmerhash.WithSeed(7))
//
// Building and persisting a sketch:
//
//	sk, err := kmerhash.NewSketch(21, 1000, kmerhash.WithCanonical())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sk.Add(seq); err != nil {
//	    log.Fatal(err)
//	}
//	err = kmerhash.WriteSignature("genome.ksig", "genome", sk)
//
// # Package Structure
//
//   - Sliding hashers: sliding.go (Hasher, HashSliding, HashSlidingCanonical)
//   - Hash primitives: family.go (HashFamily, HashFunc), primitives.go
//   - Configuration: options.go (HashOption, SketchOption)
//   - Sketches: sketch.go, sketch_heap.go, sketch_parallel.go, chunk.go
//   - Persistence: header.go, signature.go, signature_writer.go
//   - Input: seqfile.go (FASTA over mmap), nucleotide/ (masking, reverse complement)
//   - Platform: fallocate_*.go, prefault_*.go, fadvise_*.go
package kmerhash
