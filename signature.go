package kmerhash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	kmererrors "github.com/tamirms/kmerhash/errors"
)

// Signature is a read-only view of a persisted sketch.
//
// Thread Safety:
// - Read methods are safe for concurrent use
// - Close must only be called after all reads have completed
// - After Close returns, no methods may be called on the Signature
type Signature struct {
	// Memory map (no file handle needed after mmap)
	mmap mmap.MMap
	data []byte

	header *header
	name   string

	hashRegion  []byte
	countRegion []byte
	footerBytes []byte

	closed atomic.Bool
}

// OpenSignature opens a signature file. It opens the file, memory-maps it,
// and closes the file descriptor.
func OpenSignature(path string) (*Signature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signature file: %w", err)
	}
	defer file.Close()
	return OpenSignatureFile(file)
}

// OpenSignatureFile opens a signature by memory-mapping the given file.
// The caller is responsible for closing f; f may be closed immediately after
// OpenSignatureFile returns.
func OpenSignatureFile(f *os.File) (*Signature, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat signature file: %w", err)
	}
	if stat.Size() < int64(minFileSize) {
		return nil, kmererrors.ErrTruncatedFile
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap signature file: %w", err)
	}

	sig := &Signature{
		mmap: mm,
		data: []byte(mm),
	}
	if err := sig.initFromData(); err != nil {
		return nil, errors.Join(err, sig.Close())
	}
	return sig, nil
}

// OpenSignatureBytes creates a Signature from an in-memory byte slice.
// Close is a no-op. The caller must not modify data while the Signature is
// in use.
func OpenSignatureBytes(data []byte) (*Signature, error) {
	if len(data) < minFileSize {
		return nil, kmererrors.ErrTruncatedFile
	}
	sig := &Signature{data: data}
	if err := sig.initFromData(); err != nil {
		return nil, err
	}
	return sig, nil
}

// initFromData parses the header and name and slices the regions.
// Checksums are verified by Verify.
func (sig *Signature) initFromData() error {
	size := uint64(len(sig.data))

	hdr, err := decodeHeader(sig.data[:headerSize])
	if err != nil {
		return err
	}
	sig.header = hdr

	offset := uint64(headerSize)
	nameLen := uint64(binary.LittleEndian.Uint32(sig.data[offset:]))
	offset += 4
	if nameLen > maxNameLen {
		return kmererrors.ErrCorruptedSignature
	}
	if offset+nameLen > size {
		return kmererrors.ErrTruncatedFile
	}
	sig.name = string(sig.data[offset : offset+nameLen])
	offset += nameLen

	hashBytes, countBytes := hdr.regionSizes()
	end := offset + hashBytes + countBytes + footerSize
	switch {
	case end > size:
		return kmererrors.ErrTruncatedFile
	case end < size:
		return kmererrors.ErrCorruptedSignature
	}

	sig.hashRegion = sig.data[offset : offset+hashBytes]
	offset += hashBytes
	sig.countRegion = sig.data[offset : offset+countBytes]
	offset += countBytes
	sig.footerBytes = sig.data[offset : offset+footerSize]
	return nil
}

// Close releases the memory map. Idempotent.
func (sig *Signature) Close() error {
	if sig.closed.Swap(true) {
		return nil
	}
	if sig.mmap != nil {
		return sig.mmap.Unmap()
	}
	return nil
}

// Name returns the name stored with the signature.
func (sig *Signature) Name() string { return sig.name }

// K returns the k-mer size.
func (sig *Signature) K() int { return int(sig.header.K) }

// Family returns the hash family the sketch was built with.
func (sig *Signature) Family() HashFamily { return sig.header.Family }

// NumHashes returns the number of stored hashes.
func (sig *Signature) NumHashes() int { return int(sig.header.NumHashes) }

// Verify checks both region checksums against the footer.
func (sig *Signature) Verify() error {
	if sig.closed.Load() {
		return kmererrors.ErrSignatureClosed
	}
	ftr, err := decodeFooter(sig.footerBytes)
	if err != nil {
		return err
	}
	if xxhash.Sum64(sig.hashRegion) != ftr.HashRegionHash {
		return fmt.Errorf("%w: hash region", kmererrors.ErrChecksumFailed)
	}
	if xxhash.Sum64(sig.countRegion) != ftr.CountRegionHash {
		return fmt.Errorf("%w: count region", kmererrors.ErrChecksumFailed)
	}
	return nil
}

// Values returns the stored hashes (ascending).
func (sig *Signature) Values() ([]uint64, error) {
	if sig.closed.Load() {
		return nil, kmererrors.ErrSignatureClosed
	}
	values := make([]uint64, sig.header.NumHashes)
	for i := range values {
		values[i] = binary.LittleEndian.Uint64(sig.hashRegion[i*hashEntrySize:])
	}
	return values, nil
}

// Sketch rebuilds an in-memory sketch from the signature. The returned sketch
// does not reference the mapped data and survives Close.
func (sig *Signature) Sketch() (*Sketch, error) {
	values, err := sig.Values()
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return nil, fmt.Errorf("%w: hashes not strictly ascending at %d", kmererrors.ErrCorruptedSignature, i)
		}
	}

	hdr := sig.header
	var counts []uint32
	if hdr.hasCounts() {
		counts = make([]uint32, len(values))
		for i := range counts {
			counts[i] = binary.LittleEndian.Uint32(sig.countRegion[i*countEntrySize:])
		}
	}

	opts := []SketchOption{
		WithMode(hdr.Mode),
		WithSketchFamily(hdr.Family),
		WithSketchSeed(hdr.Seed),
	}
	if hdr.canonical() {
		opts = append(opts, WithCanonical())
	}
	if hdr.hasCounts() {
		opts = append(opts, WithCounts())
	}
	return restoreSketch(int(hdr.K), int(hdr.MaxSize), values, counts, hdr.NVisited, opts...)
}
