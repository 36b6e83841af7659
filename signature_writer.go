package kmerhash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
)

// maxNameLen bounds the signature name stored in the file.
const maxNameLen = math.MaxUint16

// signatureWriter writes a sketch to disk using mmap-based zero-copy writes.
// File layout: [Header 64B][NameLen 4B][Name][Hash Region N×8B][Count Region N×4B][Footer 32B]
type signatureWriter struct {
	file *os.File
	mmap mmap.MMap // Memory-mapped region
	data []byte    // View into mmap for direct writes

	// Region offsets
	hashRegionOffset  uint64
	countRegionOffset uint64
	footerOffset      uint64
	size              uint64
}

// newSignatureWriter creates the file, pre-allocates size bytes and maps it.
func newSignatureWriter(path string, size uint64) (*signatureWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(size)); err != nil {
		primaryErr := fmt.Errorf("failed to allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, file.Close())
	}

	mm, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("failed to mmap file: %w", err)
		return nil, errors.Join(primaryErr, file.Close())
	}

	return &signatureWriter{
		file: file,
		mmap: mm,
		data: []byte(mm),
		size: size,
	}, nil
}

// WriteSignature persists sketch under the given name at path.
// Hashes are stored in ascending order; counts, when tracked, follow in the
// same order.
func WriteSignature(path, name string, sketch *Sketch) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("signature name is %d bytes, maximum is %d", len(name), maxNameLen)
	}

	values := sketch.Values()
	var flags uint8
	if sketch.Canonical() {
		flags |= flagCanonical
	}
	if sketch.HasCounts() {
		flags |= flagCounts
	}
	hdr := header{
		Magic:     magic,
		Version:   version,
		Family:    sketch.Family(),
		Mode:      sketch.Mode(),
		Flags:     flags,
		K:         uint32(sketch.K()),
		MaxSize:   uint32(sketch.MaxSize()),
		Seed:      sketch.Seed(),
		NumHashes: uint32(len(values)),
		NVisited:  sketch.NVisited(),
	}
	hashBytes, countBytes := hdr.regionSizes()

	hashRegionOffset := uint64(headerSize) + 4 + uint64(len(name))
	countRegionOffset := hashRegionOffset + hashBytes
	footerOffset := countRegionOffset + countBytes
	size := footerOffset + footerSize

	sw, err := newSignatureWriter(path, size)
	if err != nil {
		return err
	}
	sw.hashRegionOffset = hashRegionOffset
	sw.countRegionOffset = countRegionOffset
	sw.footerOffset = footerOffset

	// Prefault the hash region; on Linux 5.14+ uses MADV_POPULATE_WRITE.
	prefaultRegion(sw.data[hashRegionOffset:countRegionOffset])

	hdr.encodeTo(sw.data[0:headerSize])
	binary.LittleEndian.PutUint32(sw.data[headerSize:], uint32(len(name)))
	copy(sw.data[headerSize+4:], name)

	sw.writeHashes(values)
	if sketch.HasCounts() {
		counts := make([]uint32, len(values))
		for i, h := range values {
			counts[i], _ = sketch.Count(h)
		}
		sw.writeCounts(counts)
	}

	return sw.finalize()
}

// writeHashes writes the hash region.
func (sw *signatureWriter) writeHashes(values []uint64) {
	region := sw.data[sw.hashRegionOffset:sw.countRegionOffset]
	for i, h := range values {
		binary.LittleEndian.PutUint64(region[i*hashEntrySize:], h)
	}
}

// writeCounts writes the count region.
func (sw *signatureWriter) writeCounts(counts []uint32) {
	region := sw.data[sw.countRegionOffset:sw.footerOffset]
	for i, c := range counts {
		binary.LittleEndian.PutUint32(region[i*countEntrySize:], c)
	}
}

// finalize writes the footer, flushes and closes the file.
// On error, delegates to close() for idempotent cleanup.
func (sw *signatureWriter) finalize() error {
	ftr := footer{
		HashRegionHash:  xxhash.Sum64(sw.data[sw.hashRegionOffset:sw.countRegionOffset]),
		CountRegionHash: xxhash.Sum64(sw.data[sw.countRegionOffset:sw.footerOffset]),
	}
	ftr.encodeTo(sw.data[sw.footerOffset:])

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := sw.mmap.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, sw.close())
	}

	// Nil mmap regardless of outcome to prevent close() from retrying.
	unmapErr := sw.mmap.Unmap()
	sw.mmap = nil
	if unmapErr != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", unmapErr)
		return errors.Join(primaryErr, sw.close())
	}

	closeErr := sw.file.Close()
	sw.file = nil
	return closeErr
}

// close closes the writer without finalizing (for error cleanup).
// Idempotent: safe to call multiple times.
func (sw *signatureWriter) close() error {
	var unmapErr error
	if sw.mmap != nil {
		unmapErr = sw.mmap.Unmap()
		sw.mmap = nil
	}
	var closeErr error
	if sw.file != nil {
		closeErr = sw.file.Close()
		sw.file = nil
	}
	return errors.Join(unmapErr, closeErr)
}
