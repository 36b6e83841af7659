package kmerhash

import (
	"encoding/binary"

	kmererrors "github.com/tamirms/kmerhash/errors"
)

const (
	// magic number for signature files
	// "KMSG" in little-endian
	magic = uint32(0x47534D4B)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32

	// minFileSize is header + name length + footer (empty name, no hashes).
	minFileSize = headerSize + 4 + footerSize

	hashEntrySize  = 8
	countEntrySize = 4
)

// Header flag bits
const (
	flagCanonical = 1 << 0
	flagCounts    = 1 << 1
)

// header is the 64-byte signature file header.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       4     Magic       0x47534D4B ("KMSG")
//	4       2     Version     0x0001
//	6       2     Family      uint16_le (0=murmur3, 1=xxhash64, 2=xxh3)
//	8       1     Mode        uint8 (0=MinHash, 1=MaxHash)
//	9       1     Flags       uint8 (bit0 canonical, bit1 counts)
//	10      4     K           uint32_le
//	14      4     MaxSize     uint32_le
//	18      4     Seed        uint32_le
//	22      4     NumHashes   uint32_le
//	26      8     NVisited    uint64_le
//	34      30    Reserved    [30]byte (zero)
type header struct {
	Magic     uint32
	Version   uint16
	Family    HashFamily
	Mode      SketchMode
	Flags     uint8
	K         uint32
	MaxSize   uint32
	Seed      uint32
	NumHashes uint32
	NVisited  uint64
	Reserved  [30]byte
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Family))
	buf[8] = uint8(h.Mode)
	buf[9] = h.Flags
	binary.LittleEndian.PutUint32(buf[10:14], h.K)
	binary.LittleEndian.PutUint32(buf[14:18], h.MaxSize)
	binary.LittleEndian.PutUint32(buf[18:22], h.Seed)
	binary.LittleEndian.PutUint32(buf[22:26], h.NumHashes)
	binary.LittleEndian.PutUint64(buf[26:34], h.NVisited)
	copy(buf[34:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, kmererrors.ErrTruncatedFile
	}

	h := &header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint16(buf[4:6]),
		Family:    HashFamily(binary.LittleEndian.Uint16(buf[6:8])),
		Mode:      SketchMode(buf[8]),
		Flags:     buf[9],
		K:         binary.LittleEndian.Uint32(buf[10:14]),
		MaxSize:   binary.LittleEndian.Uint32(buf[14:18]),
		Seed:      binary.LittleEndian.Uint32(buf[18:22]),
		NumHashes: binary.LittleEndian.Uint32(buf[22:26]),
		NVisited:  binary.LittleEndian.Uint64(buf[26:34]),
	}
	copy(h.Reserved[:], buf[34:64])

	if h.Magic != magic {
		return nil, kmererrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, kmererrors.ErrInvalidVersion
	}
	if !h.Family.valid() || h.Mode > MaxHash {
		return nil, kmererrors.ErrCorruptedSignature
	}
	if h.K == 0 || h.MaxSize == 0 || h.NumHashes > h.MaxSize {
		return nil, kmererrors.ErrCorruptedSignature
	}
	if h.Flags&^(flagCanonical|flagCounts) != 0 {
		return nil, kmererrors.ErrCorruptedSignature
	}

	return h, nil
}

func (h *header) canonical() bool {
	return h.Flags&flagCanonical != 0
}

func (h *header) hasCounts() bool {
	return h.Flags&flagCounts != 0
}

// regionSizes returns the byte sizes of the hash and count regions.
func (h *header) regionSizes() (hashBytes, countBytes uint64) {
	hashBytes = uint64(h.NumHashes) * hashEntrySize
	if h.hasCounts() {
		countBytes = uint64(h.NumHashes) * countEntrySize
	}
	return hashBytes, countBytes
}

// footer is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field            Type
//	0       8     HashRegionHash   uint64_le (xxHash64 of hash region)
//	8       8     CountRegionHash  uint64_le (xxHash64 of count region)
//	16      16    Reserved         [16]byte (zero)
type footer struct {
	HashRegionHash  uint64
	CountRegionHash uint64
	Reserved        [16]byte
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.HashRegionHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.CountRegionHash)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, kmererrors.ErrTruncatedFile
	}

	f := &footer{
		HashRegionHash:  binary.LittleEndian.Uint64(buf[0:8]),
		CountRegionHash: binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}
