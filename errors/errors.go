// Package errors defines all exported error sentinels for the kmerhash library.
//
// This is the single source of truth for error values. The top-level
// kmerhash package and cmd/kmersketch import from here, so errors.Is checks
// work across package boundaries.
package errors

import "errors"

// Hashing errors
var (
	ErrInvalidWidth   = errors.New("kmerhash: the width of the window cannot be longer than the input")
	ErrLengthMismatch = errors.New("kmerhash: the input and its reverse-complement must have identical lengths")
	ErrUnknownFamily  = errors.New("kmerhash: unknown hash family")
)

// Sketch errors
var (
	ErrInvalidSketchSize = errors.New("kmerhash: sketch size must be positive")
	ErrInvalidMode       = errors.New("kmerhash: unknown sketch mode")
	ErrSketchMismatch    = errors.New("kmerhash: sketches were built with different parameters")
	ErrInvalidChunkWidth = errors.New("kmerhash: chunk width must be at least the k-mer size")
)

// Signature file errors
var (
	ErrInvalidMagic       = errors.New("kmerhash: invalid magic number")
	ErrInvalidVersion     = errors.New("kmerhash: unsupported version")
	ErrTruncatedFile      = errors.New("kmerhash: signature file is truncated")
	ErrCorruptedSignature = errors.New("kmerhash: signature data is corrupted")
	ErrChecksumFailed     = errors.New("kmerhash: file checksum verification failed")
	ErrSignatureClosed    = errors.New("kmerhash: signature is closed")
)
