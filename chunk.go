package kmerhash

import (
	"fmt"

	kmererrors "github.com/tamirms/kmerhash/errors"
)

// Chunk is a half-open range [Begin, End) of a sequence.
type Chunk struct {
	Begin int
	End   int
}

// Len returns End - Begin.
func (c Chunk) Len() int { return c.End - c.Begin }

// ChunkPositions splits a sequence of the given length into chunks of at
// most w bytes such that every k-mer lies in exactly one chunk.
//
// Consecutive chunks overlap by k-1 bytes. For length 10, k 3 and w 5:
//
//	|0 1 2 3 4 5 6 7 8 9|
//	 |---------|
//	       |---------|
//	             |------|
//
// A trailing chunk is emitted only when it holds at least one k-mer.
// Returns ErrInvalidChunkWidth when k is not positive or k > w.
func ChunkPositions(k, length, w int) ([]Chunk, error) {
	if k <= 0 || k > w {
		return nil, fmt.Errorf("%w: k %d, chunk width %d", kmererrors.ErrInvalidChunkWidth, k, w)
	}
	step := w - k + 1 // k-mers starting in each full chunk

	windows := length - k + 1
	if windows <= 0 {
		return nil, nil
	}
	n := (windows + step - 1) / step

	chunks := make([]Chunk, 0, n)
	for i := range n {
		begin := i * step
		chunks = append(chunks, Chunk{Begin: begin, End: min(begin+w, length)})
	}
	return chunks, nil
}
