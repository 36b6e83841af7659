package kmerhash

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SketchParallel sketches seq on a pool of workers and returns the merged
// sketch.
//
// The sequence is split with ChunkPositions so that every k-mer is hashed by
// exactly one worker; the per-worker sketches are merged in chunk order with
// Update. The result has the same values, counts and NVisited as adding seq
// to a single sketch. newSketch must return empty, mutually compatible
// sketches; its k is used for chunking.
//
// workers <= 0 means one worker.
func SketchParallel(ctx context.Context, seq []byte, chunkWidth, workers int, newSketch func() (*Sketch, error)) (*Sketch, error) {
	result, err := newSketch()
	if err != nil {
		return nil, err
	}
	chunks, err := ChunkPositions(result.K(), len(seq), chunkWidth)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return result, nil
	}
	workers = max(1, min(workers, len(chunks)))

	// Each worker owns one sketch and folds its chunks into it; chunk i goes
	// to worker i % workers.
	partials := make([]*Sketch, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			sk, err := newSketch()
			if err != nil {
				return err
			}
			for i := w; i < len(chunks); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := chunks[i]
				if err := sk.Add(seq[c.Begin:c.End]); err != nil {
					return fmt.Errorf("sketch chunk [%d,%d): %w", c.Begin, c.End, err)
				}
			}
			partials[w] = sk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range partials {
		if err := result.Update(p); err != nil {
			return nil, err
		}
	}
	return result, nil
}
