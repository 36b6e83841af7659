package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamirms/kmerhash"
	kmererrors "github.com/tamirms/kmerhash/errors"
	"github.com/tamirms/kmerhash/nucleotide"
)

// sketchParams are the flags shared by commands that build sketches or hash.
type sketchParams struct {
	k         int
	maxSize   int
	family    string
	seed      int64
	canonical bool
	counts    bool
}

func (a *app) bindHashParams(cmd *cobra.Command, p *sketchParams, canonical bool) {
	f := cmd.Flags()
	f.StringVar(&p.family, "family", a.env.Family, "hash family: murmur3, xxhash64 or xxh3")
	f.Int64Var(&p.seed, "seed", a.env.Seed, "hash seed (negative for the family default)")
	f.BoolVar(&p.canonical, "canonical", canonical, "hash canonical k-mers")
}

// explicitSeed returns the seed flag as a uint32, or ok=false when the family
// default applies.
func (p *sketchParams) explicitSeed() (seed uint32, ok bool, err error) {
	switch {
	case p.seed < 0:
		return 0, false, nil
	case p.seed > math.MaxUint32:
		return 0, false, fmt.Errorf("seed %d exceeds %d", p.seed, uint32(math.MaxUint32))
	}
	return uint32(p.seed), true, nil
}

func (p *sketchParams) sketchOptions() ([]kmerhash.SketchOption, error) {
	family, err := kmerhash.ParseHashFamily(p.family)
	if err != nil {
		return nil, err
	}
	seed, ok, err := p.explicitSeed()
	if err != nil {
		return nil, err
	}
	opts := []kmerhash.SketchOption{kmerhash.WithSketchFamily(family)}
	if ok {
		opts = append(opts, kmerhash.WithSketchSeed(seed))
	}
	if p.canonical {
		opts = append(opts, kmerhash.WithCanonical())
	}
	if p.counts {
		opts = append(opts, kmerhash.WithCounts())
	}
	return opts, nil
}

func (a *app) sketchCommand() *cobra.Command {
	var (
		p          sketchParams
		name       string
		workers    int
		chunkWidth int
	)
	cmd := &cobra.Command{
		Use:   "sketch <in.fa> <out.ksig>",
		Short: "Sketch every record of a FASTA file into one signature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			return a.runSketch(cmd.Context(), args[0], args[1], name, &p, workers, chunkWidth)
		},
	}
	a.bindHashParams(cmd, &p, a.env.Canonical)
	f := cmd.Flags()
	f.IntVarP(&p.k, "ksize", "k", a.env.KSize, "k-mer size")
	f.IntVarP(&p.maxSize, "maxsize", "n", a.env.MaxSize, "number of hashes kept")
	f.BoolVar(&p.counts, "counts", a.env.Counts, "track k-mer abundance")
	f.StringVar(&name, "name", "", "signature name (default: input file name)")
	f.IntVarP(&workers, "workers", "j", a.env.Workers, "parallel workers (0 for NumCPU)")
	f.IntVar(&chunkWidth, "chunk-width", a.env.ChunkWidth, "bases per parallel chunk")
	return cmd
}

func (a *app) runSketch(ctx context.Context, in, out, name string, p *sketchParams, workers, chunkWidth int) error {
	opts, err := p.sketchOptions()
	if err != nil {
		return err
	}
	newSketch := func() (*kmerhash.Sketch, error) {
		return kmerhash.NewSketch(p.k, p.maxSize, opts...)
	}
	merged, err := newSketch()
	if err != nil {
		return err
	}

	sf, err := kmerhash.OpenSequenceFile(in)
	if err != nil {
		return err
	}
	defer sf.Close()

	a.log.Infow("sketching",
		"input", in,
		"bytes", sf.Size(),
		"k", p.k,
		"maxsize", p.maxSize,
		"family", merged.Family().String(),
		"seed", merged.Seed(),
		"canonical", p.canonical,
		"workers", workers,
	)

	start := time.Now()
	var records int
	for rec := range sf.Records() {
		records++
		sk, err := kmerhash.SketchParallel(ctx, rec.Seq, max(chunkWidth, p.k), workers, newSketch)
		if err != nil {
			return fmt.Errorf("record %q: %w", rec.Name, err)
		}
		if err := merged.Update(sk); err != nil {
			return fmt.Errorf("record %q: %w", rec.Name, err)
		}
		a.log.Debugw("record sketched", "record", rec.Name, "length", len(rec.Seq), "kmers", sk.NVisited())
	}

	if err := kmerhash.WriteSignature(out, name, merged); err != nil {
		return err
	}
	a.log.Infow("signature written",
		"output", out,
		"records", records,
		"kmers", merged.NVisited(),
		"hashes", merged.Len(),
		"elapsed", time.Since(start),
	)
	return nil
}

func (a *app) compareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a.ksig> <b.ksig>",
		Short: "Print the Jaccard similarity estimate of two signatures",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sketches := make([]*kmerhash.Sketch, len(args))
			for i, path := range args {
				sk, err := a.loadSignature(path)
				if err != nil {
					return err
				}
				sketches[i] = sk
			}
			j, err := sketches[0].Jaccard(sketches[1])
			if errors.Is(err, kmererrors.ErrSketchMismatch) {
				return fmt.Errorf("%s and %s are not comparable: %w", args[0], args[1], err)
			}
			if err != nil {
				return err
			}
			a.log.Debugw("compared", "a", args[0], "b", args[1], "jaccard", j)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", j)
			return err
		},
	}
}

// loadSignature opens, verifies and decodes a signature file.
func (a *app) loadSignature(path string) (sk *kmerhash.Sketch, err error) {
	sig, err := kmerhash.OpenSignature(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, sig.Close()) }()

	if err := sig.Verify(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.Debugw("signature loaded", "path", path, "name", sig.Name(), "k", sig.K(), "hashes", sig.NumHashes())
	return sig.Sketch()
}

func (a *app) hashCommand() *cobra.Command {
	var p sketchParams
	cmd := &cobra.Command{
		Use:   "hash <sequence>",
		Short: "Print the hash of every window of a sequence, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := kmerhash.ParseHashFamily(p.family)
			if err != nil {
				return err
			}
			seed, ok, err := p.explicitSeed()
			if err != nil {
				return err
			}
			opts := []kmerhash.HashOption{kmerhash.WithFamily(family)}
			if ok {
				opts = append(opts, kmerhash.WithSeed(seed))
			}
			hashes, err := hashWindows([]byte(args[0]), p.k, p.canonical, opts...)
			if err != nil {
				return err
			}

			var b strings.Builder
			for _, h := range hashes {
				fmt.Fprintf(&b, "%d\n", h)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
	// Forward strand unless asked otherwise.
	a.bindHashParams(cmd, &p, false)
	cmd.Flags().IntVarP(&p.k, "width", "w", a.env.KSize, "window width")
	return cmd
}

// hashWindows hashes every width-byte window of seq, optionally in canonical
// form. Canonical hashing masks seq to ACGT/N first, as sketches do.
func hashWindows(seq []byte, width int, canonical bool, opts ...kmerhash.HashOption) ([]uint64, error) {
	out := make([]uint64, max(len(seq)-width+1, 0))
	var (
		n   int
		err error
	)
	if canonical {
		fwd := nucleotide.MaskACGT(nil, seq)
		rc := nucleotide.ReverseComplement(nil, fwd)
		n, err = kmerhash.HashSlidingCanonical(fwd, rc, width, out, opts...)
	} else {
		n, err = kmerhash.HashSliding(seq, width, out, opts...)
	}
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
