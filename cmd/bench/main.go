// Bench is a benchmarking tool for measuring sliding-window hashing and
// sketching throughput and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -length 100000000 -k 21 -family xxh3 -canonical
//
// Flags:
//
//	-length     Sequence length in bases (default: 100,000,000)
//	-k          Window width (default: 21)
//	-capacity   Output capacity in windows, 0 for all windows (default: 0)
//	-family     Hash family: murmur3, xxhash64 or xxh3 (default: murmur3)
//	-canonical  Hash canonical windows (default: false)
//	-sketch     Bottom-k sketch size for the sketch phase (default: 1000)
//	-workers    Number of parallel sketch workers (default: NumCPU)
package main

import (
	"context"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/kmerhash"
	"github.com/tamirms/kmerhash/nucleotide"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler tracks peak heap and RSS while a phase runs.
type peakSampler struct {
	peakAlloc atomic.Uint64
	peakRSS   atomic.Uint64
	done      chan struct{}
}

func startPeakSampler() *peakSampler {
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)

	s := &peakSampler{done: make(chan struct{})}
	s.peakAlloc.Store(baseline.Alloc)
	s.peakRSS.Store(getMaxRSS())

	// runtime/metrics avoids the stop-the-world pause of ReadMemStats.
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.peakAlloc, samples[0].Value.Uint64())
				storeMax(&s.peakRSS, getMaxRSS())
			}
		}
	}()
	return s
}

func storeMax(v *atomic.Uint64, n uint64) {
	for {
		old := v.Load()
		if n <= old || v.CompareAndSwap(old, n) {
			return
		}
	}
}

func (s *peakSampler) stop() (heapBytes, rssBytes uint64) {
	close(s.done)
	return s.peakAlloc.Load(), s.peakRSS.Load()
}

func main() {
	lengthFlag := flag.Int("length", 100_000_000, "sequence length in bases")
	kFlag := flag.Int("k", 21, "window width")
	capacityFlag := flag.Int("capacity", 0, "output capacity in windows (0 = all windows)")
	familyFlag := flag.String("family", "murmur3", "hash family: murmur3, xxhash64 or xxh3")
	canonicalFlag := flag.Bool("canonical", false, "hash canonical windows")
	sketchFlag := flag.Int("sketch", 1000, "bottom-k sketch size")
	workersFlag := flag.Int("workers", runtime.NumCPU(), "number of parallel sketch workers")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (hash phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (after sketch phase)")
	flag.Parse()

	family, err := kmerhash.ParseHashFamily(*familyFlag)
	if err != nil {
		fmt.Printf("%v (use murmur3, xxhash64 or xxh3)\n", err)
		return
	}
	n, k := *lengthFlag, *kFlag
	if k <= 0 || k > n {
		fmt.Printf("invalid -k %d for -length %d\n", k, n)
		return
	}
	capacity := *capacityFlag
	if capacity <= 0 {
		capacity = n - k + 1
	}

	fmt.Println("Generating sequence...")
	const bases = "ACGT"
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = bases[mrand.IntN(4)]
	}
	var rc []byte
	if *canonicalFlag {
		rc = nucleotide.ReverseComplement(nil, seq)
	}
	out := make([]uint64, capacity)

	hasher, err := kmerhash.NewHasher(kmerhash.WithFamily(family))
	if err != nil {
		fmt.Printf("NewHasher failed: %v\n", err)
		return
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Println("Hashing windows...")
	hashStart := time.Now()
	var written int
	if *canonicalFlag {
		written, err = hasher.SlidingCanonical(seq, rc, k, out)
	} else {
		written, err = hasher.Sliding(seq, k, out)
	}
	hashDuration := time.Since(hashStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if err != nil {
		fmt.Printf("hashing failed: %v\n", err)
		return
	}

	fmt.Println("Sketching...")
	runtime.GC()
	sampler := startPeakSampler()
	baselineAlloc, baselineRSS := sampler.peakAlloc.Load(), sampler.peakRSS.Load()

	sketchStart := time.Now()
	newSketch := func() (*kmerhash.Sketch, error) {
		opts := []kmerhash.SketchOption{kmerhash.WithSketchFamily(family)}
		if *canonicalFlag {
			opts = append(opts, kmerhash.WithCanonical())
		}
		return kmerhash.NewSketch(k, *sketchFlag, opts...)
	}
	workers := max(1, *workersFlag)
	chunkWidth := max(k, n/workers/4)
	sk, err := kmerhash.SketchParallel(context.Background(), seq, chunkWidth, workers, newSketch)
	sketchDuration := time.Since(sketchStart)
	peakAlloc, peakRSS := sampler.stop()
	if err != nil {
		fmt.Printf("sketching failed: %v\n", err)
		return
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	modeStr := "forward"
	if *canonicalFlag {
		modeStr = "canonical"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ Mode: %-14s║ Hash: %-8s ║ k = %-12d ║\n", modeStr, family, k)
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Windows hashed      ║ %12d   ║ -                ║\n", written)
	fmt.Printf("║ Hash time           ║ %6.2f sec     ║ -                ║\n", hashDuration.Seconds())
	fmt.Printf("║ Hash throughput     ║ %6.2f M/sec   ║ -                ║\n", float64(written)/hashDuration.Seconds()/1_000_000)
	fmt.Printf("║ Hash bandwidth      ║ %6.1f MB/sec  ║ -                ║\n", float64(n)/hashDuration.Seconds()/1_000_000)
	fmt.Printf("║ Sketch time         ║ %6.2f sec     ║ (%d workers)     ║\n", sketchDuration.Seconds(), workers)
	fmt.Printf("║ Sketch throughput   ║ %6.2f M/sec   ║ -                ║\n", float64(sk.NVisited())/sketchDuration.Seconds()/1_000_000)
	fmt.Printf("║ Sketch size         ║ %12d   ║ -                ║\n", sk.Len())
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB      ║ (sketch phase)   ║\n", float64(peakAlloc-min(peakAlloc, baselineAlloc))/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB      ║ (sketch phase)   ║\n", float64(peakRSS-min(peakRSS, baselineRSS))/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩══════════════════╝\n")
}
