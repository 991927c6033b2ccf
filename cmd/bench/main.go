// Bench is a benchmarking tool for measuring Map insert throughput, lookup
// latency, and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -keys 1000000 -growth 2 -topscale 3
//
// Flags:
//
//	-keys      Number of keys to insert (default: 1,000,000)
//	-workers   Rebuild worker cap, 0 for GOMAXPROCS (default: 0)
//	-growth    Threshold growth constant c in M=(1+c)*max(n,4) (default: 2)
//	-topscale  Top-level scale constant kappa in s(M)=kappa*M (default: 3)
//	-prehash   Pre-hasher: xxh3, murmur3, or xxhash (default: xxh3)
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/metrics"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/dphash"
	"github.com/tamirms/dphash/internal/hashfam"
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
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

func preHasherByName(name string) (hashfam.PreHasher, error) {
	switch name {
	case "xxh3":
		return hashfam.XXH3PreHasher{}, nil
	case "murmur3":
		return hashfam.Murmur3PreHasher{}, nil
	case "xxhash":
		return hashfam.XXHashPreHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown prehash %q (use xxh3, murmur3, or xxhash)", name)
	}
}

func randomKeys(n int) []uint64 {
	seedBuf := make([]byte, 16)
	_, _ = rand.Read(seedBuf) // crypto/rand.Read error is fatal system issue; ignore for benchmark
	seed1 := uint64(0)
	seed2 := uint64(0)
	for i := 0; i < 8; i++ {
		seed1 |= uint64(seedBuf[i]) << (8 * i)
		seed2 |= uint64(seedBuf[8+i]) << (8 * i)
	}
	rng := mrand.New(mrand.NewPCG(seed1, seed2))

	seen := make(map[uint64]struct{}, n)
	keys := make([]uint64, n)
	for i := range keys {
		for {
			k := rng.Uint64()
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys[i] = k
				break
			}
		}
	}
	return keys
}

func main() {
	keysFlag := flag.Int("keys", 1_000_000, "number of keys to insert")
	workersFlag := flag.Int("workers", 0, "rebuild worker cap, 0 for GOMAXPROCS")
	growthFlag := flag.Float64("growth", 2, "threshold growth constant c")
	topscaleFlag := flag.Float64("topscale", 3, "top-level scale constant kappa")
	prehashFlag := flag.String("prehash", "xxh3", "pre-hasher: xxh3, murmur3, or xxhash")
	flag.Parse()

	preHasher, err := preHasherByName(*prehashFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	numKeys := *keysFlag

	fmt.Println("Generating keys...")
	keys := randomKeys(numKeys)

	var retries atomic.Uint64
	var fullRebuilds atomic.Uint64
	telemetry := func(ev dphash.Event) {
		switch ev.Kind {
		case dphash.EventLocalRebuildRetry, dphash.EventFullRebuildRetry:
			retries.Add(1)
		case dphash.EventFullRebuildDone:
			fullRebuilds.Add(1)
		}
	}

	m, err := dphash.New[uint64, uint64](
		numKeys,
		dphash.WithGrowthConstant(*growthFlag),
		dphash.WithTopScale(*topscaleFlag),
		dphash.WithPreHasher(preHasher),
		dphash.WithRebuildWorkers(*workersFlag),
		dphash.WithTelemetry(telemetry),
	)
	if err != nil {
		fmt.Printf("New failed: %v\n", err)
		os.Exit(1)
	}

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world
	// pauses that would distort the insert/lookup timings.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	fmt.Println("Inserting keys...")
	insertStart := time.Now()
	for _, k := range keys {
		m.Insert(k, k)
	}
	insertDuration := time.Since(insertStart)

	queryOrder := mrand.Perm(numKeys)

	fmt.Println("Warming up queries...")
	for i := 0; i < 10000 && i < numKeys; i++ {
		_, _ = m.Get(keys[queryOrder[i%numKeys]]) // benchmark: measuring throughput, not correctness
	}

	fmt.Println("Benchmarking queries...")
	numQueries := 100000
	queryStart := time.Now()
	hits := 0
	for i := 0; i < numQueries; i++ {
		if _, ok := m.Get(keys[queryOrder[i%numKeys]]); ok {
			hits++
		}
	}
	queryDuration := time.Since(queryStart)
	avgLatency := float64(queryDuration.Nanoseconds()) / float64(numQueries) / 1000

	close(done)

	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	if final.Alloc > peakAlloc.Load() {
		peakAlloc.Store(final.Alloc)
	}
	finalRSS := getMaxRSS()
	if finalRSS > peakRSS.Load() {
		peakRSS.Store(finalRSS)
	}

	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Keys                ║ %13d    ║\n", numKeys)
	fmt.Printf("║ Size() after insert  ║ %13d    ║\n", m.Size())
	fmt.Printf("║ Query hits          ║ %13d    ║\n", hits)
	fmt.Printf("║ Rejection retries   ║ %13d    ║\n", retries.Load())
	fmt.Printf("║ Full rebuilds       ║ %13d    ║\n", fullRebuilds.Load())
	fmt.Printf("║ Insert time         ║ %10.2f sec ║\n", insertDuration.Seconds())
	fmt.Printf("║ Insert throughput   ║ %7.2f M/sec ║\n", float64(numKeys)/insertDuration.Seconds()/1_000_000)
	fmt.Printf("║ Query latency       ║ %10.2f μs  ║\n", avgLatency)
	fmt.Printf("║ Peak heap memory    ║ %10.1f MB  ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %10.1f MB  ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}
