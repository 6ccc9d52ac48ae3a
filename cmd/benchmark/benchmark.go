package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/eviction"
	"github.com/krisalay/faculty-cache/kv"
	"github.com/krisalay/faculty-cache/kv/sqlite"
	"github.com/krisalay/faculty-cache/metrics"
	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/tier"
	"github.com/krisalay/faculty-cache/types"
)

// ================= FIXTURE =================

func facultyDoc(i int) types.Document {
	pubs := make([]types.Record, 20)
	for j := range pubs {
		pubs[j] = types.Record{"id": fmt.Sprintf("pub-%d-%d", i, j), "title": "Paper", "year": 2000 + j}
	}
	return types.Document{
		section.Profile:      types.Singleton(types.Record{"name": fmt.Sprintf("Faculty %d", i)}),
		section.Publications: types.List(pubs...),
	}
}

// ================= BENCHMARK =================

func main() {
	fmt.Println("\n================ TIER LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		shards      = 8
		capacity    = 2000
		identities  = 5000
		goroutines  = 200
		opsPerG     = 5000
		sqliteStore = true
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Capacity     :", capacity, "(memory tier)")
	fmt.Println("Identities   :", identities)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	// ---------------- Session Store ----------------
	var store kv.Store = kv.NewMemory()
	if sqliteStore {
		dir, err := os.MkdirTemp("", "faculty-cache-bench")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer os.RemoveAll(dir)

		s, err := sqlite.Open(filepath.Join(dir, "session.db"), "")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
		fmt.Println("Session store: sqlite", s.SessionID())
	}

	// ---------------- Tiers ----------------
	collector := metrics.NewCollector("bench")
	logger := zap.NewNop()
	t := tier.New(
		tier.NewMemory(shards, capacity, eviction.LRU, collector),
		tier.NewPersistent(store, tier.DefaultKeyPrefix, collector, logger),
		collector,
		logger,
	)

	keys := make([]string, identities)
	for i := range keys {
		keys[i] = fmt.Sprintf("faculty-%d@inst.edu", i)
	}

	// ---------------- Preload ----------------
	fmt.Println("Preloading tiers...")
	for i, id := range keys {
		t.Set(id, types.NewEntry(facultyDoc(i), time.Now().UnixMilli()))
	}
	fmt.Println("Preload complete.")

	// ---------------- Warmup ----------------
	fmt.Println("Warming up memory tier...")
	for i := 0; i < capacity; i++ {
		t.Get(keys[i])
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				// Mostly hot identities with a cold tail that hits session storage.
				k := j % capacity
				if j%10 == 0 {
					k = (id*opsPerG + j) % identities
				}
				t.Get(keys[k])
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("-----------------------------------------")
	families, err := collector.Registry().Gather()
	if err == nil {
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				name := mf.GetName()
				for _, lp := range m.GetLabel() {
					name += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
				}
				fmt.Printf("%-44s : %.0f\n", name, m.GetCounter().GetValue())
			}
		}
	}
	fmt.Println("=========================================")
}
