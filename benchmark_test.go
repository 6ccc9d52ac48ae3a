package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	cache "github.com/krisalay/faculty-cache"
	"github.com/krisalay/faculty-cache/engine"
	"github.com/krisalay/faculty-cache/eviction"
	"github.com/krisalay/faculty-cache/expiration"
	"github.com/krisalay/faculty-cache/kv"
	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/tier"
	"github.com/krisalay/faculty-cache/types"
)

func newBenchmarkTiers() *tier.Tiers {
	return tier.New(
		tier.NewMemory(8, 100000, eviction.LRU, nil),
		tier.NewPersistent(kv.NewMemory(), tier.DefaultKeyPrefix, nil, zap.NewNop()),
		nil,
		zap.NewNop(),
	)
}

func benchmarkDoc(n int) types.Document {
	records := make([]types.Record, n)
	for i := range records {
		records[i] = types.Record{"id": fmt.Sprintf("pub-%d", i), "title": "Paper", "year": float64(2020)}
	}
	return types.Document{
		section.Publications: types.List(records...),
		section.Profile:      types.Singleton(types.Record{"name": "Ada"}),
	}
}

func newBenchmarkContext(b *testing.B) *cache.DataContext {
	fetcher := types.FetcherFunc(func(context.Context, string) (types.Document, error) {
		return benchmarkDoc(50), nil
	})
	e := engine.NewCacheEngine(expiration.NewFixedTTL(expiration.DefaultTTL), fetcher, nil, nil, nil, nil)
	dc := cache.New(e, newBenchmarkTiers(), nil, nil, nil)
	if err := dc.SetIdentity(context.Background(), "prof@inst.edu", true); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(dc.Close)
	return dc
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkTiersGetMemoryHit(b *testing.B) {
	t := newBenchmarkTiers()
	t.Set("prof@inst.edu", types.NewEntry(benchmarkDoc(50), 0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t.Get("prof@inst.edu")
	}
}

func BenchmarkTiersGetPersistentHit(b *testing.B) {
	t := newBenchmarkTiers()
	t.Set("prof@inst.edu", types.NewEntry(benchmarkDoc(50), 0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t.DropMemory("prof@inst.edu")
		t.Get("prof@inst.edu")
	}
}

func BenchmarkTiersGetMiss(b *testing.B) {
	t := newBenchmarkTiers()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t.Get(fmt.Sprintf("miss-%d", i))
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkDataContextParallelRead(b *testing.B) {
	dc := newBenchmarkContext(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			dc.Publications()
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkTiersSet(b *testing.B) {
	t := newBenchmarkTiers()
	doc := benchmarkDoc(50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t.Set(fmt.Sprintf("user-%d@inst.edu", i), types.NewEntry(doc, int64(i)))
	}
}

func BenchmarkDataContextUpdateSection(b *testing.B) {
	dc := newBenchmarkContext(b)
	awards := types.List(types.Record{"id": "w1"}, types.Record{"id": "w2"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dc.UpdateSection(section.Awards, awards)
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkTiersHighConcurrency(b *testing.B) {
	t := newBenchmarkTiers()
	doc := benchmarkDoc(10)

	identities := make([]string, 10000)
	for i := range identities {
		identities[i] = fmt.Sprintf("user-%d@inst.edu", i)
		t.Set(identities[i], types.NewEntry(doc, 0))
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				t.Get(identities[(id+j)%len(identities)])
			}
		}(i)
	}
	wg.Wait()
}
