package pointindex

import (
	"math/rand"
	"testing"
)

func generateBenchEntries(n, dims int) []Entry {
	return randomEntries(rand.New(rand.NewSource(42)), n, dims)
}

func generateBenchPoints(n, dims int) []Point {
	rng := rand.New(rand.NewSource(43))
	pts := make([]Point, n)
	for i := range pts {
		for d := 0; d < dims; d++ {
			pts[i][d] = rng.Float64() * 100
		}
	}
	return pts
}

// --- Bulk load ---

func benchBulkLoad(b *testing.B, n int) {
	b.Helper()
	entries := generateBenchEntries(n, 3)
	cfg := DefaultConfig()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BulkLoad(entries, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBulkLoad_1000(b *testing.B)   { benchBulkLoad(b, 1000) }
func BenchmarkBulkLoad_10000(b *testing.B)  { benchBulkLoad(b, 10000) }
func BenchmarkBulkLoad_100000(b *testing.B) { benchBulkLoad(b, 100000) }

// --- Incremental insert ---

func benchInsert(b *testing.B, n int) {
	b.Helper()
	entries := generateBenchEntries(n, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix, _ := New(DefaultConfig())
		for _, e := range entries {
			if err := ix.Insert(e); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkInsert_1000(b *testing.B)  { benchInsert(b, 1000) }
func BenchmarkInsert_10000(b *testing.B) { benchInsert(b, 10000) }

// --- Queries ---

func benchWithin(b *testing.B, n int, radius float64) {
	b.Helper()
	ix, err := BulkLoad(generateBenchEntries(n, 3), DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	centers := generateBenchPoints(1024, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ix.Within(centers[i%len(centers)], radius); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWithin_10000_r5(b *testing.B)   { benchWithin(b, 10000, 5) }
func BenchmarkWithin_100000_r5(b *testing.B)  { benchWithin(b, 100000, 5) }
func BenchmarkWithin_100000_r10(b *testing.B) { benchWithin(b, 100000, 10) }

func benchNearest(b *testing.B, n, k int) {
	b.Helper()
	ix, err := BulkLoad(generateBenchEntries(n, 3), DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	pts := generateBenchPoints(1024, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ix.Nearest(pts[i%len(pts)], k); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNearest_10000_k1(b *testing.B)   { benchNearest(b, 10000, 1) }
func BenchmarkNearest_10000_k32(b *testing.B)  { benchNearest(b, 10000, 32) }
func BenchmarkNearest_100000_k32(b *testing.B) { benchNearest(b, 100000, 32) }

// --- Batch queries: sequential vs parallel ---

func benchBatchWithin(b *testing.B, workers int) {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Workers = workers
	ix, err := BulkLoad(generateBenchEntries(50000, 3), cfg)
	if err != nil {
		b.Fatal(err)
	}
	centers := generateBenchPoints(4096, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ix.BatchWithin(centers, 5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBatchWithin_Sequential(b *testing.B) { benchBatchWithin(b, 1) }
func BenchmarkBatchWithin_4Workers(b *testing.B)   { benchBatchWithin(b, 4) }
func BenchmarkBatchWithin_8Workers(b *testing.B)   { benchBatchWithin(b, 8) }

func BenchmarkSmoothingLengths_10000_k32(b *testing.B) {
	ix, err := BulkLoad(generateBenchEntries(10000, 3), DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := ix.SmoothingLengths(32); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Mutation under churn ---

func BenchmarkMove_10000(b *testing.B) {
	entries := generateBenchEntries(10000, 3)
	ix, err := BulkLoad(entries, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(44))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := &entries[i%len(entries)]
		e.Point[0] += rng.NormFloat64() * 0.1
		if err := ix.Move(e.ID, e.Point); err != nil {
			b.Fatal(err)
		}
	}
}
