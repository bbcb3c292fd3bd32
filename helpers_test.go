package pointindex

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const floatTol = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// randomEntries returns n entries with identifiers 0..n-1 scattered
// uniformly over [0, 100)^dims.
func randomEntries(rng *rand.Rand, n, dims int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		var p Point
		for d := 0; d < dims; d++ {
			p[d] = rng.Float64() * 100
		}
		entries[i] = Entry{ID: i, Point: p}
	}
	return entries
}

// gridEntries returns side^2 entries on the integer lattice, which puts
// plenty of ties on axes and distances.
func gridEntries(side int) []Entry {
	var entries []Entry
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			entries = append(entries, Entry{ID: x*side + y, Point: P2(float64(x), float64(y))})
		}
	}
	return entries
}

func mustBulkLoad(t testing.TB, entries []Entry, cfg Config) *Index {
	t.Helper()
	ix, err := BulkLoad(entries, cfg)
	require.NoError(t, err)
	return ix
}

func config2D(maxEntries int) Config {
	cfg := DefaultConfig()
	cfg.Dims = 2
	cfg.MaxEntries = maxEntries
	cfg.MinEntries = max(1, min(3, maxEntries/2))
	return cfg
}

// bruteWithin is the linear-scan answer to Within.
func bruteWithin(entries []Entry, m Metric, center Point, radius float64) []Neighbor {
	out := []Neighbor{}
	for _, e := range entries {
		if d := m.Distance(center, e.Point); d <= radius {
			out = append(out, Neighbor{ID: e.ID, Point: e.Point, Distance: d})
		}
	}
	sortNeighbors(out)
	return out
}

// bruteNearest is the linear-scan answer to Nearest.
func bruteNearest(entries []Entry, m Metric, p Point, k int) []Neighbor {
	out := make([]Neighbor, len(entries))
	for i, e := range entries {
		out[i] = Neighbor{ID: e.ID, Point: e.Point, Distance: m.Distance(p, e.Point)}
	}
	sortNeighbors(out)
	return out[:max(0, min(k, len(out)))]
}

func bruteSelect(entries []Entry, v Volume) []int {
	ids := []int{}
	for _, e := range entries {
		if v.Contains(e.Point) {
			ids = append(ids, e.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func neighborIDs(ns []Neighbor) []int {
	ids := make([]int, len(ns))
	for i, n := range ns {
		ids[i] = n.ID
	}
	return ids
}

func entryIDs(es []Entry) []int {
	ids := make([]int, len(es))
	for i, e := range es {
		ids[i] = e.ID
	}
	slices.Sort(ids)
	return ids
}
