package pointindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointBoxes(pts ...Point) []Box {
	boxes := make([]Box, len(pts))
	for i, p := range pts {
		boxes[i] = BoxOf(p)
	}
	return boxes
}

func TestSplitPlan_TwoClusters(t *testing.T) {
	boxes := pointBoxes(
		P2(10, 0), P2(0, 1), P2(11, 1), P2(1, 0), P2(10, 1),
	)
	keys := []int{0, 1, 2, 3, 4}
	order, cut := splitPlan(boxes, keys, 2, 2)

	assert.Equal(t, 2, cut)
	assert.ElementsMatch(t, []int{1, 3}, order[:cut])
	assert.ElementsMatch(t, []int{0, 2, 4}, order[cut:])
}

func TestSplitPlan_SpreadAxis(t *testing.T) {
	// y spreads further than x
	boxes := pointBoxes(P2(0, 0), P2(1, 10), P2(0.5, 20), P2(0.2, 30))
	order, cut := splitPlan(boxes, []int{0, 1, 2, 3}, 2, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, 2, cut)
}

func TestSplitPlan_CollinearTiesGoEven(t *testing.T) {
	// every cut has zero area; margin and then balance decide
	boxes := pointBoxes(P2(0, 0), P2(1, 0), P2(2, 0), P2(3, 0), P2(4, 0), P2(5, 0))
	_, cut := splitPlan(boxes, []int{0, 1, 2, 3, 4, 5}, 2, 1)
	assert.Equal(t, 3, cut)
}

func TestSplitPlan_CoincidentOrderedByKey(t *testing.T) {
	p := P3(1, 1, 1)
	boxes := pointBoxes(p, p, p, p)
	order, cut := splitPlan(boxes, []int{40, 10, 30, 20}, 3, 1)
	assert.Equal(t, []int{1, 3, 2, 0}, order)
	assert.Equal(t, 2, cut)
}

func TestSplitPlan_RespectsMinFill(t *testing.T) {
	boxes := pointBoxes(P2(0, 0), P2(100, 0), P2(101, 0), P2(102, 0), P2(103, 0))
	_, cut := splitPlan(boxes, []int{0, 1, 2, 3, 4}, 2, 2)
	assert.GreaterOrEqual(t, cut, 2)
	assert.LessOrEqual(t, cut, 3)
}

func TestSplit_GrowsRoot(t *testing.T) {
	ix, err := New(config2D(4))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, ix.Insert(Entry{ID: i, Point: P2(float64(i), 0)}))
	}
	require.NoError(t, ix.Check())

	s := ix.Stats()
	assert.Equal(t, 2, s.Height)
	assert.Equal(t, 2, s.Leaves)
	root := ix.nodes[ix.root]
	assert.Equal(t, interiorKind, root.kind)
	assert.Len(t, root.children, 2)
}

func TestSplit_InsertOrderIndependentResults(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	entries := randomEntries(rng, 300, 2)

	a, err := New(config2D(5))
	require.NoError(t, err)
	b, err := New(config2D(5))
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, a.Insert(e))
	}
	for _, i := range rng.Perm(len(entries)) {
		require.NoError(t, b.Insert(entries[i]))
	}
	require.NoError(t, a.Check())
	require.NoError(t, b.Check())

	for q := 0; q < 20; q++ {
		c := P2(rng.Float64()*100, rng.Float64()*100)
		wa, err := a.Within(c, 12)
		require.NoError(t, err)
		wb, err := b.Within(c, 12)
		require.NoError(t, err)
		assert.Equal(t, wa, wb)
	}
}

func TestSpreadAxis(t *testing.T) {
	assert.Equal(t, 0, spreadAxis(nil, 3))
	assert.Equal(t, 2, spreadAxis([]Point{P3(0, 0, 0), P3(1, 1, 5)}, 3))
	assert.Equal(t, 0, spreadAxis([]Point{P3(0, 0, 0), P3(1, 1, 5)}, 2), "z ignored in 2D")
	assert.Equal(t, 0, spreadAxis([]Point{P3(0, 0, 0), P3(1, 1, 0)}, 3), "lowest axis on ties")
}
