package pointindex

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// split divides the overfull node id into itself and a new sibling placed
// right after it in the parent, creating a new root when id is the root.
// It returns the parent slot, which may now be overfull, or -1 when a new
// root was created.
func (ix *Index) split(id int) int {
	kind := ix.nodes[id].kind
	parent := ix.nodes[id].parent

	var boxes []Box
	var keys []int
	if kind == leafKind {
		for _, e := range ix.nodes[id].entries {
			boxes = append(boxes, BoxOf(e.Point))
			keys = append(keys, e.ID)
		}
	} else {
		for i, c := range ix.nodes[id].children {
			boxes = append(boxes, ix.nodes[c].box)
			keys = append(keys, i)
		}
	}
	order, cut := splitPlan(boxes, keys, ix.cfg.Dims, ix.cfg.MinEntries)

	sib := ix.newNode(kind, parent)
	if kind == leafKind {
		old := ix.nodes[id].entries
		left := make([]Entry, 0, ix.cfg.MaxEntries+1)
		right := make([]Entry, 0, ix.cfg.MaxEntries+1)
		for i, o := range order {
			if i < cut {
				left = append(left, old[o])
			} else {
				right = append(right, old[o])
				ix.leafOf[old[o].ID] = sib
			}
		}
		ix.nodes[id].entries = left
		ix.nodes[sib].entries = right
	} else {
		old := ix.nodes[id].children
		left := make([]int, 0, ix.cfg.MaxEntries+1)
		right := make([]int, 0, ix.cfg.MaxEntries+1)
		for i, o := range order {
			if i < cut {
				left = append(left, old[o])
			} else {
				right = append(right, old[o])
				ix.nodes[old[o]].parent = sib
			}
		}
		ix.nodes[id].children = left
		ix.nodes[sib].children = right
	}
	ix.nodes[id].box = ix.computeBox(id)
	ix.nodes[sib].box = ix.computeBox(sib)

	if parent < 0 {
		root := ix.newNode(interiorKind, -1)
		ix.nodes[root].children = []int{id, sib}
		ix.nodes[root].box = ix.nodes[id].box.Union(ix.nodes[sib].box)
		ix.nodes[id].parent = root
		ix.nodes[sib].parent = root
		ix.root = root
		return -1
	}

	cs := ix.nodes[parent].children
	at := len(cs)
	for i, c := range cs {
		if c == id {
			at = i + 1
			break
		}
	}
	ix.nodes[parent].children = append(cs[:at], append([]int{sib}, cs[at:]...)...)
	return parent
}

// splitPlan orders boxes along the axis on which their centers spread the
// most, breaking coordinate ties by key, and picks the cut that keeps at
// least minFill items per side while minimizing the summed content of the
// two halves. Remaining ties go to the smaller summed margin, then to the
// more even cut, then to the lower cut.
func splitPlan(boxes []Box, keys []int, dims, minFill int) (order []int, cut int) {
	n := len(boxes)
	centers := make([]Point, n)
	for i, b := range boxes {
		centers[i] = b.Center()
	}
	axis := spreadAxis(centers, dims)

	order = make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if centers[a][axis] != centers[b][axis] {
			return centers[a][axis] < centers[b][axis]
		}
		return keys[a] < keys[b]
	})

	prefix := make([]Box, n)
	suffix := make([]Box, n)
	acc := emptyBox()
	for i, o := range order {
		acc = acc.Union(boxes[o])
		prefix[i] = acc
	}
	acc = emptyBox()
	for i := n - 1; i >= 0; i-- {
		acc = acc.Union(boxes[order[i]])
		suffix[i] = acc
	}

	bestCost, bestMargin, bestSkew := math.Inf(1), math.Inf(1), n
	cut = n / 2
	for k := minFill; k <= n-minFill; k++ {
		l, r := prefix[k-1], suffix[k]
		cost := l.Content(dims) + r.Content(dims)
		margin := l.Margin(dims) + r.Margin(dims)
		skew := abs(n - 2*k)
		switch {
		case cost < bestCost,
			cost == bestCost && margin < bestMargin,
			cost == bestCost && margin == bestMargin && skew < bestSkew:
			bestCost, bestMargin, bestSkew, cut = cost, margin, skew, k
		}
	}
	return order, cut
}

// spreadAxis returns the axis along which pts have the greatest extent,
// the lowest such axis on ties.
func spreadAxis(pts []Point, dims int) int {
	if len(pts) == 0 {
		return 0
	}
	col := make([]float64, len(pts))
	axis := 0
	maxSpread := -1.0
	for d := 0; d < dims; d++ {
		for i, p := range pts {
			col[i] = p[d]
		}
		if spread := floats.Max(col) - floats.Min(col); spread > maxSpread {
			maxSpread = spread
			axis = d
		}
	}
	return axis
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
