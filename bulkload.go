package pointindex

import (
	"slices"
	"sort"
)

// build replaces the tree with one packed from entries. entries must be
// validated already.
func (ix *Index) build(entries []Entry) {
	ix.reset(len(entries))
	if len(entries) == 0 {
		return
	}
	work := slices.Clone(entries)
	ix.freeNode(ix.root)
	ix.root = ix.buildSubtree(work, -1)
}

// buildSubtree packs items into a subtree under parent and returns its
// slot. A run that fits in one leaf becomes a leaf. Otherwise the run is
// cut into the fewest groups whose size fits a subtree one level shorter,
// using recursive median cuts along the axis of greatest spread.
func (ix *Index) buildSubtree(items []Entry, parent int) int {
	maxFill := ix.cfg.MaxEntries
	if len(items) <= maxFill {
		id := ix.newNode(leafKind, parent)
		leaf := slices.Clip(items)
		b := emptyBox()
		for _, e := range leaf {
			b = b.Extend(e.Point)
			ix.leafOf[e.ID] = id
		}
		ix.nodes[id].entries = leaf
		ix.nodes[id].box = b
		return id
	}

	// per is the capacity of a child subtree: the smallest power of
	// maxFill such that maxFill children of that size hold every item.
	per := maxFill
	for per*maxFill < len(items) {
		per *= maxFill
	}
	groups := (len(items) + per - 1) / per

	id := ix.newNode(interiorKind, parent)
	b := emptyBox()
	children := make([]int, 0, groups)
	for _, chunk := range ix.partition(items, groups) {
		c := ix.buildSubtree(chunk, id)
		children = append(children, c)
		b = b.Union(ix.nodes[c].box)
	}
	ix.nodes[id].children = children
	ix.nodes[id].box = b
	return id
}

// partition cuts items into groups contiguous runs of near-equal size,
// halving the group count at each level and sorting along the axis of
// greatest spread before every cut.
func (ix *Index) partition(items []Entry, groups int) [][]Entry {
	if groups <= 1 {
		return [][]Entry{items}
	}
	ix.sortByAxis(items, ix.entrySpreadAxis(items))
	left := groups / 2
	cut := len(items) * left / groups
	return append(ix.partition(items[:cut], left), ix.partition(items[cut:], groups-left)...)
}

func (ix *Index) entrySpreadAxis(items []Entry) int {
	pts := make([]Point, len(items))
	for i, e := range items {
		pts[i] = e.Point
	}
	return spreadAxis(pts, ix.cfg.Dims)
}

// sortByAxis sorts items by the given coordinate, then by identifier, so
// that the packing does not depend on the sort algorithm's stability.
func (ix *Index) sortByAxis(items []Entry, axis int) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Point[axis], items[j].Point[axis]
		if a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
}

// height returns the number of levels from the root to the deepest leaf.
func (ix *Index) height() int {
	var walk func(id int) int
	walk = func(id int) int {
		n := &ix.nodes[id]
		if n.kind != interiorKind {
			return 1
		}
		h := 0
		for _, c := range n.children {
			h = max(h, walk(c))
		}
		return h + 1
	}
	return walk(ix.root)
}
