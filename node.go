package pointindex

// nodeKind tags an arena slot. The zero value marks a freed slot so that a
// stale child index is caught as a structural fault instead of being
// traversed.
type nodeKind uint8

const (
	freeKind nodeKind = iota
	leafKind
	interiorKind
)

func (k nodeKind) String() string {
	switch k {
	case leafKind:
		return "leaf"
	case interiorKind:
		return "interior"
	default:
		return "free"
	}
}

// node is one slot of the index arena. Leaves hold entries, interior nodes
// hold arena indices of their children. box encloses everything below.
type node struct {
	kind     nodeKind
	box      Box
	parent   int // -1 for the root
	children []int
	entries  []Entry
}

// size is the occupancy that MinEntries and MaxEntries bound.
func (n *node) size() int {
	if n.kind == interiorKind {
		return len(n.children)
	}
	return len(n.entries)
}

// newNode takes a slot from the free list or grows the arena. Callers must
// not hold pointers into ix.nodes across this call.
func (ix *Index) newNode(kind nodeKind, parent int) int {
	n := node{kind: kind, box: emptyBox(), parent: parent}
	if k := len(ix.free); k > 0 {
		id := ix.free[k-1]
		ix.free = ix.free[:k-1]
		ix.nodes[id] = n
		return id
	}
	ix.nodes = append(ix.nodes, n)
	return len(ix.nodes) - 1
}

func (ix *Index) freeNode(id int) {
	ix.nodes[id] = node{}
	ix.free = append(ix.free, id)
}

// computeBox returns the tight envelope of node id's contents.
func (ix *Index) computeBox(id int) Box {
	n := &ix.nodes[id]
	b := emptyBox()
	if n.kind == interiorKind {
		for _, c := range n.children {
			b = b.Union(ix.nodes[c].box)
		}
		return b
	}
	for _, e := range n.entries {
		b = b.Extend(e.Point)
	}
	return b
}

// tighten recomputes envelopes from id upward, stopping at the first
// ancestor whose box does not change.
func (ix *Index) tighten(id int) {
	for id >= 0 {
		b := ix.computeBox(id)
		if b == ix.nodes[id].box {
			return
		}
		ix.nodes[id].box = b
		id = ix.nodes[id].parent
	}
}

// collect appends every entry in the subtree at id to dst and frees the
// subtree's slots.
func (ix *Index) collect(id int, dst []Entry) []Entry {
	n := ix.nodes[id]
	if n.kind == interiorKind {
		for _, c := range n.children {
			dst = ix.collect(c, dst)
		}
	} else {
		dst = append(dst, n.entries...)
	}
	ix.freeNode(id)
	return dst
}

func (ix *Index) removeChild(parent, child int) bool {
	cs := ix.nodes[parent].children
	for i, c := range cs {
		if c == child {
			ix.nodes[parent].children = append(cs[:i], cs[i+1:]...)
			return true
		}
	}
	return false
}
