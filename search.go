package pointindex

import (
	"container/heap"
	"iter"
)

// Range yields every stored entry contained in v. The traversal descends
// only into nodes whose box intersects v and runs afresh on every
// iteration.
//
// The read lock is taken for one leaf at a time and released before that
// leaf's matches are yielded, so the loop body may call any method of ix,
// including mutations. Each entry is yielded at most once. If ix changes
// while the body runs, the walk starts over on the new tree and skips
// identifiers already yielded: every entry that stays in ix and inside v
// for the whole loop is still yielded.
//
// A malformed v is reported as a single (Entry{}, err) pair. A broken tree
// yields the entries found so far followed by an ErrStructuralFault pair.
func (ix *Index) Range(v Volume) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if err := ValidateVolume(v, ix.cfg.Dims); err != nil {
			yield(Entry{}, withOp("range", err))
			return
		}
		var (
			stack   []int
			batch   []Entry
			gen     uint64
			started bool
			seen    = make(map[int]struct{})
		)
		for {
			batch = batch[:0]
			ix.mu.RLock()
			if !started || ix.gen != gen {
				stack = stack[:0]
				if len(ix.leafOf) > 0 {
					stack = append(stack, ix.root)
				}
				gen, started = ix.gen, true
			}
			var err error
			for len(stack) > 0 && len(batch) == 0 && err == nil {
				stack, _, err = ix.visitLocked(v, stack, func(e Entry) bool {
					if _, dup := seen[e.ID]; !dup {
						batch = append(batch, e)
					}
					return true
				})
			}
			ix.mu.RUnlock()

			for _, e := range batch {
				seen[e.ID] = struct{}{}
				if !yield(e, nil) {
					return
				}
			}
			if err != nil {
				yield(Entry{}, ix.fault(err))
				return
			}
			if len(stack) == 0 {
				return
			}
		}
	}
}

// Search collects the entries contained in v, in traversal order.
func (ix *Index) Search(v Volume) ([]Entry, error) {
	var out []Entry
	for e, err := range ix.Range(v) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// rangeLocked walks the tree depth-first in child order, calling fn for
// each contained entry until fn returns false.
func (ix *Index) rangeLocked(v Volume, fn func(Entry) bool) error {
	if len(ix.leafOf) == 0 {
		return nil
	}
	stack := []int{ix.root}
	for len(stack) > 0 {
		var (
			more bool
			err  error
		)
		stack, more, err = ix.visitLocked(v, stack, fn)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

// visitLocked pops the top of stack. A leaf passes its entries contained
// in v to fn; an interior node pushes the children whose boxes intersect v,
// first child on top. It reports false once fn does.
func (ix *Index) visitLocked(v Volume, stack []int, fn func(Entry) bool) ([]int, bool, error) {
	id := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if id < 0 || id >= len(ix.nodes) {
		return stack, false, faultf("range", "child slot %d out of range", id)
	}
	n := &ix.nodes[id]
	switch n.kind {
	case leafKind:
		for _, e := range n.entries {
			if v.Contains(e.Point) && !fn(e) {
				return stack, false, nil
			}
		}
	case interiorKind:
		if len(n.children) == 0 {
			return stack, false, faultf("range", "interior node %d has no children", id)
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			c := n.children[i]
			if c >= 0 && c < len(ix.nodes) && ix.nodes[c].kind != freeKind && !v.IntersectsBox(ix.nodes[c].box) {
				continue
			}
			stack = append(stack, c)
		}
	default:
		return stack, false, faultf("range", "traversal reached freed slot %d", id)
	}
	return stack, true, nil
}

// Nearest returns up to k entries closest to p under the index metric,
// ordered by ascending distance with ties broken by ascending identifier.
// k larger than Len returns every entry; k <= 0 returns none.
func (ix *Index) Nearest(p Point, k int) ([]Neighbor, error) {
	if err := ValidatePoint(p, ix.cfg.Dims); err != nil {
		return nil, withOp("nearest", err)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out, err := ix.nearestLocked(p, k)
	return out, ix.fault(err)
}

// nearestLocked is a best-first search over a single queue holding both
// nodes, keyed by the lower bound of their distance to p, and entries,
// keyed by their reduced distance. A node is always expanded before an
// entry with the same key.
//
// Distinct reduced distances can round to the same Distance, so once k
// entries are out the search keeps draining the queue up to the widened
// k-th key and collects entries whose Distance equals the k-th one; the
// final order is by Distance, then identifier.
func (ix *Index) nearestLocked(p Point, k int) ([]Neighbor, error) {
	if k <= 0 || len(ix.leafOf) == 0 {
		return []Neighbor{}, nil
	}
	k = min(k, len(ix.leafOf))
	metric := ix.cfg.Metric

	out := make([]Neighbor, 0, k)
	var limit float64
	q := &searchQueue{{rdist: metric.MinRdistToBox(p, ix.nodes[ix.root].box), node: ix.root}}
	for q.Len() > 0 {
		if len(out) >= k && (*q)[0].rdist > limit {
			break
		}
		it := heap.Pop(q).(searchItem)
		if !it.isNode() {
			nb := Neighbor{ID: it.entry.ID, Point: it.entry.Point, Distance: metric.Distance(p, it.entry.Point)}
			switch {
			case len(out) < k:
				out = append(out, nb)
				if len(out) == k {
					limit = widen(it.rdist)
				}
			case nb.Distance == out[k-1].Distance:
				out = append(out, nb)
			}
			continue
		}
		if it.node >= len(ix.nodes) {
			return nil, faultf("nearest", "child slot %d out of range", it.node)
		}
		n := &ix.nodes[it.node]
		switch n.kind {
		case leafKind:
			for _, e := range n.entries {
				heap.Push(q, searchItem{rdist: metric.ReducedDistance(p, e.Point), node: -1, entry: e})
			}
		case interiorKind:
			if len(n.children) == 0 {
				return nil, faultf("nearest", "interior node %d has no children", it.node)
			}
			for _, c := range n.children {
				if c < 0 || c >= len(ix.nodes) {
					return nil, faultf("nearest", "child slot %d out of range", c)
				}
				heap.Push(q, searchItem{rdist: metric.MinRdistToBox(p, ix.nodes[c].box), node: c})
			}
		default:
			return nil, faultf("nearest", "traversal reached freed slot %d", it.node)
		}
	}
	if len(out) < k {
		return nil, faultf("nearest", "found %d of %d stored entries", len(out), k)
	}
	sortNeighbors(out)
	return out[:k], nil
}

// --- min-heap for best-first search ---

type searchItem struct {
	rdist float64
	node  int // -1 for entries
	entry Entry
}

func (it searchItem) isNode() bool { return it.node >= 0 }

// searchQueue is a min-heap of searchItem ordered by reduced distance,
// nodes before entries on equal keys, then by identifier or slot.
type searchQueue []searchItem

func (h searchQueue) Len() int { return len(h) }
func (h searchQueue) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.rdist != b.rdist {
		return a.rdist < b.rdist
	}
	if a.isNode() != b.isNode() {
		return a.isNode()
	}
	if a.isNode() {
		return a.node < b.node
	}
	return a.entry.ID < b.entry.ID
}
func (h searchQueue) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *searchQueue) Push(x any)   { *h = append(*h, x.(searchItem)) }
func (h *searchQueue) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
