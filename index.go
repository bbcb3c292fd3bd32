package pointindex

import (
	"cmp"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// Index is a dynamic bounding-box tree over a set of entries.
//
// Nodes live in an arena and refer to each other by slot index; a separate
// map from identifier to leaf slot makes removal independent of tree
// depth. All methods are safe for concurrent use: queries share a read lock
// and mutations take the write lock for their full duration.
type Index struct {
	mu     sync.RWMutex
	cfg    Config
	log    *log.Logger
	nodes  []node
	free   []int
	root   int
	leafOf map[int]int // identifier → leaf slot
	gen    uint64      // bumped by every mutation, under the write lock
}

// New returns an empty index.
func New(cfg Config) (*Index, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	ix := &Index{cfg: cfg, log: cfg.Logger}
	ix.reset(0)
	return ix, nil
}

// BulkLoad builds a balanced index from entries. Entries are partitioned
// recursively along the axis of greatest spread; the result depends only on
// the input and cfg. Either every entry is loaded or an error is returned.
func BulkLoad(entries []Entry, cfg Config) (*Index, error) {
	ix, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := ix.validateEntries("bulk_load", entries); err != nil {
		return nil, err
	}
	ix.build(entries)
	ix.log.Debug("bulk load", "entries", len(entries), "nodes", len(ix.nodes), "height", ix.height())
	return ix, nil
}

// Reload replaces the contents of ix with entries. Readers see either the
// old tree or the new one, never a mix. On error ix is unchanged.
func (ix *Index) Reload(entries []Entry) error {
	if err := ix.validateEntries("reload", entries); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	ix.build(entries)
	ix.log.Debug("reload", "entries", len(entries), "nodes", len(ix.nodes), "height", ix.height())
	return nil
}

func (ix *Index) validateEntries(op string, entries []Entry) error {
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if err := ValidatePoint(e.Point, ix.cfg.Dims); err != nil {
			err := withOp(op, err).(*Error)
			err.ID, err.HasID = e.ID, true
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return idError(op, e.ID, ErrDuplicateIdentifier)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func (ix *Index) reset(capacity int) {
	ix.nodes = ix.nodes[:0]
	ix.free = nil
	ix.leafOf = make(map[int]int, capacity)
	ix.root = ix.newNode(leafKind, -1)
}

// Config returns the effective configuration, with defaults applied.
func (ix *Index) Config() Config { return ix.cfg }

// Dims returns the dimensionality of stored points.
func (ix *Index) Dims() int { return ix.cfg.Dims }

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.leafOf)
}

// Bounds returns the envelope of all stored points. ok is false when the
// index is empty.
func (ix *Index) Bounds() (b Box, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.leafOf) == 0 {
		return Box{}, false
	}
	return ix.nodes[ix.root].box, true
}

// Get returns the entry stored under id.
func (ix *Index) Get(id int) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, _, ok := ix.lookup(id)
	return e, ok
}

// lookup finds id in its leaf. A map hit whose leaf does not hold the
// entry is reported as pos == -1 with ok true; callers treat it as a fault.
func (ix *Index) lookup(id int) (e Entry, pos int, ok bool) {
	leaf, ok := ix.leafOf[id]
	if !ok {
		return Entry{}, -1, false
	}
	if leaf < 0 || leaf >= len(ix.nodes) || ix.nodes[leaf].kind != leafKind {
		return Entry{}, -1, true
	}
	for i, e := range ix.nodes[leaf].entries {
		if e.ID == id {
			return e, i, true
		}
	}
	return Entry{}, -1, true
}

// Entries returns every stored entry in ascending identifier order. Passing
// the result to BulkLoad reproduces an index with identical query results.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entriesLocked()
}

func (ix *Index) entriesLocked() []Entry {
	out := make([]Entry, 0, len(ix.leafOf))
	for i := range ix.nodes {
		if ix.nodes[i].kind == leafKind {
			out = append(out, ix.nodes[i].entries...)
		}
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Insert adds e. It fails with ErrDuplicateIdentifier if e.ID is present
// and with ErrInvalidGeometry if e.Point is not valid for the index; in
// both cases the index is unchanged.
func (ix *Index) Insert(e Entry) error {
	if err := ValidatePoint(e.Point, ix.cfg.Dims); err != nil {
		return withOp("insert", err)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	if _, dup := ix.leafOf[e.ID]; dup {
		return idError("insert", e.ID, ErrDuplicateIdentifier)
	}
	return ix.fault(ix.insertEntry(e))
}

// insertEntry descends to the leaf needing least enlargement, appends e
// and splits overfull nodes on the way back up.
func (ix *Index) insertEntry(e Entry) error {
	leaf, err := ix.chooseLeaf(e.Point)
	if err != nil {
		return err
	}
	ix.nodes[leaf].entries = append(ix.nodes[leaf].entries, e)
	ix.leafOf[e.ID] = leaf
	for id := leaf; id >= 0; id = ix.nodes[id].parent {
		ix.nodes[id].box = ix.nodes[id].box.Extend(e.Point)
	}
	for id := leaf; id >= 0 && ix.nodes[id].size() > ix.cfg.MaxEntries; {
		id = ix.split(id)
	}
	return nil
}

// chooseLeaf picks, at each interior node, the child whose box grows the
// least to include p; ties go to the smaller resulting box, then to the
// lower child position.
func (ix *Index) chooseLeaf(p Point) (int, error) {
	dims := ix.cfg.Dims
	id := ix.root
	for ix.nodes[id].kind == interiorKind {
		children := ix.nodes[id].children
		if len(children) == 0 {
			return -1, faultf("insert", "interior node %d has no children", id)
		}
		best := -1
		var bestEnl, bestContent float64
		for _, c := range children {
			if c < 0 || c >= len(ix.nodes) || ix.nodes[c].kind == freeKind {
				return -1, faultf("insert", "node %d references freed slot %d", id, c)
			}
			cb := ix.nodes[c].box
			grown := cb.Extend(p)
			content := grown.Content(dims)
			enl := content - cb.Content(dims)
			if best < 0 || enl < bestEnl || (enl == bestEnl && content < bestContent) {
				best, bestEnl, bestContent = c, enl, content
			}
		}
		id = best
	}
	if ix.nodes[id].kind != leafKind {
		return -1, faultf("insert", "descent reached %s slot %d", ix.nodes[id].kind, id)
	}
	return id, nil
}

// Remove deletes the entry stored under id. It returns false, without
// error, when id is absent. Underfull nodes left behind are dissolved and
// their entries reinserted.
func (ix *Index) Remove(id int) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	removed, err := ix.removeEntry("remove", id)
	return removed, ix.fault(err)
}

func (ix *Index) removeEntry(op string, id int) (bool, error) {
	_, pos, ok := ix.lookup(id)
	if !ok {
		return false, nil
	}
	if pos < 0 {
		return false, faultf(op, "identifier %d maps to slot %d which does not hold it", id, ix.leafOf[id])
	}
	leaf := ix.leafOf[id]
	es := ix.nodes[leaf].entries
	ix.nodes[leaf].entries = append(es[:pos], es[pos+1:]...)
	delete(ix.leafOf, id)
	return true, ix.condense(op, leaf)
}

// condense walks from a leaf that lost an entry to the root, detaching
// nodes that fell below MinEntries and tightening the rest, then
// reinserts the entries of detached subtrees.
func (ix *Index) condense(op string, id int) error {
	var orphans []Entry
	for id != ix.root {
		parent := ix.nodes[id].parent
		if parent < 0 {
			return faultf(op, "non-root node %d has no parent", id)
		}
		if ix.nodes[id].size() < ix.cfg.MinEntries {
			if !ix.removeChild(parent, id) {
				return faultf(op, "node %d missing from parent %d", id, parent)
			}
			orphans = ix.collect(id, orphans)
		} else {
			ix.nodes[id].box = ix.computeBox(id)
		}
		id = parent
	}
	ix.nodes[ix.root].box = ix.computeBox(ix.root)

	for ix.nodes[ix.root].kind == interiorKind && len(ix.nodes[ix.root].children) == 1 {
		child := ix.nodes[ix.root].children[0]
		ix.freeNode(ix.root)
		ix.root = child
		ix.nodes[child].parent = -1
	}
	if ix.nodes[ix.root].kind == interiorKind && len(ix.nodes[ix.root].children) == 0 {
		ix.nodes[ix.root] = node{kind: leafKind, box: emptyBox(), parent: -1}
	}

	for _, e := range orphans {
		delete(ix.leafOf, e.ID)
		if err := ix.insertEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// Move changes the position of the entry stored under id, keeping the
// identifier. When the new point stays inside the entry's leaf box the
// tree shape is kept and only the envelopes are tightened; otherwise the
// entry is reinserted.
func (ix *Index) Move(id int, p Point) error {
	if err := ValidatePoint(p, ix.cfg.Dims); err != nil {
		return withOp("move", err)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	_, pos, ok := ix.lookup(id)
	if !ok {
		return idError("move", id, ErrNotFound)
	}
	if pos < 0 {
		return ix.fault(faultf("move", "identifier %d maps to slot %d which does not hold it", id, ix.leafOf[id]))
	}
	leaf := ix.leafOf[id]
	if ix.nodes[leaf].box.Contains(p) {
		ix.nodes[leaf].entries[pos].Point = p
		ix.tighten(leaf)
		return nil
	}
	if _, err := ix.removeEntry("move", id); err != nil {
		return ix.fault(err)
	}
	return ix.fault(ix.insertEntry(Entry{ID: id, Point: p}))
}

// fault logs structural faults before handing them back to the caller.
func (ix *Index) fault(err error) error {
	if err != nil {
		ix.log.Error("structural fault", "err", err)
	}
	return err
}
