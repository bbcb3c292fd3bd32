package pointindex

// Stats describes the current shape of an index.
type Stats struct {
	Entries int
	Nodes   int
	Leaves  int
	Height  int
}

// Stats returns entry and node counts and the tree height.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s := Stats{Entries: len(ix.leafOf), Height: ix.height()}
	for i := range ix.nodes {
		switch ix.nodes[i].kind {
		case leafKind:
			s.Leaves++
			s.Nodes++
		case interiorKind:
			s.Nodes++
		}
	}
	return s
}

// Check audits every tree invariant: parent and child links agree, every
// reachable slot is live, boxes enclose their contents, non-root nodes are
// non-empty and within MaxEntries, and the identifier map matches the
// leaves exactly. It returns an ErrStructuralFault describing the first
// violation found.
func (ix *Index) Check() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.fault(ix.checkLocked())
}

func (ix *Index) checkLocked() error {
	if ix.root < 0 || ix.root >= len(ix.nodes) {
		return faultf("check", "root slot %d out of range", ix.root)
	}
	if ix.nodes[ix.root].parent != -1 {
		return faultf("check", "root %d has parent %d", ix.root, ix.nodes[ix.root].parent)
	}

	seen := make(map[int]bool, len(ix.nodes))
	entries := 0
	var walk func(id, parent int) error
	walk = func(id, parent int) error {
		if id < 0 || id >= len(ix.nodes) {
			return faultf("check", "child slot %d out of range", id)
		}
		if seen[id] {
			return faultf("check", "slot %d reachable twice", id)
		}
		seen[id] = true
		n := &ix.nodes[id]
		if n.parent != parent {
			return faultf("check", "slot %d records parent %d, reached from %d", id, n.parent, parent)
		}
		if id != ix.root && (n.size() == 0 || n.size() > ix.cfg.MaxEntries) {
			return faultf("check", "slot %d has occupancy %d outside [1, %d]", id, n.size(), ix.cfg.MaxEntries)
		}
		switch n.kind {
		case leafKind:
			for _, e := range n.entries {
				if !n.box.Contains(e.Point) {
					return faultf("check", "entry %d at %s outside leaf %d box", e.ID, e.Point, id)
				}
				if leaf, ok := ix.leafOf[e.ID]; !ok || leaf != id {
					return faultf("check", "entry %d in leaf %d but mapped to %d (present %t)", e.ID, id, leaf, ok)
				}
				entries++
			}
		case interiorKind:
			if len(n.children) == 0 {
				return faultf("check", "interior node %d has no children", id)
			}
			for _, c := range n.children {
				if err := walk(c, id); err != nil {
					return err
				}
				if !n.box.ContainsBox(ix.nodes[c].box) {
					return faultf("check", "slot %d box does not enclose child %d", id, c)
				}
			}
		default:
			return faultf("check", "reachable slot %d is free", id)
		}
		return nil
	}
	if err := walk(ix.root, -1); err != nil {
		return err
	}
	if entries != len(ix.leafOf) {
		return faultf("check", "tree holds %d entries, identifier map %d", entries, len(ix.leafOf))
	}
	for _, id := range ix.free {
		if seen[id] {
			return faultf("check", "free slot %d is reachable", id)
		}
	}
	return nil
}
