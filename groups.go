package pointindex

import (
	"cmp"
	"slices"
)

// FriendsOfFriends groups entries into connected components of the graph
// linking every pair closer than linkingLength (boundary-inclusive). Groups
// smaller than minSize are dropped. Each group lists identifiers in
// ascending order and groups are ordered by their smallest identifier.
//
// Neighbor lists are gathered in parallel; the union step runs on the
// calling goroutine.
func (ix *Index) FriendsOfFriends(linkingLength float64, minSize int) ([][]int, error) {
	if err := validateRadius("friends_of_friends", Point{}, linkingLength, ix.cfg.Dims); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := ix.entriesLocked()
	n := len(entries)
	pos := make(map[int]int, n)
	for i, e := range entries {
		pos[e.ID] = i
	}

	// links[i] holds the positions j > i linked to entry i.
	links := make([][]int, n)
	err := parallelRanges(n, ix.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			self := entries[i].ID
			err := ix.rangeLocked(ix.ball(entries[i].Point, linkingLength), func(e Entry) bool {
				if e.ID > self {
					links[i] = append(links[i], pos[e.ID])
				}
				return true
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ix.fault(err)
	}

	uf := newUnionFind(n)
	for i, js := range links {
		for _, j := range js {
			uf.union(i, j)
		}
	}

	members := make(map[int][]int)
	for i, e := range entries {
		if uf.setSize(i) < minSize {
			continue
		}
		r := uf.find(i)
		members[r] = append(members[r], e.ID)
	}
	groups := make([][]int, 0, len(members))
	for _, ids := range members {
		groups = append(groups, ids) // ascending, as entries are
	}
	slices.SortFunc(groups, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })
	return groups, nil
}
