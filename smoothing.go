package pointindex

// SmoothingLengths computes, for every stored entry, the distance to its
// k-th nearest neighbor other than itself: the adaptive smoothing length
// of an SPH particle, or the core distance of a density estimate. The
// returned slices are aligned and ordered by ascending identifier, as
// Entries.
//
// k is clamped to Len()-1. With k == 0 (or a single entry) every length is
// 0. Coincident neighbors count, so a length may be 0 for k > 0.
func (ix *Index) SmoothingLengths(k int) (ids []int, lengths []float64, err error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := ix.entriesLocked()
	n := len(entries)
	ids = make([]int, n)
	lengths = make([]float64, n)
	for i, e := range entries {
		ids[i] = e.ID
	}

	k = min(k, n-1)
	k = max(k, 0)
	if k == 0 {
		return ids, lengths, nil
	}

	err = parallelRanges(n, ix.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			// k+1 neighbors: the entry itself is among them at distance 0.
			ns, err := ix.nearestLocked(entries[i].Point, k+1)
			if err != nil {
				return err
			}
			count := 0
			for _, nb := range ns {
				if nb.ID == entries[i].ID {
					continue
				}
				count++
				if count == k {
					lengths[i] = nb.Distance
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, ix.fault(err)
	}
	return ids, lengths, nil
}
