package pointindex

import (
	"sync"
)

// parallelRanges splits [0, n) into contiguous ranges, one per worker, and
// runs fn on each. Ranges don't overlap, so workers writing only to their
// own slots of a shared result slice need no synchronization. The error
// of the lowest-numbered failing range is returned.
func parallelRanges(n, numWorkers int, fn func(start, end int) error) error {
	if n == 0 {
		return nil
	}
	if numWorkers <= 1 || n == 1 {
		return fn(0, n)
	}
	numWorkers = min(numWorkers, n)

	var wg sync.WaitGroup
	errs := make([]error, numWorkers)
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			errs[w] = fn(start, end)
		}(w, startRow, endRow)
	}

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// BatchWithin runs Within for every center and returns the result sets in
// input order. The whole batch observes one version of the index.
func (ix *Index) BatchWithin(centers []Point, radius float64) ([][]Neighbor, error) {
	for _, c := range centers {
		if err := validateRadius("batch_within", c, radius, ix.cfg.Dims); err != nil {
			return nil, err
		}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([][]Neighbor, len(centers))
	err := parallelRanges(len(centers), ix.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			ns, err := ix.withinLocked(centers[i], radius)
			if err != nil {
				return err
			}
			out[i] = ns
		}
		return nil
	})
	if err != nil {
		return nil, ix.fault(err)
	}
	return out, nil
}

// BatchNearest runs Nearest for every point and returns the result lists
// in input order.
func (ix *Index) BatchNearest(points []Point, k int) ([][]Neighbor, error) {
	for _, p := range points {
		if err := ValidatePoint(p, ix.cfg.Dims); err != nil {
			return nil, withOp("batch_nearest", err)
		}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([][]Neighbor, len(points))
	err := parallelRanges(len(points), ix.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			ns, err := ix.nearestLocked(points[i], k)
			if err != nil {
				return err
			}
			out[i] = ns
		}
		return nil
	})
	if err != nil {
		return nil, ix.fault(err)
	}
	return out, nil
}

// BatchSelect returns, for every volume, the ascending identifiers of the
// entries it contains, in input order.
func (ix *Index) BatchSelect(volumes []Volume) ([][]int, error) {
	for _, v := range volumes {
		if err := ValidateVolume(v, ix.cfg.Dims); err != nil {
			return nil, withOp("batch_select", err)
		}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([][]int, len(volumes))
	err := parallelRanges(len(volumes), ix.cfg.Workers, func(start, end int) error {
		for i := start; i < end; i++ {
			ids, err := ix.selectLocked(volumes[i])
			if err != nil {
				return err
			}
			out[i] = ids
		}
		return nil
	})
	if err != nil {
		return nil, ix.fault(err)
	}
	return out, nil
}
