package pointindex

import (
	"cmp"
	"math"
	"slices"
)

// metricBall is the set of points within radius of center under metric.
// Pruning compares the metric's box lower bound against a slightly widened
// reduced radius; membership compares metric.Distance against radius, the
// same value reported in Neighbor.Distance.
type metricBall struct {
	center Point
	radius float64
	bound  float64
	metric Metric
}

func (b metricBall) Contains(p Point) bool {
	return b.metric.Distance(b.center, p) <= b.radius
}

func (b metricBall) IntersectsBox(box Box) bool {
	return b.metric.MinRdistToBox(b.center, box) <= b.bound
}

func (b metricBall) Bounds() Box {
	return Sphere{Center: b.center, Radius: b.radius}.Bounds()
}

func (ix *Index) ball(center Point, radius float64) metricBall {
	m := ix.cfg.Metric
	return metricBall{center: center, radius: radius, bound: widen(m.DistToRdist(radius)), metric: m}
}

func validateRadius(op string, center Point, radius float64, dims int) error {
	if err := ValidatePoint(center, dims); err != nil {
		return withOp(op, err)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return &Error{Op: op, Err: ErrInvalidGeometry, Detail: "radius must be finite and >= 0"}
	}
	return nil
}

// Within returns every entry whose distance from center is at most radius,
// ordered by ascending distance with ties broken by ascending identifier.
// A radius of 0 matches only points coincident with center.
func (ix *Index) Within(center Point, radius float64) ([]Neighbor, error) {
	if err := validateRadius("within", center, radius, ix.cfg.Dims); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out, err := ix.withinLocked(center, radius)
	return out, ix.fault(err)
}

func (ix *Index) withinLocked(center Point, radius float64) ([]Neighbor, error) {
	ball := ix.ball(center, radius)
	out := []Neighbor{}
	err := ix.rangeLocked(ball, func(e Entry) bool {
		out = append(out, Neighbor{ID: e.ID, Point: e.Point, Distance: ball.metric.Distance(center, e.Point)})
		return true
	})
	if err != nil {
		return nil, err
	}
	sortNeighbors(out)
	return out, nil
}

// CountWithin returns the number of entries within radius of center.
func (ix *Index) CountWithin(center Point, radius float64) (int, error) {
	if err := validateRadius("count_within", center, radius, ix.cfg.Dims); err != nil {
		return 0, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var n int
	err := ix.rangeLocked(ix.ball(center, radius), func(Entry) bool {
		n++
		return true
	})
	return n, ix.fault(err)
}

// SelectBox returns the identifiers of all entries inside b, ascending.
func (ix *Index) SelectBox(b Box) ([]int, error) {
	return ix.selectIDs("select_box", b)
}

// SelectSphere returns the identifiers of all entries inside s, ascending.
// Membership is Euclidean regardless of the configured metric.
func (ix *Index) SelectSphere(s Sphere) ([]int, error) {
	return ix.selectIDs("select_sphere", s)
}

func (ix *Index) selectIDs(op string, v Volume) ([]int, error) {
	if err := ValidateVolume(v, ix.cfg.Dims); err != nil {
		return nil, withOp(op, err)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out, err := ix.selectLocked(v)
	return out, ix.fault(err)
}

func (ix *Index) selectLocked(v Volume) ([]int, error) {
	ids := []int{}
	err := ix.rangeLocked(v, func(e Entry) bool {
		ids = append(ids, e.ID)
		return true
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func sortNeighbors(ns []Neighbor) {
	slices.SortFunc(ns, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
