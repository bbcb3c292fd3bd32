package pointindex

import (
	"fmt"
	"math"
	"strings"
)

// Metric provides distance computation with a reduced distance for tree
// pruning (e.g., squared Euclidean skips sqrt). ReducedDistance must be a
// monotone function of Distance, and MinRdistToBox must never exceed the
// reduced distance from p to any point inside b.
type Metric interface {
	Name() string
	Distance(a, b Point) float64
	ReducedDistance(a, b Point) float64
	DistToRdist(d float64) float64
	RdistToDist(r float64) float64
	MinRdistToBox(p Point, b Box) float64
}

// EuclideanMetric computes the Euclidean (L2) distance.
// ReducedDistance returns squared Euclidean distance (skips sqrt).
type EuclideanMetric struct{}

func (EuclideanMetric) Name() string { return "euclidean" }

func (EuclideanMetric) Distance(a, b Point) float64 { return Distance(a, b) }

func (EuclideanMetric) ReducedDistance(a, b Point) float64 { return sqDist(a, b) }
func (EuclideanMetric) DistToRdist(d float64) float64      { return d * d }
func (EuclideanMetric) RdistToDist(r float64) float64      { return math.Sqrt(r) }

func (EuclideanMetric) MinRdistToBox(p Point, b Box) float64 {
	if b.IsEmpty() {
		return math.Inf(1)
	}
	return sqDistToBox(p, b)
}

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Name() string { return "manhattan" }

func (ManhattanMetric) Distance(a, b Point) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func (m ManhattanMetric) ReducedDistance(a, b Point) float64 { return m.Distance(a, b) }
func (ManhattanMetric) DistToRdist(d float64) float64        { return d }
func (ManhattanMetric) RdistToDist(r float64) float64        { return r }

func (ManhattanMetric) MinRdistToBox(p Point, b Box) float64 {
	if b.IsEmpty() {
		return math.Inf(1)
	}
	var sum float64
	for j := range p {
		sum += axisGap(p[j], b.Min[j], b.Max[j])
	}
	return sum
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Name() string { return "chebyshev" }

func (ChebyshevMetric) Distance(a, b Point) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (m ChebyshevMetric) ReducedDistance(a, b Point) float64 { return m.Distance(a, b) }
func (ChebyshevMetric) DistToRdist(d float64) float64        { return d }
func (ChebyshevMetric) RdistToDist(r float64) float64        { return r }

func (ChebyshevMetric) MinRdistToBox(p Point, b Box) float64 {
	if b.IsEmpty() {
		return math.Inf(1)
	}
	var rdist float64
	for j := range p {
		if d := axisGap(p[j], b.Min[j], b.Max[j]); d > rdist {
			rdist = d
		}
	}
	return rdist
}

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1; validateConfig rejects smaller values.
// ReducedDistance returns sum(|a[i]-b[i]|^P) without the final root.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Name() string { return fmt.Sprintf("minkowski:%g", m.P) }

func (m MinkowskiMetric) Distance(a, b Point) float64 {
	return m.RdistToDist(m.ReducedDistance(a, b))
}

func (m MinkowskiMetric) ReducedDistance(a, b Point) float64 {
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
	}
	return sum
}

func (m MinkowskiMetric) DistToRdist(d float64) float64 { return math.Pow(d, m.P) }
func (m MinkowskiMetric) RdistToDist(r float64) float64 { return math.Pow(r, 1.0/m.P) }

func (m MinkowskiMetric) MinRdistToBox(p Point, b Box) float64 {
	if b.IsEmpty() {
		return math.Inf(1)
	}
	var rdist float64
	for j := range p {
		rdist += math.Pow(axisGap(p[j], b.Min[j], b.Max[j]), m.P)
	}
	return rdist
}

// axisGap is the distance from v to the interval [lo, hi].
func axisGap(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// MetricByName resolves the names returned by Metric.Name, so that a
// metric can be stored in configuration files and snapshots.
func MetricByName(name string) (Metric, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); {
	case n == "" || n == "euclidean":
		return EuclideanMetric{}, nil
	case n == "manhattan":
		return ManhattanMetric{}, nil
	case n == "chebyshev":
		return ChebyshevMetric{}, nil
	case strings.HasPrefix(n, "minkowski:"):
		var p float64
		if _, err := fmt.Sscanf(n, "minkowski:%g", &p); err != nil {
			return nil, fmt.Errorf("pointindex: bad minkowski metric %q: %w", name, err)
		}
		if p < 1 {
			return nil, fmt.Errorf("pointindex: minkowski P must be >= 1, got %g", p)
		}
		return MinkowskiMetric{P: p}, nil
	default:
		return nil, fmt.Errorf("pointindex: unknown metric %q", name)
	}
}
