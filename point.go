package pointindex

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a coordinate vector. 2D points keep their third component at
// zero. Points are values; copying one never aliases index storage.
type Point [3]float64

// P2 returns a 2D point.
func P2(x, y float64) Point { return Point{x, y, 0} }

// P3 returns a 3D point.
func P3(x, y, z float64) Point { return Point{x, y, z} }

// Vec converts p to a gonum r3 vector.
func (p Point) Vec() r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }

// PointFromVec converts a gonum r3 vector to a Point.
func PointFromVec(v r3.Vec) Point { return Point{v.X, v.Y, v.Z} }

func (p Point) String() string {
	return "(" + strconv.FormatFloat(p[0], 'g', -1, 64) +
		"," + strconv.FormatFloat(p[1], 'g', -1, 64) +
		"," + strconv.FormatFloat(p[2], 'g', -1, 64) + ")"
}

// Finite reports whether every component of p is a finite number.
func (p Point) Finite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ValidatePoint checks that p is finite and, for dims == 2, that its third
// component is zero. The hot-path geometry functions do not validate; use
// this when the input comes from outside.
func ValidatePoint(p Point, dims int) error {
	if !p.Finite() {
		return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "non-finite coordinate " + p.String()}
	}
	if dims == 2 && p[2] != 0 {
		return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "2D point with non-zero z " + p.String()}
	}
	return nil
}

// Entry is a point stored in the index together with the caller's
// identifier, typically a particle index into an external array.
type Entry struct {
	ID    int
	Point Point
}

// Neighbor is a query hit: the identifier and position of a stored entry
// and its distance from the query point under the index metric.
type Neighbor struct {
	ID       int
	Point    Point
	Distance float64
}
