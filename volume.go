package pointindex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Volume is a query shape. Box and Sphere are the built-in volumes; other
// shapes may implement Volume as long as IntersectsBox never returns false
// for a box that holds a point the shape contains.
type Volume interface {
	// Contains reports whether p lies inside or on the boundary.
	Contains(p Point) bool
	// IntersectsBox reports whether the volume shares at least one point
	// with b, boundary-inclusive.
	IntersectsBox(b Box) bool
	// Bounds returns the smallest box enclosing the volume.
	Bounds() Box
}

// Box is an axis-aligned box. A valid box has Min <= Max per component.
type Box struct {
	Min, Max Point
}

// Sphere is a ball of Radius around Center. For 2D indexes it is a disc.
type Sphere struct {
	Center Point
	Radius float64
}

var (
	_ Volume = Box{}
	_ Volume = Sphere{}
)

// emptyBox is the identity for Union: it contains nothing and intersects
// nothing.
func emptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: Point{inf, inf, inf}, Max: Point{-inf, -inf, -inf}}
}

// BoxOf returns the degenerate box holding only p.
func BoxOf(p Point) Box { return Box{Min: p, Max: p} }

// NewBox returns the box spanned by two corners given in any order.
func NewBox(a, b Point) Box {
	var box Box
	for d := range a {
		box.Min[d] = math.Min(a[d], b[d])
		box.Max[d] = math.Max(a[d], b[d])
	}
	return box
}

// IsEmpty reports whether b contains no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b Box) Contains(p Point) bool {
	return b.Min[0] <= p[0] && p[0] <= b.Max[0] &&
		b.Min[1] <= p[1] && p[1] <= b.Max[1] &&
		b.Min[2] <= p[2] && p[2] <= b.Max[2]
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.Min[0] <= o.Min[0] && o.Max[0] <= b.Max[0] &&
		b.Min[1] <= o.Min[1] && o.Max[1] <= b.Max[1] &&
		b.Min[2] <= o.Min[2] && o.Max[2] <= b.Max[2]
}

func (b Box) IntersectsBox(o Box) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1] &&
		b.Min[2] <= o.Max[2] && o.Min[2] <= b.Max[2]
}

func (b Box) Bounds() Box { return b }

// Union returns the smallest box enclosing b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: Point{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1]), math.Min(b.Min[2], o.Min[2])},
		Max: Point{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1]), math.Max(b.Max[2], o.Max[2])},
	}
}

// Extend returns the smallest box enclosing b and p.
func (b Box) Extend(p Point) Box {
	return Box{
		Min: Point{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1]), math.Min(b.Min[2], p[2])},
		Max: Point{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1]), math.Max(b.Max[2], p[2])},
	}
}

// Center returns the midpoint of b.
func (b Box) Center() Point {
	return Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2, (b.Min[2] + b.Max[2]) / 2}
}

// Content is the area (dims == 2) or volume (dims == 3) of b.
func (b Box) Content(dims int) float64 {
	if b.IsEmpty() {
		return 0
	}
	c := 1.0
	for d := 0; d < dims; d++ {
		c *= b.Max[d] - b.Min[d]
	}
	return c
}

// Margin is the sum of the edge lengths of b over the first dims axes.
func (b Box) Margin(dims int) float64 {
	if b.IsEmpty() {
		return 0
	}
	var m float64
	for d := 0; d < dims; d++ {
		m += b.Max[d] - b.Min[d]
	}
	return m
}

// R3 converts b to a gonum r3 box.
func (b Box) R3() r3.Box { return r3.Box{Min: b.Min.Vec(), Max: b.Max.Vec()} }

// Validate checks b for finite corners, Min <= Max, and a zero z extent in
// 2D.
func (b Box) Validate(dims int) error {
	if err := ValidatePoint(b.Min, dims); err != nil {
		return err
	}
	if err := ValidatePoint(b.Max, dims); err != nil {
		return err
	}
	for d := range b.Min {
		if b.Min[d] > b.Max[d] {
			return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "box min " + b.Min.String() + " exceeds max " + b.Max.String()}
		}
	}
	return nil
}

// Contains compares the Euclidean distance itself against the radius, so a
// point reported at exactly Radius is inside.
func (s Sphere) Contains(p Point) bool {
	return Distance(s.Center, p) <= s.Radius
}

func (s Sphere) IntersectsBox(b Box) bool {
	if b.IsEmpty() {
		return false
	}
	return sqDistToBox(s.Center, b) <= widen(s.Radius*s.Radius)
}

func (s Sphere) Bounds() Box {
	r := s.Radius
	c := s.Center
	return Box{
		Min: Point{c[0] - r, c[1] - r, c[2] - r},
		Max: Point{c[0] + r, c[1] + r, c[2] + r},
	}
}

// Union returns the smallest sphere enclosing s and o.
func (s Sphere) Union(o Sphere) Sphere {
	d := Distance(s.Center, o.Center)
	if d+o.Radius <= s.Radius {
		return s
	}
	if d+s.Radius <= o.Radius {
		return o
	}
	r := (d + s.Radius + o.Radius) / 2
	t := (r - s.Radius) / d
	c := r3.Add(s.Center.Vec(), r3.Scale(t, r3.Sub(o.Center.Vec(), s.Center.Vec())))
	return Sphere{Center: PointFromVec(c), Radius: r}
}

// Validate checks s for a finite center and a finite, non-negative radius.
func (s Sphere) Validate(dims int) error {
	if err := ValidatePoint(s.Center, dims); err != nil {
		return err
	}
	if math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) || s.Radius < 0 {
		return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "sphere radius must be finite and >= 0"}
	}
	return nil
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(sqDist(a, b))
}

// Contains reports whether p lies within or on the boundary of v.
func Contains(v Volume, p Point) bool { return v.Contains(p) }

// Intersects reports whether a and b share at least one point,
// boundary-inclusive. Pairs of boxes and spheres are exact, and a custom
// volume paired with a Box is answered by its IntersectsBox. Any other pair
// with a custom volume compares bounds only, so the result may be a false
// positive: true for volumes that share no point.
func Intersects(a, b Volume) bool {
	switch av := a.(type) {
	case Box:
		return b.IntersectsBox(av)
	case Sphere:
		switch bv := b.(type) {
		case Sphere:
			return Distance(av.Center, bv.Center) <= av.Radius+bv.Radius
		case Box:
			return av.IntersectsBox(bv)
		}
	}
	if bb, ok := b.(Box); ok {
		return a.IntersectsBox(bb)
	}
	return a.IntersectsBox(b.Bounds()) && b.IntersectsBox(a.Bounds())
}

// Union returns the smallest volume of the same kind enclosing a and b.
// Mixed kinds are joined as boxes.
func Union(a, b Volume) Volume {
	if as, ok := a.(Sphere); ok {
		if bs, ok := b.(Sphere); ok {
			return as.Union(bs)
		}
	}
	return a.Bounds().Union(b.Bounds())
}

// ValidateVolume checks v against the index dimensionality. Custom volumes
// are checked through their bounds.
func ValidateVolume(v Volume, dims int) error {
	switch vv := v.(type) {
	case Box:
		return vv.Validate(dims)
	case Sphere:
		return vv.Validate(dims)
	case nil:
		return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "nil volume"}
	}
	b := v.Bounds()
	for d := range b.Min {
		if math.IsNaN(b.Min[d]) || math.IsNaN(b.Max[d]) || b.Min[d] > b.Max[d] {
			return &Error{Op: "validate", Err: ErrInvalidGeometry, Detail: "malformed volume bounds"}
		}
	}
	return nil
}

// pruneSlack widens reduced-distance bounds used for pruning, so that
// rounding in d*d or d^p never discards a subtree holding a point whose
// distance is exactly the query radius. Membership is decided separately on
// the distance itself.
const pruneSlack = 1e-12

func widen(rdist float64) float64 { return rdist + rdist*pruneSlack }

func sqDist(a, b Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// sqDistToBox is the squared Euclidean distance from p to the nearest point
// of b; zero when p is inside.
func sqDistToBox(p Point, b Box) float64 {
	var sum float64
	for d := range p {
		var g float64
		if p[d] < b.Min[d] {
			g = b.Min[d] - p[d]
		} else if p[d] > b.Max[d] {
			g = p[d] - b.Max[d]
		}
		sum += g * g
	}
	return sum
}
