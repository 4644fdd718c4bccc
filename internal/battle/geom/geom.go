// Package geom is centre-based axis-aligned rectangle math.
package geom

import "math"

// Bounds is a rectangle centred on (X, Y).
type Bounds struct {
	X, Y, W, H float64
}

// Shape is anything that occupies a rectangle on the field.
type Shape interface {
	Bounds() Bounds
}

func (b Bounds) Left() float64   { return b.X - b.W/2 }
func (b Bounds) Right() float64  { return b.X + b.W/2 }
func (b Bounds) Top() float64    { return b.Y - b.H/2 }
func (b Bounds) Bottom() float64 { return b.Y + b.H/2 }

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.Left() && x <= b.Right() && y >= b.Top() && y <= b.Bottom()
}

// Within reports whether b lies fully inside outer.
func (b Bounds) Within(outer Bounds) bool {
	return b.Left() >= outer.Left() && b.Right() <= outer.Right() &&
		b.Top() >= outer.Top() && b.Bottom() <= outer.Bottom()
}

// Intersects is the strict AABB overlap test. Rectangles that only touch
// along an edge do not intersect.
func Intersects(a, b Bounds) bool {
	return a.Left() < b.Right() && a.Right() > b.Left() &&
		a.Top() < b.Bottom() && a.Bottom() > b.Top()
}

// IntersectsAny reports whether b overlaps any item, stopping at the first hit.
func IntersectsAny[T Shape](b Bounds, items []T) bool {
	for _, it := range items {
		if Intersects(b, it.Bounds()) {
			return true
		}
	}
	return false
}

// Field returns the battlefield rectangle with its top-left corner at the origin.
func Field(width, height float64) Bounds {
	return Bounds{X: width / 2, Y: height / 2, W: width, H: height}
}

// Clamp moves the centre (x, y) of a w by h rectangle so the whole
// rectangle stays inside field.
func Clamp(x, y, w, h float64, field Bounds) (float64, float64) {
	return clamp1(x, field.Left()+w/2, field.Right()-w/2),
		clamp1(y, field.Top()+h/2, field.Bottom()-h/2)
}

func clamp1(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

// Vec is a 2D vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Unit returns v scaled to length one, and false for the zero vector.
func (v Vec) Unit() (Vec, bool) {
	l := v.Len()
	if l == 0 || math.IsInf(l, 0) || math.IsNaN(l) {
		return Vec{}, false
	}
	return Vec{X: v.X / l, Y: v.Y / l}, true
}

// Dist is the Euclidean distance between two points.
func Dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// Finite reports whether every value is a finite float.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
