package geom

import "math"

// Point is a position in device units.
type Point struct {
	X float64
	Y float64
}

// Frame is an axis-aligned rectangle assigned to a node by layout.
type Frame struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Offset returns the frame translated by p.
func (f Frame) Offset(p Point) Frame {
	return Frame{X: f.X + p.X, Y: f.Y + p.Y, Width: f.Width, Height: f.Height}
}

// Origin returns the top-left corner.
func (f Frame) Origin() Point {
	return Point{X: f.X, Y: f.Y}
}

// Center returns the midpoint of the frame, the pivot for transforms.
func (f Frame) Center() Point {
	return Point{X: f.X + f.Width/2, Y: f.Y + f.Height/2}
}

// Inset shrinks the frame by d on every side.
func (f Frame) Inset(d float64) Frame {
	return Frame{X: f.X + d, Y: f.Y + d, Width: f.Width - 2*d, Height: f.Height - 2*d}
}

// Side indices, clockwise from the top.
const (
	Top = iota
	Right
	Bottom
	Left
)

// Corner indices. Corner i is the corner where side i begins when the
// rectangle is traced clockwise.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Sides holds one value per side (or per corner) in clockwise order.
type Sides [4]float64

// SidesOf returns Sides with every entry set to v.
func SidesOf(v float64) Sides {
	return Sides{v, v, v, v}
}

// Uniform reports whether all four entries are equal.
func (s Sides) Uniform() bool {
	return s[0] == s[1] && s[0] == s[2] && s[0] == s[3]
}

// Scale multiplies every entry by k.
func (s Sides) Scale(k float64) Sides {
	return Sides{s[0] * k, s[1] * k, s[2] * k, s[3] * k}
}

// Max returns the largest entry.
func (s Sides) Max() float64 {
	return math.Max(math.Max(s[0], s[1]), math.Max(s[2], s[3]))
}

// ScaleRadii applies the CSS corner-overlap rule: if two radii that share a
// side add up to more than that side's length, every radius is reduced by the
// same factor so the worst side fits exactly.
func ScaleRadii(radii Sides, width, height float64) Sides {
	ratio := 1.0
	check := func(sum, length float64) {
		if sum <= 0 {
			return
		}
		if length <= 0 {
			ratio = math.Inf(1)
			return
		}
		ratio = math.Max(ratio, sum/length)
	}
	check(radii[TopLeft]+radii[TopRight], width)
	check(radii[BottomLeft]+radii[BottomRight], width)
	check(radii[TopLeft]+radii[BottomLeft], height)
	check(radii[TopRight]+radii[BottomRight], height)

	if ratio <= 1 {
		return radii
	}
	if math.IsInf(ratio, 1) {
		return Sides{}
	}
	return radii.Scale(1 / ratio)
}
