package geom

import "math"

// CornerEllipse is the elliptical arc at one corner of a (possibly inset)
// rounded rectangle.
type CornerEllipse struct {
	X, Y   float64
	RX, RY float64
}

// Unit offsets of each corner from the frame origin, and the direction in
// which its ellipse centre moves inward.
var (
	cornerAlongX = [4]float64{0, 1, 1, 0}
	cornerAlongY = [4]float64{0, 0, 1, 1}
	cornerInX    = [4]float64{1, -1, -1, 1}
	cornerInY    = [4]float64{1, 1, -1, -1}
)

// CornerEllipseAt computes the ellipse for corner (0..3, see TopLeft) of f
// whose outer radius is radii[corner], with the two adjacent edges pulled in
// by their insets. The inset of side corner-1 comes before the corner in
// clockwise order and the inset of side corner comes after it.
//
// When an inset exceeds the radius the ellipse collapses on that axis and its
// centre is pinned to the inset edge, so the traced outline stays on the
// inset rectangle.
func CornerEllipseAt(f Frame, radii, insets Sides, corner int) CornerEllipse {
	radius := radii[corner]
	before := insets[(corner+3)%4]
	after := insets[corner]

	insetX, insetY := before, after
	if corner%2 == 1 {
		insetX, insetY = after, before
	}

	return CornerEllipse{
		RX: math.Max(radius-insetX, 0),
		RY: math.Max(radius-insetY, 0),
		X:  f.X + cornerAlongX[corner]*f.Width + cornerInX[corner]*math.Max(radius, insetX),
		Y:  f.Y + cornerAlongY[corner]*f.Height + cornerInY[corner]*math.Max(radius, insetY),
	}
}

// At returns the point at angle on the ellipse, rounded to 6 decimals.
func (c CornerEllipse) At(angle float64) Point {
	return Point{
		X: Round6(c.X + c.RX*math.Cos(angle)),
		Y: Round6(c.Y + c.RY*math.Sin(angle)),
	}
}

func (c CornerEllipse) arc(b PathBuilder, start, end float64) {
	b.Ellipse(c.X, c.Y, c.RX, c.RY, start, end)
}
