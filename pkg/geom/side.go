package geom

import "math"

// Continuation says how the first point of a traced side joins the path
// built so far.
type Continuation uint8

const (
	// ContinueNone assumes the pen already sits on the first point.
	ContinueNone Continuation = iota
	// ContinueMove starts a new subpath at the first point.
	ContinueMove
	// ContinueLine draws a straight line to the first point.
	ContinueLine
)

func (c Continuation) String() string {
	switch c {
	case ContinueNone:
		return "none"
	case ContinueMove:
		return "move"
	case ContinueLine:
		return "line"
	}
	return "unknown"
}

// Continue applies c for the point (x, y).
func Continue(b PathBuilder, x, y float64, c Continuation) {
	switch c {
	case ContinueMove:
		b.MoveTo(x, y)
	case ContinueLine:
		b.LineTo(x, y)
	}
}

// SideOptions parameterises TraceSide.
//
// StartCompletion and EndCompletion are the fractions of a quarter turn of
// the side's two corner arcs that belong to the side. Anticlockwise traces
// the side from its end corner back to its start corner.
type SideOptions struct {
	StartCompletion float64
	EndCompletion   float64
	Anticlockwise   bool
	Continuation    Continuation
}

// HalfCorners is the default: each side owns half of both corner arcs, so
// four sides split the outline at the corner diagonals.
func HalfCorners(c Continuation) SideOptions {
	return SideOptions{StartCompletion: 0.5, EndCompletion: 0.5, Continuation: c}
}

// TraceSide adds one side of the rounded rectangle f (corner radii, edge
// insets) to b and returns the first and last points it produced.
func TraceSide(b PathBuilder, f Frame, radii, insets Sides, side int, opts SideOptions) (first, last Point) {
	baseAngle := float64(side+3) * (math.Pi / 2)

	startCornerIdx, endCornerIdx := side, (side+1)%4
	completionFactor := math.Pi / 2
	if opts.Anticlockwise {
		startCornerIdx, endCornerIdx = endCornerIdx, startCornerIdx
		completionFactor = -completionFactor
	}

	startCorner := CornerEllipseAt(f, radii, insets, startCornerIdx)
	startAngle := baseAngle - opts.StartCompletion*completionFactor
	first = startCorner.At(startAngle)
	Continue(b, first.X, first.Y, opts.Continuation)

	if opts.StartCompletion > 0 {
		startCorner.arc(b, startAngle, baseAngle)
	}

	endCorner := CornerEllipseAt(f, radii, insets, endCornerIdx)
	last = endCorner.At(baseAngle)
	b.LineTo(last.X, last.Y)

	if opts.EndCompletion > 0 {
		endAngle := baseAngle + opts.EndCompletion*completionFactor
		endCorner.arc(b, baseAngle, endAngle)
		last = endCorner.At(endAngle)
	}
	return first, last
}

// TraceRect adds the whole rounded rectangle as one closed subpath.
func TraceRect(b PathBuilder, f Frame, radii, insets Sides, anticlockwise bool) {
	order := [4]int{Top, Right, Bottom, Left}
	if anticlockwise {
		order = [4]int{Left, Bottom, Right, Top}
	}
	for i, side := range order {
		c := ContinueNone
		if i == 0 {
			c = ContinueMove
		}
		TraceSide(b, f, radii, insets, side, SideOptions{
			StartCompletion: 0,
			EndCompletion:   1,
			Anticlockwise:   anticlockwise,
			Continuation:    c,
		})
	}
	b.ClosePath()
}

// TraceSideFill adds the closed wedge covering one side of a border: the
// outer outline between the corner diagonals, then the inner outline (inset
// by the border widths) traced back in the opposite direction.
func TraceSideFill(b PathBuilder, f Frame, radii, widths Sides, side int) {
	TraceSide(b, f, radii, Sides{}, side, HalfCorners(ContinueMove))
	inner := HalfCorners(ContinueLine)
	inner.Anticlockwise = true
	TraceSide(b, f, radii, widths, side, inner)
	b.ClosePath()
}

// TraceSideStroke adds the open centreline of one side at the given insets.
// Adjoining sides of different widths do not meet cleanly; this is only used
// for patterned borders of varying width.
func TraceSideStroke(b PathBuilder, f Frame, radii, insets Sides, side int) {
	TraceSide(b, f, radii, insets, side, HalfCorners(ContinueMove))
}
