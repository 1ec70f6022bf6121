package geom

import "math"

// continuousExtent is how far along each edge a continuous corner reaches,
// in multiples of the nominal radius.
const continuousExtent = 1.52866483

// cornerStep is one instruction of a normalised continuous corner. Points
// are (along, across): distance back from the corner along the incoming edge
// and distance in from that edge, both in units of the radius.
type cornerStep struct {
	line bool
	pts  [][2]float64
}

// continuousCorner traces one corner from the incoming edge to the outgoing
// edge. The curve is symmetric about the corner diagonal.
var continuousCorner = []cornerStep{
	{pts: [][2]float64{{1.08849323, 0}, {0.86840689, 0}, {0.66993427, 0.06549600}}},
	{line: true, pts: [][2]float64{{0.63149399, 0.07491100}}},
	{pts: [][2]float64{{0.37282392, 0.16905899}, {0.16905899, 0.37282392}, {0.07491100, 0.63149399}}},
	{line: true, pts: [][2]float64{{0.06549600, 0.66993427}}},
	{pts: [][2]float64{{0, 0.86840689}, {0, 1.08849323}, {0, continuousExtent}}},
}

// cornerMappers map a normalised (along, across) pair to device space for
// each corner in clockwise order starting at the top-right.
func cornerMappers(x, y, w, h, r float64) [4]func(a, c float64) Point {
	return [4]func(a, c float64) Point{
		func(a, c float64) Point { return Point{X: x + w - a*r, Y: y + c*r} },
		func(a, c float64) Point { return Point{X: x + w - c*r, Y: y + h - a*r} },
		func(a, c float64) Point { return Point{X: x + a*r, Y: y + h - c*r} },
		func(a, c float64) Point { return Point{X: x + c*r, Y: y + a*r} },
	}
}

// TraceContinuousRect adds a rectangle with continuous ("squircle") corners,
// the shape iOS uses for rounded views. The curvature ramps up along the
// edges instead of jumping at the tangent point of a circular arc.
func TraceContinuousRect(b PathBuilder, x, y, w, h, radius float64) {
	limit := math.Min(w, h) / 2 / continuousExtent
	r := math.Max(math.Min(radius, limit), 0)
	if r == 0 {
		b.MoveTo(x, y)
		b.LineTo(x+w, y)
		b.LineTo(x+w, y+h)
		b.LineTo(x, y+h)
		b.ClosePath()
		return
	}

	mappers := cornerMappers(x, y, w, h, r)
	start := mappers[3](0, continuousExtent)
	b.MoveTo(start.X, start.Y)
	for _, m := range mappers {
		edge := m(continuousExtent, 0)
		b.LineTo(edge.X, edge.Y)
		for _, step := range continuousCorner {
			if step.line {
				p := m(step.pts[0][0], step.pts[0][1])
				b.LineTo(p.X, p.Y)
				continue
			}
			c1 := m(step.pts[0][0], step.pts[0][1])
			c2 := m(step.pts[1][0], step.pts[1][1])
			p := m(step.pts[2][0], step.pts[2][1])
			b.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p.X, p.Y)
		}
	}
	b.ClosePath()
}
