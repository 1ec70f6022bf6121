package geom

import "math"

// maxArcStep is the widest sweep approximated by a single cubic.
const maxArcStep = math.Pi / 2

// arcSegments splits the elliptical arc from start to end into cubic Bézier
// segments of at most a quarter turn each. Every returned triple is
// (control1, control2, end). A negative sweep traces the arc anticlockwise.
func arcSegments(cx, cy, rx, ry, start, end float64) [][3]Point {
	sweep := end - start
	if sweep == 0 {
		return nil
	}
	if sweep > 2*math.Pi {
		sweep = 2 * math.Pi
	} else if sweep < -2*math.Pi {
		sweep = -2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(sweep)/maxArcStep - 1e-9))
	if n < 1 {
		n = 1
	}
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	segments := make([][3]Point, 0, n)
	a1 := start
	for i := 0; i < n; i++ {
		a2 := a1 + step
		if i == n-1 {
			a2 = start + sweep
		}
		cos1, sin1 := math.Cos(a1), math.Sin(a1)
		cos2, sin2 := math.Cos(a2), math.Sin(a2)
		segments = append(segments, [3]Point{
			{X: cx + rx*(cos1-k*sin1), Y: cy + ry*(sin1+k*cos1)},
			{X: cx + rx*(cos2+k*sin2), Y: cy + ry*(sin2-k*cos2)},
			{X: cx + rx*cos2, Y: cy + ry*sin2},
		})
		a1 = a2
	}
	return segments
}

// Round6 rounds to six decimal places so that points computed independently
// for adjoining arcs land on identical coordinates.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
