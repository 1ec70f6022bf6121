package geom

import (
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// PathBuilder is the path-construction context handed out by a backend's
// BeginShape and BeginClip.
type PathBuilder interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	// Ellipse adds an elliptical arc centred on (cx, cy) running from angle
	// start to angle end (radians, positive sweep is clockwise on screen).
	// Like the canvas ellipse() call it first lines to the arc's start point
	// when a subpath is open.
	Ellipse(cx, cy, rx, ry, start, end float64)
	ClosePath()
}

// Op identifies the kind of a path element.
type Op uint8

const (
	OpMove Op = iota
	OpLine
	OpCubic
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpMove:
		return "M"
	case OpLine:
		return "L"
	case OpCubic:
		return "C"
	case OpClose:
		return "Z"
	}
	return "?"
}

// MarshalText encodes the op as its SVG path letter.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Element is one path instruction. Pts holds one point for moves and lines,
// three (control, control, end) for cubics and none for a close.
type Element struct {
	Op  Op      `json:"op"`
	Pts []Point `json:"pts,omitempty"`
}

// Path records drawing instructions with arcs already flattened to cubic
// Béziers. It implements PathBuilder.
type Path struct {
	elements []Element
	start    Point
	current  Point
	open     bool
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{elements: make([]Element, 0, 16)}
}

func (p *Path) MoveTo(x, y float64) {
	pt := Point{X: x, Y: y}
	p.elements = append(p.elements, Element{Op: OpMove, Pts: []Point{pt}})
	p.start = pt
	p.current = pt
	p.open = true
}

func (p *Path) LineTo(x, y float64) {
	if !p.open {
		p.MoveTo(x, y)
		return
	}
	pt := Point{X: x, Y: y}
	p.elements = append(p.elements, Element{Op: OpLine, Pts: []Point{pt}})
	p.current = pt
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !p.open {
		p.MoveTo(c1x, c1y)
	}
	pt := Point{X: x, Y: y}
	p.elements = append(p.elements, Element{Op: OpCubic, Pts: []Point{{c1x, c1y}, {c2x, c2y}, pt}})
	p.current = pt
}

func (p *Path) ClosePath() {
	if !p.open {
		return
	}
	p.elements = append(p.elements, Element{Op: OpClose})
	p.current = p.start
	p.open = false
}

func (p *Path) Ellipse(cx, cy, rx, ry, start, end float64) {
	x0 := cx + rx*math.Cos(start)
	y0 := cy + ry*math.Sin(start)
	if p.open {
		if !near(p.current, Point{X: x0, Y: y0}) {
			p.LineTo(x0, y0)
		}
	} else {
		p.MoveTo(x0, y0)
	}
	if rx == 0 && ry == 0 {
		return
	}
	for _, seg := range arcSegments(cx, cy, rx, ry, start, end) {
		p.CubicTo(seg[0].X, seg[0].Y, seg[1].X, seg[1].Y, seg[2].X, seg[2].Y)
	}
}

// near reports whether two points agree to the rounding precision.
func near(a, b Point) bool {
	return math.Abs(a.X-b.X) <= 1e-6 && math.Abs(a.Y-b.Y) <= 1e-6
}

// Elements returns the recorded instructions.
func (p *Path) Elements() []Element {
	return p.elements
}

// Empty reports whether nothing has been recorded.
func (p *Path) Empty() bool {
	return len(p.elements) == 0
}

// CurrentPoint returns the pen position.
func (p *Path) CurrentPoint() Point {
	return p.current
}

// FirstPoint returns the first point of the path.
func (p *Path) FirstPoint() (Point, bool) {
	for _, e := range p.elements {
		if len(e.Pts) > 0 {
			return e.Pts[0], true
		}
	}
	return Point{}, false
}

// Subpaths counts move instructions.
func (p *Path) Subpaths() int {
	n := 0
	for _, e := range p.elements {
		if e.Op == OpMove {
			n++
		}
	}
	return n
}

// Replay feeds every element into b.
func (p *Path) Replay(b PathBuilder) {
	for _, e := range p.elements {
		switch e.Op {
		case OpMove:
			b.MoveTo(e.Pts[0].X, e.Pts[0].Y)
		case OpLine:
			b.LineTo(e.Pts[0].X, e.Pts[0].Y)
		case OpCubic:
			b.CubicTo(e.Pts[0].X, e.Pts[0].Y, e.Pts[1].X, e.Pts[1].Y, e.Pts[2].X, e.Pts[2].Y)
		case OpClose:
			b.ClosePath()
		}
	}
}

// Transform returns a copy of the path with every point mapped through m.
func (p *Path) Transform(m gg.Matrix) *Path {
	result := NewPath()
	for _, e := range p.elements {
		pts := make([]Point, len(e.Pts))
		for i, pt := range e.Pts {
			x, y := m.TransformPoint(pt.X, pt.Y)
			pts[i] = Point{X: x, Y: y}
		}
		result.elements = append(result.elements, Element{Op: e.Op, Pts: pts})
	}
	sx, sy := m.TransformPoint(p.start.X, p.start.Y)
	cx, cy := m.TransformPoint(p.current.X, p.current.Y)
	result.start = Point{X: sx, Y: sy}
	result.current = Point{X: cx, Y: cy}
	result.open = p.open
	return result
}

// Bounds returns the bounding box of all points, control points included.
func (p *Path) Bounds() Frame {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, e := range p.elements {
		for _, pt := range e.Pts {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return Frame{}
	}
	return Frame{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Finite reports whether every coordinate is a finite number.
func (p *Path) Finite() bool {
	for _, e := range p.elements {
		for _, pt := range e.Pts {
			if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
				return false
			}
		}
	}
	return true
}

// Data returns the path in SVG path data syntax.
func (p *Path) Data() string {
	var sb strings.Builder
	for i, e := range p.elements {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.Op.String())
		for _, pt := range e.Pts {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(Round6(pt.X), 'f', -1, 64))
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(Round6(pt.Y), 'f', -1, 64))
		}
	}
	return sb.String()
}
