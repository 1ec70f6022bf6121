package transform

import (
	"math"

	"github.com/fogleman/gg"

	"boxpaint/pkg/geom"
)

// Process composes ops left to right into one matrix. Each operation acts in
// the coordinate space set up by the ones before it, the same order that
// successive gg.Context.Rotate/Scale calls produce.
func Process(ops []Op) gg.Matrix {
	m := gg.Identity()
	for _, op := range ops {
		m = op.Matrix().Multiply(m)
	}
	return m
}

// Anchor pivots m on the centre of f.
func Anchor(m gg.Matrix, f geom.Frame) gg.Matrix {
	c := f.Center()
	return gg.Translate(-c.X, -c.Y).Multiply(m).Multiply(gg.Translate(c.X, c.Y))
}

// Parts is m factored as translate · rotate · shear-x · scale.
type Parts struct {
	TX, TY float64
	Angle  float64
	ShearX float64
	SX, SY float64
}

// Decompose factors m so it can be replayed through APIs that only offer
// Translate/Rotate/Shear/Scale. ok is false for singular matrices.
func Decompose(m gg.Matrix) (p Parts, ok bool) {
	a, b, c, d := m.XX, m.YX, m.XY, m.YY
	sx := math.Hypot(a, b)
	if sx == 0 {
		return Parts{}, false
	}
	angle := math.Atan2(b, a)
	cos, sin := math.Cos(angle), math.Sin(angle)
	upper := cos*c + sin*d
	sy := -sin*c + cos*d
	if sy == 0 {
		return Parts{}, false
	}
	return Parts{
		TX:     m.X0,
		TY:     m.Y0,
		Angle:  angle,
		ShearX: upper / sy,
		SX:     sx,
		SY:     sy,
	}, true
}

// Matrix rebuilds the matrix from its parts.
func (p Parts) Matrix() gg.Matrix {
	return gg.Scale(p.SX, p.SY).
		Multiply(gg.Shear(p.ShearX, 0)).
		Multiply(gg.Rotate(p.Angle)).
		Multiply(gg.Translate(p.TX, p.TY))
}

// Apply replays the parts onto dc, replacing its current matrix.
func (p Parts) Apply(dc *gg.Context) {
	dc.Identity()
	dc.Translate(p.TX, p.TY)
	dc.Rotate(p.Angle)
	dc.Shear(p.ShearX, 0)
	dc.Scale(p.SX, p.SY)
}

// LineScale is the factor by which m scales lengths on average, used to
// scale stroke widths for backends that stroke after transforming.
func LineScale(m gg.Matrix) float64 {
	return math.Sqrt(math.Abs(m.XX*m.YY - m.XY*m.YX))
}
