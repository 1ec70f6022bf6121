package paint

import (
	"boxpaint/pkg/geom"
	"boxpaint/pkg/style"
)

// Border is the per-side description of a box's border with the radii
// already reduced to fit the frame.
type Border struct {
	Widths geom.Sides
	Colors [4]style.Color
	Radii  geom.Sides
	Style  style.BorderStyle
}

// BorderOf derives the border of a box of frame f.
func BorderOf(st *style.Resolved, f geom.Frame) Border {
	return Border{
		Widths: st.BorderWidths,
		Colors: st.BorderColors,
		Radii:  geom.ScaleRadii(st.BorderRadii, f.Width, f.Height),
		Style:  st.BorderStyle,
	}
}

// Solid reports whether the border is solid with every side fully opaque.
func (b Border) Solid() bool {
	if b.Style != style.BorderSolid {
		return false
	}
	for _, c := range b.Colors {
		if !c.Opaque() {
			return false
		}
	}
	return true
}

// UniformLine reports whether every side has the same width and colour.
func (b Border) UniformLine() bool {
	return b.Widths.Uniform() && colorsEqual(b.Colors)
}

// Visible reports whether any side would leave a mark.
func (b Border) Visible() bool {
	for i, w := range b.Widths {
		if w > 0 && !b.Colors[i].Invisible() {
			return true
		}
	}
	return false
}

// Insets returns the stroke centreline insets: half the widths for a solid
// opaque border, zero otherwise.
func (b Border) Insets() geom.Sides {
	if b.Solid() {
		return b.Widths.Scale(0.5)
	}
	return geom.Sides{}
}

// Dash returns the dash pattern for a stroke of width w in this border's
// style, or nil for solid lines.
func (b Border) Dash(w float64) []float64 {
	switch b.Style {
	case style.BorderDashed:
		return []float64{2 * w, w}
	case style.BorderDotted:
		return []float64{w, w}
	}
	return nil
}

func colorsEqual(c [4]style.Color) bool {
	return c[0] == c[1] && c[0] == c[2] && c[0] == c[3]
}

// CanDrawSingleShape reports whether the box can be painted as one path that
// is both filled and stroked: radii, widths and colours are each the same on
// all four sides and the border is solid and opaque.
func CanDrawSingleShape(st *style.Resolved) bool {
	b := Border{Widths: st.BorderWidths, Colors: st.BorderColors, Radii: st.BorderRadii, Style: st.BorderStyle}
	return b.Radii.Uniform() && b.UniformLine() && b.Solid()
}

// ShadowOf returns the shadow cast by a box, or nil when it is invisible.
func ShadowOf(st *style.Resolved) *Shadow {
	c := st.Shadow.Color.WithAlpha(st.Shadow.Opacity)
	if c.Invisible() {
		return nil
	}
	return &Shadow{
		Color:   c,
		Blur:    st.Shadow.Radius,
		OffsetX: st.Shadow.Offset.X,
		OffsetY: st.Shadow.Offset.Y,
	}
}
