package paint

import (
	"fmt"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/logging"
	"boxpaint/pkg/style"
)

// PaintBox paints the background, border and (when drawShadow is set) the
// shadow of a box occupying frame f.
//
// A box whose border is the same on every side and solid is painted as one
// path that is filled and stroked. Anything else becomes a background fill
// followed by either one stroke, four filled side wedges (solid borders) or
// four stroked sides (dashed and dotted borders).
func PaintBox(b Backend, f geom.Frame, s Settings, st *style.Resolved, drawShadow bool) error {
	border := BorderOf(st, f)

	var shadow *Shadow
	if drawShadow {
		shadow = ShadowOf(st)
	}
	var fill *style.Color
	if st.Background != nil && !st.Background.Invisible() {
		c := *st.Background
		fill = &c
	}

	if fill == nil && shadow == nil && !border.Visible() {
		return nil
	}

	if CanDrawSingleShape(st) {
		logging.Logger().Debug("paint box", "strategy", "single", "frame", f)
		return paintSingle(b, f, s, border, fill, shadow)
	}
	logging.Logger().Debug("paint box", "strategy", "multiple", "frame", f, "borderStyle", border.Style)
	return paintMultiple(b, f, border, fill, shadow)
}

func paintSingle(b Backend, f geom.Frame, s Settings, border Border, fill *style.Color, shadow *Shadow) error {
	w := border.Widths[geom.Top]
	radius := border.Radii[geom.TopLeft]

	pb := b.BeginShape()
	if s.ContinuousCorners() {
		geom.TraceContinuousRect(pb, f.X+w/2, f.Y+w/2, f.Width-w, f.Height-w, radius-w/2)
	} else {
		geom.TraceRect(pb, f, border.Radii, geom.SidesOf(w/2), false)
	}

	params := PaintParams{Fill: fill, Shadow: shadow}
	if w > 0 {
		c := border.Colors[geom.Top]
		params.Stroke = &c
		params.LineWidth = w
	}
	return commit(b, params, "box")
}

func paintMultiple(b Backend, f geom.Frame, border Border, fill *style.Color, shadow *Shadow) error {
	pb := b.BeginShape()
	geom.TraceRect(pb, f, border.Radii, border.Insets(), false)
	if err := commit(b, PaintParams{Fill: fill, Shadow: shadow}, "background"); err != nil {
		return err
	}

	switch {
	case border.UniformLine():
		w := border.Widths[geom.Top]
		if w == 0 {
			return nil
		}
		c := border.Colors[geom.Top]
		pb := b.BeginShape()
		geom.TraceRect(pb, f, border.Radii, border.Widths.Scale(0.5), false)
		return commit(b, PaintParams{Stroke: &c, LineWidth: w, Dash: border.Dash(w)}, "border")

	case border.Style == style.BorderSolid:
		for side := geom.Top; side <= geom.Left; side++ {
			c := border.Colors[side]
			pb := b.BeginShape()
			geom.TraceSideFill(pb, f, border.Radii, border.Widths, side)
			if err := commit(b, PaintParams{Fill: &c}, "border side"); err != nil {
				return err
			}
		}

	default:
		// Sides of different widths overlap or leave notches at the corners.
		insets := border.Widths.Scale(0.5)
		for side := geom.Top; side <= geom.Left; side++ {
			w := border.Widths[side]
			if w == 0 {
				continue
			}
			c := border.Colors[side]
			pb := b.BeginShape()
			geom.TraceSideStroke(pb, f, border.Radii, insets, side)
			if err := commit(b, PaintParams{Stroke: &c, LineWidth: w, Dash: border.Dash(w)}, "border side"); err != nil {
				return err
			}
		}
	}
	return nil
}

func commit(b Backend, p PaintParams, what string) error {
	if err := b.CommitShape(p); err != nil {
		return fmt.Errorf("paint %s: %w", what, err)
	}
	return nil
}

// Clip adds the outline used for overflow clipping to pb. It follows the
// outer edge of the border and ignores border widths.
func Clip(pb geom.PathBuilder, f geom.Frame, s Settings, st *style.Resolved) {
	radii := geom.ScaleRadii(st.BorderRadii, f.Width, f.Height)
	if CanDrawSingleShape(st) && s.ContinuousCorners() {
		geom.TraceContinuousRect(pb, f.X, f.Y, f.Width, f.Height, radii[geom.TopLeft])
		return
	}
	geom.TraceRect(pb, f, radii, geom.Sides{}, false)
}
