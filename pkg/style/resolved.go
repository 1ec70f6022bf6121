package style

import (
	"fmt"
	"math"
	"strconv"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/transform"
)

type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
)

type Overflow string

const (
	OverflowVisible Overflow = "visible"
	OverflowHidden  Overflow = "hidden"
	OverflowScroll  Overflow = "scroll"
)

type Display string

const (
	DisplayFlex Display = "flex"
	DisplayNone Display = "none"
)

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type ResizeMode string

const (
	ResizeStretch ResizeMode = "stretch"
	ResizeCover   ResizeMode = "cover"
	ResizeContain ResizeMode = "contain"
)

// Shadow is the box shadow as written in the style. Opacity multiplies the
// colour's own alpha.
type Shadow struct {
	Color   Color
	Opacity float64
	Radius  float64
	Offset  geom.Point
}

// Resolved is a node's style with every default applied. The painter and
// renderer never look at raw properties.
type Resolved struct {
	Background   *Color
	BorderWidths geom.Sides
	BorderColors [4]Color
	BorderRadii  geom.Sides
	BorderStyle  BorderStyle

	Opacity    float64
	HasOpacity bool
	Overflow   Overflow
	Shadow     Shadow
	Transform  []transform.Op
	ZIndex     int
	Display    Display

	Color      Color
	FontSize   float64
	FontWeight int
	FontFamily string
	TextAlign  TextAlign
	ResizeMode ResizeMode
}

// Default returns the style of a node with no properties.
func Default() *Resolved {
	return &Resolved{
		BorderColors: [4]Color{Black, Black, Black, Black},
		BorderStyle:  BorderSolid,
		Opacity:      1,
		Overflow:     OverflowVisible,
		Shadow:       Shadow{Color: Black},
		Display:      DisplayFlex,
		Color:        Black,
		FontSize:     14,
		FontWeight:   400,
		TextAlign:    AlignLeft,
		ResizeMode:   ResizeStretch,
	}
}

var (
	sideWidthKeys    = [4]string{"borderTopWidth", "borderRightWidth", "borderBottomWidth", "borderLeftWidth"}
	sideColorKeys    = [4]string{"borderTopColor", "borderRightColor", "borderBottomColor", "borderLeftColor"}
	cornerRadiusKeys = [4]string{"borderTopLeftRadius", "borderTopRightRadius", "borderBottomRightRadius", "borderBottomLeftRadius"}
)

// Resolve applies defaults and shorthands to a flattened property map.
// Per-side and per-corner keys override the borderWidth, borderColor and
// borderRadius shorthands.
func Resolve(p Props) (*Resolved, error) {
	s := &Style{Properties: p}
	if p == nil {
		s = NewStyle()
	}
	r := Default()

	if c, ok, err := s.GetColor("backgroundColor"); err != nil {
		return nil, err
	} else if ok {
		r.Background = &c
	}

	if err := resolveBorders(s, r); err != nil {
		return nil, err
	}
	if err := resolveEffects(s, r); err != nil {
		return nil, err
	}
	if err := resolveText(s, r); err != nil {
		return nil, err
	}
	return r, nil
}

func resolveBorders(s *Style, r *Resolved) error {
	if w, ok, err := s.GetLength("borderWidth"); err != nil {
		return err
	} else if ok {
		r.BorderWidths = geom.SidesOf(w)
	}
	if c, ok, err := s.GetColor("borderColor"); err != nil {
		return err
	} else if ok {
		r.BorderColors = [4]Color{c, c, c, c}
	}
	if rad, ok, err := s.GetLength("borderRadius"); err != nil {
		return err
	} else if ok {
		r.BorderRadii = geom.SidesOf(rad)
	}

	for i := 0; i < 4; i++ {
		if w, ok, err := s.GetLength(sideWidthKeys[i]); err != nil {
			return err
		} else if ok {
			r.BorderWidths[i] = w
		}
		if c, ok, err := s.GetColor(sideColorKeys[i]); err != nil {
			return err
		} else if ok {
			r.BorderColors[i] = c
		}
		if rad, ok, err := s.GetLength(cornerRadiusKeys[i]); err != nil {
			return err
		} else if ok {
			r.BorderRadii[i] = rad
		}
	}
	for i := range r.BorderWidths {
		if r.BorderWidths[i] < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidValue, sideWidthKeys[i])
		}
		if r.BorderRadii[i] < 0 {
			r.BorderRadii[i] = 0
		}
	}

	bs, ok, err := s.GetString("borderStyle")
	if err != nil {
		return err
	}
	if ok {
		switch BorderStyle(bs) {
		case BorderSolid, BorderDashed, BorderDotted:
			r.BorderStyle = BorderStyle(bs)
		default:
			return fmt.Errorf("%w: borderStyle %q", ErrInvalidValue, bs)
		}
	}
	return nil
}

func resolveEffects(s *Style, r *Resolved) error {
	if o, ok, err := s.GetLength("opacity"); err != nil {
		return err
	} else if ok {
		r.Opacity = clamp01(o)
		r.HasOpacity = true
	}

	if ov, ok, err := s.GetString("overflow"); err != nil {
		return err
	} else if ok {
		switch Overflow(ov) {
		case OverflowVisible, OverflowHidden, OverflowScroll:
			r.Overflow = Overflow(ov)
		default:
			return fmt.Errorf("%w: overflow %q", ErrInvalidValue, ov)
		}
	}

	if d, ok, err := s.GetString("display"); err != nil {
		return err
	} else if ok {
		switch Display(d) {
		case DisplayFlex, DisplayNone:
			r.Display = Display(d)
		default:
			return fmt.Errorf("%w: display %q", ErrInvalidValue, d)
		}
	}

	if z, ok, err := s.GetLength("zIndex"); err != nil {
		return err
	} else if ok {
		if z != math.Trunc(z) {
			return fmt.Errorf("%w: zIndex %g is not an integer", ErrInvalidValue, z)
		}
		r.ZIndex = int(z)
	}

	if c, ok, err := s.GetColor("shadowColor"); err != nil {
		return err
	} else if ok {
		r.Shadow.Color = c
	}
	if o, ok, err := s.GetLength("shadowOpacity"); err != nil {
		return err
	} else if ok {
		r.Shadow.Opacity = clamp01(o)
	}
	if rad, ok, err := s.GetLength("shadowRadius"); err != nil {
		return err
	} else if ok {
		r.Shadow.Radius = max(rad, 0)
	}
	if off, ok := s.Get("shadowOffset"); ok {
		pt, err := parseOffset(off)
		if err != nil {
			return err
		}
		r.Shadow.Offset = pt
	}

	if t, ok := s.Get("transform"); ok {
		ops, err := transform.ParseOps(t)
		if err != nil {
			return err
		}
		r.Transform = ops
	}
	return nil
}

func parseOffset(v any) (geom.Point, error) {
	var m map[string]any
	switch o := v.(type) {
	case geom.Point:
		return o, nil
	case map[string]any:
		m = o
	case Props:
		m = o
	default:
		return geom.Point{}, fmt.Errorf("%w: shadowOffset must be {width, height}, got %T", ErrInvalidValue, v)
	}
	var pt geom.Point
	if w, ok := m["width"]; ok {
		n, err := ParseLength(w)
		if err != nil {
			return geom.Point{}, fmt.Errorf("shadowOffset: %w", err)
		}
		pt.X = n
	}
	if h, ok := m["height"]; ok {
		n, err := ParseLength(h)
		if err != nil {
			return geom.Point{}, fmt.Errorf("shadowOffset: %w", err)
		}
		pt.Y = n
	}
	return pt, nil
}

func resolveText(s *Style, r *Resolved) error {
	if c, ok, err := s.GetColor("color"); err != nil {
		return err
	} else if ok {
		r.Color = c
	}
	if fs, ok, err := s.GetLength("fontSize"); err != nil {
		return err
	} else if ok && fs > 0 {
		r.FontSize = fs
	}
	if fw, ok := s.Get("fontWeight"); ok {
		w, err := parseWeight(fw)
		if err != nil {
			return err
		}
		r.FontWeight = w
	}
	if ff, ok, err := s.GetString("fontFamily"); err != nil {
		return err
	} else if ok {
		r.FontFamily = ff
	}
	if ta, ok, err := s.GetString("textAlign"); err != nil {
		return err
	} else if ok {
		switch TextAlign(ta) {
		case AlignLeft, AlignCenter, AlignRight:
			r.TextAlign = TextAlign(ta)
		case "auto", "justify":
			r.TextAlign = AlignLeft
		default:
			return fmt.Errorf("%w: textAlign %q", ErrInvalidValue, ta)
		}
	}
	if rm, ok, err := s.GetString("resizeMode"); err != nil {
		return err
	} else if ok {
		switch ResizeMode(rm) {
		case ResizeStretch, ResizeCover, ResizeContain:
			r.ResizeMode = ResizeMode(rm)
		default:
			return fmt.Errorf("%w: resizeMode %q", ErrInvalidValue, rm)
		}
	}
	return nil
}

func parseWeight(v any) (int, error) {
	if s, ok := v.(string); ok {
		switch s {
		case "normal":
			return 400, nil
		case "bold":
			return 700, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: fontWeight %q", ErrInvalidValue, s)
		}
		return n, nil
	}
	n, err := ParseLength(v)
	if err != nil {
		return 0, fmt.Errorf("fontWeight: %w", err)
	}
	return int(n), nil
}

// Bold reports whether the weight selects a bold face.
func (r *Resolved) Bold() bool {
	return r.FontWeight >= 600
}

// Visible reports whether the node paints at all.
func (r *Resolved) Visible() bool {
	return r.Display != DisplayNone
}
