package paint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxpaint/pkg/backend"
	"boxpaint/pkg/geom"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
)

var box = geom.Frame{X: 0, Y: 0, Width: 100, Height: 100}

func resolve(t *testing.T, p style.Props) *style.Resolved {
	t.Helper()
	r, err := style.Resolve(p)
	require.NoError(t, err)
	return r
}

func paintShapes(t *testing.T, s paint.Settings, p style.Props, drawShadow bool) []backend.Shape {
	t.Helper()
	rec := backend.NewRecorder()
	require.NoError(t, paint.PaintBox(rec, box, s, resolve(t, p), drawShadow))
	return rec.Shapes()
}

func TestCanDrawSingleShape(t *testing.T) {
	uniform := style.Props{"borderWidth": 2, "borderColor": "red", "borderRadius": 8}
	with := func(k string, v any) style.Props {
		p := style.Props{}
		for key, val := range uniform {
			p[key] = val
		}
		p[k] = v
		return p
	}

	tests := []struct {
		name  string
		props style.Props
		want  bool
	}{
		{"defaults", nil, true},
		{"uniform", uniform, true},
		{"one width differs", with("borderLeftWidth", 3), false},
		{"one color differs", with("borderTopColor", "blue"), false},
		{"one radius differs", with("borderBottomRightRadius", 2), false},
		{"dashed", with("borderStyle", "dashed"), false},
		{"dotted", with("borderStyle", "dotted"), false},
		{"translucent", with("borderColor", "rgba(255,0,0,0.5)"), false},
		{"explicit solid", with("borderStyle", "solid"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paint.CanDrawSingleShape(resolve(t, tt.props)))
		})
	}
}

func TestBorderOfScalesOverlappingRadii(t *testing.T) {
	st := resolve(t, style.Props{"borderTopLeftRadius": 80, "borderTopRightRadius": 40})
	b := paint.BorderOf(st, geom.Frame{Width: 100, Height: 200})

	assert.InDelta(t, 100, b.Radii[geom.TopLeft]+b.Radii[geom.TopRight], 1e-9)
	assert.InDelta(t, 2, b.Radii[geom.TopLeft]/b.Radii[geom.TopRight], 1e-9)
}

func TestPaintBoxSingleShape(t *testing.T) {
	shapes := paintShapes(t, paint.Settings{}, style.Props{
		"backgroundColor": "white",
		"borderWidth":     4,
		"borderColor":     "black",
		"borderRadius":    10,
		"shadowOpacity":   0.5,
		"shadowRadius":    3,
		"shadowOffset":    map[string]any{"width": 1, "height": 2},
	}, true)
	require.Len(t, shapes, 1)

	p := shapes[0].Params
	require.NotNil(t, p.Fill)
	require.NotNil(t, p.Stroke)
	assert.Equal(t, style.White, *p.Fill)
	assert.Equal(t, style.Black, *p.Stroke)
	assert.Equal(t, 4.0, p.LineWidth)
	require.NotNil(t, p.Shadow)
	assert.Equal(t, paint.Shadow{Color: style.Color{A: 0.5}, Blur: 3, OffsetX: 1, OffsetY: 2}, *p.Shadow)

	// The outline runs along the border's centreline.
	assert.Equal(t, geom.Frame{X: 2, Y: 2, Width: 96, Height: 96}, roundFrame(shapes[0].Path.Bounds()))
	assert.Equal(t, 1, shapes[0].Path.Subpaths())
}

func TestPaintBoxSingleShapeWithoutBorder(t *testing.T) {
	shapes := paintShapes(t, paint.Settings{}, style.Props{"backgroundColor": "red"}, true)
	require.Len(t, shapes, 1)
	assert.Nil(t, shapes[0].Params.Stroke)
	assert.Nil(t, shapes[0].Params.Shadow)
	assert.Equal(t, box, roundFrame(shapes[0].Path.Bounds()))
}

func TestPaintBoxSolidWedges(t *testing.T) {
	shapes := paintShapes(t, paint.Settings{}, style.Props{
		"borderTopWidth":    5,
		"borderRightWidth":  10,
		"borderBottomWidth": 15,
		"borderLeftWidth":   20,
		"borderTopColor":    "yellow",
		"borderRightColor":  "green",
		"borderBottomColor": "blue",
		"borderLeftColor":   "magenta",
		"borderRadius":      33,
	}, true)
	require.Len(t, shapes, 5)

	bg := shapes[0].Params
	assert.Nil(t, bg.Fill)
	assert.Nil(t, bg.Stroke)

	want := []string{"yellow", "green", "blue", "magenta"}
	for i, name := range want {
		c, err := style.ParseColor(name)
		require.NoError(t, err)
		wedge := shapes[i+1]
		require.NotNil(t, wedge.Params.Fill, name)
		assert.Equal(t, c, *wedge.Params.Fill, name)
		assert.Nil(t, wedge.Params.Stroke, name)
		assert.Equal(t, 1, wedge.Path.Subpaths(), name)
		els := wedge.Path.Elements()
		assert.Equal(t, geom.OpClose, els[len(els)-1].Op, name)
	}
}

func TestPaintBoxBackgroundInsets(t *testing.T) {
	props := style.Props{
		"backgroundColor":   "white",
		"borderTopWidth":    2,
		"borderRightWidth":  4,
		"borderBottomWidth": 6,
		"borderLeftWidth":   8,
	}
	shapes := paintShapes(t, paint.Settings{}, props, true)
	require.Len(t, shapes, 5)
	assert.Equal(t, geom.Frame{X: 4, Y: 1, Width: 94, Height: 96}, roundFrame(shapes[0].Path.Bounds()))

	props["borderTopColor"] = "rgba(0,0,0,0.5)"
	shapes = paintShapes(t, paint.Settings{}, props, true)
	require.Len(t, shapes, 5)
	assert.Equal(t, box, roundFrame(shapes[0].Path.Bounds()))
}

func TestPaintBoxUniformDashedBorder(t *testing.T) {
	shapes := paintShapes(t, paint.Settings{}, style.Props{
		"backgroundColor": "white",
		"borderWidth":     3,
		"borderStyle":     "dashed",
	}, true)
	require.Len(t, shapes, 2)

	// Patterned borders never inset the background.
	assert.Equal(t, box, roundFrame(shapes[0].Path.Bounds()))
	stroke := shapes[1].Params
	require.NotNil(t, stroke.Stroke)
	assert.Equal(t, 3.0, stroke.LineWidth)
	assert.Equal(t, []float64{6, 3}, stroke.Dash)
	assert.Equal(t, geom.Frame{X: 1.5, Y: 1.5, Width: 97, Height: 97}, roundFrame(shapes[1].Path.Bounds()))
}

func TestPaintBoxDottedSides(t *testing.T) {
	shapes := paintShapes(t, paint.Settings{}, style.Props{
		"borderStyle":       "dotted",
		"borderTopWidth":    2,
		"borderRightWidth":  4,
		"borderBottomWidth": 0,
		"borderLeftWidth":   4,
	}, true)
	// Background plus one stroke per side with a width.
	require.Len(t, shapes, 4)
	for i, w := range []float64{2, 4, 4} {
		p := shapes[i+1].Params
		assert.Equal(t, w, p.LineWidth)
		assert.Equal(t, []float64{w, w}, p.Dash)
		assert.Nil(t, p.Fill)
	}
}

func TestPaintBoxSkipsInvisible(t *testing.T) {
	assert.Empty(t, paintShapes(t, paint.Settings{}, nil, true))
	assert.Empty(t, paintShapes(t, paint.Settings{}, style.Props{
		"backgroundColor": "transparent",
		"borderWidth":     3,
		"borderColor":     "transparent",
	}, true))
	assert.Empty(t, paintShapes(t, paint.Settings{}, style.Props{"shadowOpacity": 1}, false))
	assert.Len(t, paintShapes(t, paint.Settings{}, style.Props{"shadowOpacity": 1}, true), 1)
}

func TestShadowOf(t *testing.T) {
	assert.Nil(t, paint.ShadowOf(resolve(t, nil)))

	s := paint.ShadowOf(resolve(t, style.Props{"shadowColor": "rgba(255,0,0,0.5)", "shadowOpacity": 0.5}))
	require.NotNil(t, s)
	assert.Equal(t, style.Color{R: 255, A: 0.25}, s.Color)
}

func TestClipMatchesSingleShapeOutline(t *testing.T) {
	st := resolve(t, style.Props{"borderRadius": 25, "overflow": "hidden", "backgroundColor": "red"})
	clip := geom.NewPath()
	paint.Clip(clip, box, paint.Settings{}, st)

	shapes := paintShapes(t, paint.Settings{}, style.Props{"borderRadius": 25, "backgroundColor": "red"}, true)
	require.Len(t, shapes, 1)
	assert.Equal(t, shapes[0].Path.Elements(), clip.Elements())
}

func TestClipIgnoresBorderWidth(t *testing.T) {
	st := resolve(t, style.Props{"borderRadius": 25, "borderWidth": 10})
	clip := geom.NewPath()
	paint.Clip(clip, box, paint.Settings{}, st)
	assert.Equal(t, box, roundFrame(clip.Bounds()))
}

func TestPaintBoxContinuousCorners(t *testing.T) {
	ios := paint.Settings{Platform: paint.PlatformIOS}
	props := style.Props{"backgroundColor": "white", "borderRadius": 20, "borderWidth": 2}

	shapes := paintShapes(t, ios, props, true)
	require.Len(t, shapes, 1)
	assert.Equal(t, geom.Frame{X: 1, Y: 1, Width: 98, Height: 98}, roundFrame(shapes[0].Path.Bounds()))

	plain := paintShapes(t, paint.Settings{}, props, true)
	assert.NotEqual(t, plain[0].Path.Elements(), shapes[0].Path.Elements())

	clip := geom.NewPath()
	paint.Clip(clip, box, ios, resolve(t, props))
	assert.Equal(t, box, roundFrame(clip.Bounds()))
}

func TestValidate(t *testing.T) {
	red := style.Color{R: 255, A: 1}
	assert.NoError(t, paint.PaintParams{Fill: &red}.Validate(nil))
	assert.ErrorIs(t, paint.PaintParams{Stroke: &red}.Validate(nil), paint.ErrInvalidPaint)
	assert.ErrorIs(t, paint.PaintParams{LineWidth: -1}.Validate(nil), paint.ErrInvalidPaint)
	assert.ErrorIs(t, paint.PaintParams{Stroke: &red, LineWidth: 1, Dash: []float64{-1}}.Validate(nil), paint.ErrInvalidPaint)

	p := geom.NewPath()
	p.MoveTo(0, 0)
	p.LineTo(math.NaN(), 1)
	assert.ErrorIs(t, paint.PaintParams{Fill: &red}.Validate(p), paint.ErrInvalidPaint)
}

func TestSettings(t *testing.T) {
	s := paint.Settings{Width: 100, Height: 50}
	assert.Equal(t, 1.0, s.Scale())
	s.DPI = 2
	w, h := s.PixelSize()
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
	assert.False(t, s.ContinuousCorners())
}

func roundFrame(f geom.Frame) geom.Frame {
	r := func(v float64) float64 { return math.Round(v*1e4) / 1e4 }
	return geom.Frame{X: r(f.X), Y: r(f.Y), Width: r(f.Width), Height: r(f.Height)}
}
