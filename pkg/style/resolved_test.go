package style

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/transform"
)

func TestResolveDefaults(t *testing.T) {
	r, err := Resolve(nil)
	require.NoError(t, err)

	assert.Nil(t, r.Background)
	assert.Equal(t, geom.Sides{}, r.BorderWidths)
	assert.Equal(t, [4]Color{Black, Black, Black, Black}, r.BorderColors)
	assert.Equal(t, geom.Sides{}, r.BorderRadii)
	assert.Equal(t, BorderSolid, r.BorderStyle)
	assert.Equal(t, 1.0, r.Opacity)
	assert.False(t, r.HasOpacity)
	assert.Equal(t, OverflowVisible, r.Overflow)
	assert.Equal(t, DisplayFlex, r.Display)
	assert.Equal(t, 0, r.ZIndex)
	assert.Equal(t, 14.0, r.FontSize)
	assert.Equal(t, Black, r.Shadow.Color)
	assert.Zero(t, r.Shadow.Opacity)
	assert.True(t, r.Visible())
}

func TestResolveShorthandsFanOut(t *testing.T) {
	r, err := Resolve(Props{
		"borderWidth":          4,
		"borderColor":          "red",
		"borderRadius":         10,
		"borderLeftWidth":      "8px",
		"borderBottomColor":    "#00f",
		"borderTopRightRadius": 3,
	})
	require.NoError(t, err)

	red := Color{255, 0, 0, 1}
	blue := Color{0, 0, 255, 1}
	assert.Equal(t, geom.Sides{4, 4, 4, 8}, r.BorderWidths)
	assert.Equal(t, [4]Color{red, red, blue, red}, r.BorderColors)
	assert.Equal(t, geom.Sides{10, 3, 10, 10}, r.BorderRadii)
}

func TestResolveEffects(t *testing.T) {
	r, err := Resolve(Props{
		"backgroundColor": "rgba(0,0,0,0.25)",
		"opacity":         0.66,
		"overflow":        "hidden",
		"display":         "none",
		"zIndex":          2,
		"shadowColor":     "blue",
		"shadowOpacity":   0.5,
		"shadowRadius":    6,
		"shadowOffset":    map[string]any{"width": 2, "height": 3},
		"transform":       []any{map[string]any{"rotate": "90deg"}},
	})
	require.NoError(t, err)

	require.NotNil(t, r.Background)
	assert.Equal(t, 0.25, r.Background.A)
	assert.True(t, r.HasOpacity)
	assert.Equal(t, 0.66, r.Opacity)
	assert.Equal(t, OverflowHidden, r.Overflow)
	assert.False(t, r.Visible())
	assert.Equal(t, 2, r.ZIndex)
	assert.Equal(t, Shadow{Color: Color{0, 0, 255, 1}, Opacity: 0.5, Radius: 6, Offset: geom.Point{X: 2, Y: 3}}, r.Shadow)
	require.Len(t, r.Transform, 1)
	assert.Equal(t, transform.Rotate, r.Transform[0].Kind)
	assert.InDelta(t, math.Pi/2, r.Transform[0].X, 1e-12)
}

func TestResolveTransformWithProps(t *testing.T) {
	r, err := Resolve(Props{
		"transform": []any{Props{"rotate": "45deg"}, Props{"translateX": 5}},
	})
	require.NoError(t, err)
	require.Len(t, r.Transform, 2)
	assert.Equal(t, transform.Rotate, r.Transform[0].Kind)
	assert.InDelta(t, math.Pi/4, r.Transform[0].X, 1e-12)
	assert.Equal(t, transform.Op{Kind: transform.TranslateX, X: 5}, r.Transform[1])

	r, err = Resolve(Props{"transform": []Props{{"scale": 0.5}}})
	require.NoError(t, err)
	assert.Equal(t, []transform.Op{{Kind: transform.Scale, X: 0.5, Y: 0.5}}, r.Transform)
}

func TestResolveZIndexMustBeInteger(t *testing.T) {
	r, err := Resolve(Props{"zIndex": -3})
	require.NoError(t, err)
	assert.Equal(t, -3, r.ZIndex)

	_, err = Resolve(Props{"zIndex": 0.5})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestResolveText(t *testing.T) {
	r, err := Resolve(Props{"color": "white", "fontSize": 20, "fontWeight": "bold", "textAlign": "center", "resizeMode": "cover"})
	require.NoError(t, err)

	assert.Equal(t, White, r.Color)
	assert.Equal(t, 20.0, r.FontSize)
	assert.True(t, r.Bold())
	assert.Equal(t, AlignCenter, r.TextAlign)
	assert.Equal(t, ResizeCover, r.ResizeMode)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		props Props
		want  error
	}{
		{"bad color", Props{"backgroundColor": "nope"}, ErrInvalidColor},
		{"bad border style", Props{"borderStyle": "double"}, ErrInvalidValue},
		{"negative width", Props{"borderTopWidth": -1}, ErrInvalidValue},
		{"non-string overflow", Props{"overflow": 1}, ErrInvalidValue},
		{"bad offset", Props{"shadowOffset": 4}, ErrInvalidValue},
		{"bad transform", Props{"transform": []any{map[string]any{"perspective": 100}}}, transform.ErrUnsupportedOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.props)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
