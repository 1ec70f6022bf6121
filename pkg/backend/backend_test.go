package backend

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
)

var (
	red  = style.Color{R: 255, A: 1}
	blue = style.Color{B: 255, A: 1}
)

func faces(t *testing.T) *text.Faces {
	t.Helper()
	f, err := text.Default()
	require.NoError(t, err)
	return f
}

func fillRect(t *testing.T, b paint.Backend, f geom.Frame, c style.Color, shadow *paint.Shadow) {
	t.Helper()
	pb := b.BeginShape()
	geom.TraceRect(pb, f, geom.Sides{}, geom.Sides{}, false)
	require.NoError(t, b.CommitShape(paint.PaintParams{Fill: &c, Shadow: shadow}))
}

func clipRect(t *testing.T, b paint.Backend, f geom.Frame) {
	t.Helper()
	pb := b.BeginClip()
	geom.TraceRect(pb, f, geom.Sides{}, geom.Sides{}, false)
	require.NoError(t, b.PushClip())
}

func TestRecorderTracksState(t *testing.T) {
	r := NewRecorder()
	frame := geom.Frame{X: 0, Y: 0, Width: 10, Height: 10}

	r.PushTransform(gg.Translate(5, 0), frame)
	r.PushAlpha(0.5)
	r.PushAlpha(0.5)
	clipRect(t, r, frame)
	fillRect(t, r, frame, red, nil)

	require.Len(t, r.Shapes(), 1)
	s := r.Shapes()[0]
	assert.InDelta(t, 0.25, s.Alpha, 1e-12)
	assert.Equal(t, 1, s.Clips)
	x, y := s.Transform.TransformPoint(0, 0)
	assert.Equal(t, [2]float64{5, 0}, [2]float64{x, y})
	assert.False(t, r.Balanced())

	require.NoError(t, r.PopClip())
	require.NoError(t, r.PopAlpha())
	require.NoError(t, r.PopAlpha())
	require.NoError(t, r.PopTransform())
	assert.True(t, r.Balanced())
	assert.Equal(t, 1.0, r.Alpha())

	kinds := make([]EventKind, 0, len(r.Events()))
	for _, e := range r.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{
		EventPushTransform, EventPushAlpha, EventPushAlpha, EventPushClip, EventShape,
		EventPopClip, EventPopAlpha, EventPopAlpha, EventPopTransform,
	}, kinds)
}

func TestRecorderTransformAnchorsOnFrame(t *testing.T) {
	r := NewRecorder()
	r.PushTransform(gg.Rotate(math.Pi), geom.Frame{X: 0, Y: 0, Width: 10, Height: 10})
	x, y := r.Transform().TransformPoint(0, 0)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)
}

func TestRecorderErrors(t *testing.T) {
	r := NewRecorder()
	assert.ErrorIs(t, r.PopTransform(), paint.ErrStackUnderflow)
	assert.ErrorIs(t, r.PopAlpha(), paint.ErrStackUnderflow)
	assert.ErrorIs(t, r.PopClip(), paint.ErrStackUnderflow)
	assert.ErrorIs(t, r.PushClip(), paint.ErrInvalidPaint)
	assert.ErrorIs(t, r.CommitShape(paint.PaintParams{}), paint.ErrInvalidPaint)

	r.BeginShape()
	assert.ErrorIs(t, r.CommitShape(paint.PaintParams{Stroke: &red}), paint.ErrInvalidPaint)
	assert.ErrorIs(t, r.DrawImage(nil, geom.Frame{}), paint.ErrInvalidPaint)
}

func TestRecorderJSON(t *testing.T) {
	r := NewRecorder()
	fillRect(t, r, geom.Frame{Width: 4, Height: 4}, red, nil)
	require.NoError(t, r.DrawText(paint.TextRun{Text: "hi", FontSize: 12}))

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var doc struct {
		Events []struct {
			Kind string `json:"kind"`
			Path []struct {
				Op string `json:"op"`
			} `json:"path"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Events, 2)
	assert.Equal(t, "shape", doc.Events[0].Kind)
	assert.Equal(t, "M", doc.Events[0].Path[0].Op)
	assert.Equal(t, "text", doc.Events[1].Kind)
}

// xmlBalanced decodes the whole document, which fails on mismatched tags.
func xmlBalanced(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	assert.Zero(t, depth)
}

func TestSVGDocument(t *testing.T) {
	var buf bytes.Buffer
	b := NewSVG(&buf, paint.Settings{Width: 100, Height: 50, DPI: 2}, faces(t))
	frame := geom.Frame{X: 10, Y: 10, Width: 20, Height: 20}

	b.Start()
	b.PushTransform(gg.Rotate(math.Pi/2), frame)
	b.PushAlpha(0.5)
	clipRect(t, b, frame)
	fillRect(t, b, frame, style.Color{R: 255, A: 0.5}, &paint.Shadow{Color: style.Color{A: 0.5}, Blur: 4, OffsetX: 1, OffsetY: 2})
	require.NoError(t, b.DrawText(paint.TextRun{Text: "a<b", Frame: frame, FontSize: 12, Color: style.Black, Align: style.AlignCenter}))
	require.NoError(t, b.DrawImage(image.NewRGBA(image.Rect(0, 0, 2, 2)), frame))
	require.NoError(t, b.PopClip())
	require.NoError(t, b.PopAlpha())
	require.NoError(t, b.PopTransform())
	require.NoError(t, b.End())

	doc := buf.String()
	xmlBalanced(t, doc)
	assert.Contains(t, doc, `width="200"`)
	assert.Contains(t, doc, `viewBox="0 0 100 50"`)
	assert.Contains(t, doc, `transform="matrix(0 1 -1 0 40 0)"`)
	assert.Contains(t, doc, `opacity="0.5"`)
	assert.Contains(t, doc, `<clipPath id="clip1"`)
	assert.Contains(t, doc, `clip-path="url(#clip1)"`)
	assert.Contains(t, doc, `fill="#ff0000"`)
	assert.Contains(t, doc, `fill-opacity="0.5"`)
	assert.Contains(t, doc, `filter="url(#shadow2)"`)
	assert.Contains(t, doc, `stdDeviation="2"`)
	assert.Contains(t, doc, `text-anchor="middle"`)
	assert.Contains(t, doc, "a&lt;b")
	assert.Contains(t, doc, "data:image/png;base64,")
}

func TestSVGStackErrors(t *testing.T) {
	var buf bytes.Buffer
	b := NewSVG(&buf, paint.Settings{Width: 10, Height: 10}, faces(t))
	b.Start()

	assert.ErrorIs(t, b.PopAlpha(), paint.ErrStackUnderflow)
	b.PushAlpha(0.5)
	assert.ErrorIs(t, b.PopTransform(), paint.ErrStackUnderflow)
	assert.ErrorIs(t, b.End(), ErrUnbalanced)
	xmlBalanced(t, buf.String())
}

func TestSVGSkipsUnpaintedShapes(t *testing.T) {
	var buf bytes.Buffer
	b := NewSVG(&buf, paint.Settings{Width: 10, Height: 10}, faces(t))
	b.Start()
	pb := b.BeginShape()
	geom.TraceRect(pb, geom.Frame{Width: 5, Height: 5}, geom.Sides{}, geom.Sides{}, false)
	require.NoError(t, b.CommitShape(paint.PaintParams{}))
	require.NoError(t, b.End())
	assert.NotContains(t, buf.String(), "<path")
}

func newCanvas(t *testing.T, s paint.Settings) (*gg.Context, *Canvas) {
	t.Helper()
	pw, ph := s.PixelSize()
	dc := gg.NewContext(pw, ph)
	dc.SetColor(color.White)
	dc.Clear()
	return dc, NewCanvas(dc, s, faces(t))
}

func pixel(dc *gg.Context, x, y int) color.RGBA {
	return color.RGBAModel.Convert(dc.Image().At(x, y)).(color.RGBA)
}

func TestCanvasFill(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 100, Height: 100})
	fillRect(t, c, geom.Frame{X: 10, Y: 10, Width: 50, Height: 50}, red, nil)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(dc, 30, 30))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 5, 5))
}

func TestCanvasAlpha(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 20, Height: 20})
	c.PushAlpha(0.5)
	fillRect(t, c, geom.Frame{Width: 20, Height: 20}, red, nil)
	require.NoError(t, c.PopAlpha())

	p := pixel(dc, 10, 10)
	assert.Equal(t, uint8(255), p.R)
	assert.InDelta(t, 127, int(p.G), 2)
}

func TestCanvasClip(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 100, Height: 100})
	clipRect(t, c, geom.Frame{Width: 50, Height: 50})
	clipRect(t, c, geom.Frame{X: 25, Y: 25, Width: 50, Height: 50})
	fillRect(t, c, geom.Frame{Width: 100, Height: 100}, red, nil)
	require.NoError(t, c.PopClip())
	require.NoError(t, c.PopClip())
	fillRect(t, c, geom.Frame{X: 80, Y: 80, Width: 20, Height: 20}, blue, nil)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(dc, 35, 35))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 10, 10))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 60, 60))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, pixel(dc, 90, 90))
	assert.ErrorIs(t, c.PopClip(), paint.ErrStackUnderflow)
}

func TestCanvasTransformAndDPI(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 100, Height: 100, DPI: 2})
	frame := geom.Frame{Width: 20, Height: 20}
	c.PushTransform(gg.Translate(40, 0), frame)
	fillRect(t, c, frame, red, nil)
	require.NoError(t, c.PopTransform())

	assert.Equal(t, 200, dc.Width())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(dc, 100, 20))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 20, 20))
}

func TestCanvasShadow(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 100, Height: 100})
	shadow := &paint.Shadow{Color: style.Black, OffsetX: 20, OffsetY: 20}
	fillRect(t, c, geom.Frame{X: 10, Y: 10, Width: 30, Height: 30}, red, shadow)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, pixel(dc, 20, 20))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(dc, 50, 50))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 80, 80))
}

func TestCanvasImage(t *testing.T) {
	dc, c := newCanvas(t, paint.Settings{Width: 40, Height: 40})
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		src.Set(i%2, i/2, color.RGBA{0, 0, 255, 255})
	}
	require.NoError(t, c.DrawImage(src, geom.Frame{X: 10, Y: 10, Width: 20, Height: 20}))

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, pixel(dc, 20, 20))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixel(dc, 5, 5))
}
