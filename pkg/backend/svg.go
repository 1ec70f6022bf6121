package backend

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
	"boxpaint/pkg/transform"
)

// ErrUnbalanced is returned when a document is finished with paint state
// still pushed.
var ErrUnbalanced = errors.New("unbalanced paint state")

type groupKind uint8

const (
	groupTransform groupKind = iota
	groupAlpha
	groupClip
)

func (k groupKind) String() string {
	switch k {
	case groupTransform:
		return "transform"
	case groupAlpha:
		return "alpha"
	}
	return "clip"
}

// SVG streams drawing commands as an SVG document. Every piece of paint state
// becomes a nested <g> element, so the document mirrors the render tree.
type SVG struct {
	canvas   *svg.SVG
	settings paint.Settings
	faces    *text.Faces
	groups   []groupKind
	shape    *geom.Path
	clip     *geom.Path
	ids      int
}

// NewSVG returns a backend writing to w. Call Start before drawing and End
// once done.
func NewSVG(w io.Writer, s paint.Settings, faces *text.Faces) *SVG {
	return &SVG{canvas: svg.New(w), settings: s, faces: faces}
}

// Start writes the document header. The document is sized in device pixels
// with a viewBox in layout units.
func (b *SVG) Start() {
	pw, ph := b.settings.PixelSize()
	b.canvas.Startview(pw, ph, 0, 0, b.settings.Width, b.settings.Height)
}

// End closes the document. Groups still open are closed and reported.
func (b *SVG) End() error {
	open := len(b.groups)
	for range b.groups {
		b.canvas.Gend()
	}
	b.groups = nil
	b.canvas.End()
	if open > 0 {
		return fmt.Errorf("svg: %d groups left open: %w", open, ErrUnbalanced)
	}
	return nil
}

func (b *SVG) nextID(prefix string) string {
	b.ids++
	return prefix + strconv.Itoa(b.ids)
}

func (b *SVG) pop(kind groupKind) error {
	if len(b.groups) == 0 {
		return fmt.Errorf("pop %s: %w", kind, paint.ErrStackUnderflow)
	}
	if top := b.groups[len(b.groups)-1]; top != kind {
		return fmt.Errorf("pop %s with %s on top: %w", kind, top, paint.ErrStackUnderflow)
	}
	b.groups = b.groups[:len(b.groups)-1]
	b.canvas.Gend()
	return nil
}

func (b *SVG) PushTransform(m gg.Matrix, f geom.Frame) {
	b.canvas.Gtransform(matrixAttr(transform.Anchor(m, f)))
	b.groups = append(b.groups, groupTransform)
}

func (b *SVG) PopTransform() error {
	return b.pop(groupTransform)
}

func (b *SVG) PushAlpha(a float64) {
	b.canvas.Group(`opacity="` + num(a) + `"`)
	b.groups = append(b.groups, groupAlpha)
}

func (b *SVG) PopAlpha() error {
	return b.pop(groupAlpha)
}

func (b *SVG) BeginClip() geom.PathBuilder {
	b.clip = geom.NewPath()
	return b.clip
}

func (b *SVG) PushClip() error {
	if b.clip == nil {
		return fmt.Errorf("push clip without BeginClip: %w", paint.ErrInvalidPaint)
	}
	id := b.nextID("clip")
	b.canvas.Def()
	b.canvas.ClipPath(`id="` + id + `"`)
	b.canvas.Path(b.clip.Data())
	b.canvas.ClipEnd()
	b.canvas.DefEnd()
	b.canvas.Group(`clip-path="url(#` + id + `)"`)
	b.groups = append(b.groups, groupClip)
	b.clip = nil
	return nil
}

func (b *SVG) PopClip() error {
	return b.pop(groupClip)
}

func (b *SVG) BeginShape() geom.PathBuilder {
	b.shape = geom.NewPath()
	return b.shape
}

func (b *SVG) CommitShape(p paint.PaintParams) error {
	if b.shape == nil {
		return fmt.Errorf("commit without BeginShape: %w", paint.ErrInvalidPaint)
	}
	path := b.shape
	b.shape = nil
	if err := p.Validate(path); err != nil {
		return err
	}
	if path.Empty() || (p.Fill == nil && p.Stroke == nil) {
		return nil
	}

	attrs := make([]string, 0, 8)
	attrs = append(attrs, colorAttrs("fill", p.Fill)...)
	if p.Stroke != nil {
		attrs = append(attrs, colorAttrs("stroke", p.Stroke)...)
		attrs = append(attrs, `stroke-width="`+num(p.LineWidth)+`"`)
		if len(p.Dash) > 0 {
			attrs = append(attrs, `stroke-dasharray="`+nums(p.Dash, ",")+`"`)
		}
	}
	if p.Shadow != nil {
		attrs = append(attrs, `filter="url(#`+b.shadowFilter(*p.Shadow)+`)"`)
	}
	b.canvas.Path(path.Data(), attrs...)
	return nil
}

// shadowFilter defines a drop shadow filter and returns its id. Canvas blur
// is twice the gaussian standard deviation.
func (b *SVG) shadowFilter(s paint.Shadow) string {
	id := b.nextID("shadow")
	b.canvas.Def()
	b.canvas.Filter(id, `x="-50%"`, `y="-50%"`, `width="200%"`, `height="200%"`)
	fmt.Fprintf(b.canvas.Writer, `<feDropShadow dx="%s" dy="%s" stdDeviation="%s" flood-color="%s" flood-opacity="%s"/>`+"\n",
		num(s.OffsetX), num(s.OffsetY), num(s.Blur/2), s.Color.Hex(), num(s.Color.A))
	b.canvas.Fend()
	b.canvas.DefEnd()
	return id
}

func (b *SVG) DrawText(t paint.TextRun) error {
	ts := text.Style{Size: t.FontSize, Bold: t.Bold, Family: t.Family}
	x, anchor := t.Frame.X, "start"
	switch t.Align {
	case style.AlignCenter:
		x, anchor = t.Frame.X+t.Frame.Width/2, "middle"
	case style.AlignRight:
		x, anchor = t.Frame.X+t.Frame.Width, "end"
	}
	y := t.Frame.Y + b.faces.Metrics(ts).Ascent

	family := "Go, sans-serif"
	if ts.Mono() {
		family = "Go Mono, monospace"
	}
	weight := "normal"
	if t.Bold {
		weight = "bold"
	}

	b.canvas.Gtransform("translate(" + num(x) + " " + num(y) + ")")
	attrs := []string{
		`font-family="` + family + `"`,
		`font-size="` + num(t.FontSize) + `"`,
		`font-weight="` + weight + `"`,
		`text-anchor="` + anchor + `"`,
	}
	attrs = append(attrs, colorAttrs("fill", &t.Color)...)
	b.canvas.Text(0, 0, t.Text, attrs...)
	b.canvas.Gend()
	return nil
}

func (b *SVG) DrawImage(img image.Image, dst geom.Frame) error {
	if img == nil {
		return fmt.Errorf("draw image: %w: nil image", paint.ErrInvalidPaint)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	if iw == 0 || ih == 0 {
		return nil
	}
	href := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	b.canvas.Gtransform(fmt.Sprintf("translate(%s %s) scale(%s %s)",
		num(dst.X), num(dst.Y), num(dst.Width/float64(iw)), num(dst.Height/float64(ih))))
	b.canvas.Image(0, 0, iw, ih, href, `preserveAspectRatio="none"`)
	b.canvas.Gend()
	return nil
}

func matrixAttr(m gg.Matrix) string {
	return "matrix(" + nums([]float64{m.XX, m.YX, m.XY, m.YY, m.X0, m.Y0}, " ") + ")"
}

func colorAttrs(name string, c *style.Color) []string {
	if c == nil {
		return []string{name + `="none"`}
	}
	attrs := []string{name + `="` + c.Hex() + `"`}
	if !c.Opaque() {
		attrs = append(attrs, name+`-opacity="`+num(c.A)+`"`)
	}
	return attrs
}

func num(v float64) string {
	v = geom.Round6(v)
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nums(vs []float64, sep string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = num(v)
	}
	return strings.Join(parts, sep)
}
