package backend

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/fogleman/gg"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
	"boxpaint/pkg/transform"
)

// Canvas draws into a caller-owned gg context. Paths are transformed to
// device space before they reach gg, so gg's own matrix is only used for
// text and images. Clips are kept as a stack of alpha masks because gg
// cannot restore a previous clip.
type Canvas struct {
	dc     *gg.Context
	faces  *text.Faces
	w, h   int
	base   gg.Matrix
	matrix []gg.Matrix
	alphas []float64
	masks  []*image.Alpha
	shape  *geom.Path
	clip   *geom.Path
}

// NewCanvas wraps dc. Layout units are scaled by the settings' DPI.
func NewCanvas(dc *gg.Context, s paint.Settings, faces *text.Faces) *Canvas {
	k := s.Scale()
	return &Canvas{
		dc:    dc,
		faces: faces,
		w:     dc.Width(),
		h:     dc.Height(),
		base:  gg.Scale(k, k),
	}
}

func (c *Canvas) current() gg.Matrix {
	if len(c.matrix) == 0 {
		return c.base
	}
	return c.matrix[len(c.matrix)-1]
}

func (c *Canvas) alpha() float64 {
	if len(c.alphas) == 0 {
		return 1
	}
	return c.alphas[len(c.alphas)-1]
}

func (c *Canvas) mask() *image.Alpha {
	if len(c.masks) == 0 {
		return nil
	}
	return c.masks[len(c.masks)-1]
}

func (c *Canvas) PushTransform(m gg.Matrix, f geom.Frame) {
	c.matrix = append(c.matrix, transform.Anchor(m, f).Multiply(c.current()))
}

func (c *Canvas) PopTransform() error {
	if len(c.matrix) == 0 {
		return fmt.Errorf("pop transform: %w", paint.ErrStackUnderflow)
	}
	c.matrix = c.matrix[:len(c.matrix)-1]
	return nil
}

func (c *Canvas) PushAlpha(a float64) {
	c.alphas = append(c.alphas, c.alpha()*a)
}

func (c *Canvas) PopAlpha() error {
	if len(c.alphas) == 0 {
		return fmt.Errorf("pop alpha: %w", paint.ErrStackUnderflow)
	}
	c.alphas = c.alphas[:len(c.alphas)-1]
	return nil
}

func (c *Canvas) BeginClip() geom.PathBuilder {
	c.clip = geom.NewPath()
	return c.clip
}

func (c *Canvas) PushClip() error {
	if c.clip == nil {
		return fmt.Errorf("push clip without BeginClip: %w", paint.ErrInvalidPaint)
	}
	scratch := gg.NewContext(c.w, c.h)
	replay(scratch, c.clip.Transform(c.current()))
	scratch.SetColor(color.White)
	scratch.Fill()
	m := scratch.AsMask()
	if prev := c.mask(); prev != nil {
		intersect(m, prev)
	}
	c.masks = append(c.masks, m)
	c.clip = nil
	return c.applyMask()
}

func (c *Canvas) PopClip() error {
	if len(c.masks) == 0 {
		return fmt.Errorf("pop clip: %w", paint.ErrStackUnderflow)
	}
	c.masks = c.masks[:len(c.masks)-1]
	return c.applyMask()
}

func (c *Canvas) applyMask() error {
	m := c.mask()
	if m == nil {
		c.dc.ResetClip()
		return nil
	}
	if err := c.dc.SetMask(m); err != nil {
		return fmt.Errorf("set clip mask: %w", err)
	}
	return nil
}

func intersect(dst, other *image.Alpha) {
	for i := range dst.Pix {
		dst.Pix[i] = uint8(uint16(dst.Pix[i]) * uint16(other.Pix[i]) / 255)
	}
}

func (c *Canvas) BeginShape() geom.PathBuilder {
	c.shape = geom.NewPath()
	return c.shape
}

func (c *Canvas) CommitShape(p paint.PaintParams) error {
	if c.shape == nil {
		return fmt.Errorf("commit without BeginShape: %w", paint.ErrInvalidPaint)
	}
	path := c.shape
	c.shape = nil
	if err := p.Validate(path); err != nil {
		return err
	}
	if path.Empty() || (p.Fill == nil && p.Stroke == nil) {
		return nil
	}

	m := c.current()
	device := path.Transform(m)
	scale := transform.LineScale(m)

	if p.Shadow != nil {
		c.drawShadow(device, p, scale)
	}

	c.dc.Identity()
	c.dc.ClearPath()
	replay(c.dc, device)
	if p.Fill != nil {
		c.dc.SetColor(c.withAlpha(*p.Fill))
		c.dc.FillPreserve()
	}
	if p.Stroke != nil {
		c.setStroke(c.dc, p, scale)
		c.dc.SetColor(c.withAlpha(*p.Stroke))
		c.dc.StrokePreserve()
	}
	c.dc.ClearPath()
	return nil
}

func (c *Canvas) setStroke(dc *gg.Context, p paint.PaintParams, scale float64) {
	dc.SetLineWidth(p.LineWidth * scale)
	dash := make([]float64, len(p.Dash))
	for i, d := range p.Dash {
		dash[i] = d * scale
	}
	dc.SetDash(dash...)
}

// drawShadow paints the shape in the shadow colour on a scratch surface,
// blurs it and composites it under the current clip. The offset is in
// device space, unaffected by the transform.
func (c *Canvas) drawShadow(device *geom.Path, p paint.PaintParams, scale float64) {
	sc := c.withAlpha(p.Shadow.Color)
	if sc.A == 0 {
		return
	}
	k := c.base.XX
	scratch := gg.NewContext(c.w, c.h)
	scratch.Translate(p.Shadow.OffsetX*k, p.Shadow.OffsetY*k)
	replay(scratch, device)
	scratch.SetColor(sc)
	if p.Fill != nil {
		scratch.FillPreserve()
	}
	if p.Stroke != nil {
		c.setStroke(scratch, p, scale)
		scratch.StrokePreserve()
	}

	var img image.Image = scratch.Image()
	if p.Shadow.Blur > 0 {
		img = blur.Gaussian(img, p.Shadow.Blur*k/2)
	}
	c.dc.Identity()
	c.dc.DrawImage(img, 0, 0)
}

func (c *Canvas) withAlpha(col style.Color) color.NRGBA {
	return col.WithAlpha(c.alpha()).NRGBA()
}

func (c *Canvas) DrawText(t paint.TextRun) error {
	ts := text.Style{Size: t.FontSize, Bold: t.Bold, Family: t.Family}
	m := c.current()
	k := transform.LineScale(m)
	if k == 0 || t.Text == "" {
		return nil
	}

	// Rasterise glyphs at device size, then undo that scale in the matrix
	// so only rotation and skew are resampled.
	device := ts
	device.Size = t.FontSize * k
	parts, ok := transform.Decompose(gg.Scale(1/k, 1/k).Multiply(m))
	if !ok {
		return nil
	}
	parts.Apply(c.dc)
	c.dc.SetFontFace(c.faces.Face(device))
	c.dc.SetColor(c.withAlpha(t.Color))

	x, ax := t.Frame.X, 0.0
	switch t.Align {
	case style.AlignCenter:
		x, ax = t.Frame.X+t.Frame.Width/2, 0.5
	case style.AlignRight:
		x, ax = t.Frame.X+t.Frame.Width, 1
	}
	y := t.Frame.Y + c.faces.Metrics(ts).Ascent
	c.dc.DrawStringAnchored(t.Text, x*k, y*k, ax, 0)
	c.dc.Identity()
	return nil
}

func (c *Canvas) DrawImage(img image.Image, dst geom.Frame) error {
	if img == nil {
		return fmt.Errorf("draw image: %w: nil image", paint.ErrInvalidPaint)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || dst.Width == 0 || dst.Height == 0 {
		return nil
	}
	place := gg.Scale(dst.Width/float64(b.Dx()), dst.Height/float64(b.Dy())).
		Multiply(gg.Translate(dst.X, dst.Y)).
		Multiply(c.current())
	parts, ok := transform.Decompose(place)
	if !ok {
		return nil
	}
	if a := c.alpha(); a < 1 {
		img = fade(img, a)
	}
	o := img.Bounds().Min
	parts.Apply(c.dc)
	c.dc.DrawImage(img, -o.X, -o.Y)
	c.dc.Identity()
	return nil
}

// fade returns a copy of img with its alpha scaled by a.
func fade(img image.Image, a float64) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.DrawMask(out, out.Bounds(), img, b.Min, image.NewUniform(color.Alpha{A: uint8(math.Round(a * 255))}), image.Point{}, draw.Src)
	return out
}

func replay(dc *gg.Context, p *geom.Path) {
	for _, e := range p.Elements() {
		switch e.Op {
		case geom.OpMove:
			dc.MoveTo(e.Pts[0].X, e.Pts[0].Y)
		case geom.OpLine:
			dc.LineTo(e.Pts[0].X, e.Pts[0].Y)
		case geom.OpCubic:
			dc.CubicTo(e.Pts[0].X, e.Pts[0].Y, e.Pts[1].X, e.Pts[1].Y, e.Pts[2].X, e.Pts[2].Y)
		case geom.OpClose:
			dc.ClosePath()
		}
	}
}
