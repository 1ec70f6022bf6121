// Package paint defines the drawing backend contract and the box painter
// that turns a frame and a resolved style into background, border and shadow
// shapes.
package paint

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/style"
)

var (
	// ErrStackUnderflow is returned when a pop has no matching push.
	ErrStackUnderflow = errors.New("paint state stack underflow")
	// ErrInvalidPaint is returned by CommitShape for malformed parameters.
	ErrInvalidPaint = errors.New("invalid paint parameters")
)

// Backend receives drawing commands. Push and pop calls are strictly nested
// and all calls come from one goroutine.
type Backend interface {
	// PushTransform applies m pivoted on the centre of f.
	PushTransform(m gg.Matrix, f geom.Frame)
	PopTransform() error
	// PushAlpha multiplies the current alpha by a.
	PushAlpha(a float64)
	PopAlpha() error
	// BeginClip starts a clip path; PushClip intersects it with the
	// active clip.
	BeginClip() geom.PathBuilder
	PushClip() error
	PopClip() error
	// BeginShape starts a path that CommitShape paints.
	BeginShape() geom.PathBuilder
	CommitShape(p PaintParams) error
	DrawText(t TextRun) error
	DrawImage(img image.Image, dst geom.Frame) error
}

// Shadow is a drop shadow attached to a shape. The colour already includes
// the shadow opacity.
type Shadow struct {
	Color   style.Color
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// PaintParams describe how a committed shape is painted. A nil Fill or
// Stroke means that part is not painted.
type PaintParams struct {
	Fill      *style.Color
	Stroke    *style.Color
	LineWidth float64
	Dash      []float64
	Shadow    *Shadow
}

// Validate checks the parameters together with the committed path.
func (p PaintParams) Validate(path *geom.Path) error {
	if p.LineWidth < 0 || math.IsNaN(p.LineWidth) {
		return fmt.Errorf("%w: line width %g", ErrInvalidPaint, p.LineWidth)
	}
	if p.Stroke != nil && p.LineWidth == 0 {
		return fmt.Errorf("%w: stroke without line width", ErrInvalidPaint)
	}
	for _, d := range p.Dash {
		if d < 0 {
			return fmt.Errorf("%w: negative dash length", ErrInvalidPaint)
		}
	}
	if p.Shadow != nil && p.Shadow.Blur < 0 {
		return fmt.Errorf("%w: negative shadow blur", ErrInvalidPaint)
	}
	if path != nil && !path.Finite() {
		return fmt.Errorf("%w: path has non-finite coordinates", ErrInvalidPaint)
	}
	return nil
}

// TextRun is a single line of text positioned inside a frame.
type TextRun struct {
	Text     string
	Frame    geom.Frame
	Color    style.Color
	FontSize float64
	Bold     bool
	Family   string
	Align    style.TextAlign
}

// Settings describe the output surface.
type Settings struct {
	Width    int
	Height   int
	DPI      float64
	Platform string
}

// PlatformIOS selects continuous corner rendering.
const PlatformIOS = "ios"

// Scale returns the device pixel ratio; a DPI of zero or less means 1.
func (s Settings) Scale() float64 {
	if s.DPI <= 0 {
		return 1
	}
	return s.DPI
}

// ContinuousCorners reports whether rounded boxes use continuous corners.
func (s Settings) ContinuousCorners() bool {
	return s.Platform == PlatformIOS
}

// PixelSize returns the output size in device pixels.
func (s Settings) PixelSize() (int, int) {
	k := s.Scale()
	return int(math.Ceil(float64(s.Width) * k)), int(math.Ceil(float64(s.Height) * k))
}
