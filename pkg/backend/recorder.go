// Package backend provides drawing backends for the renderer: a command
// recorder, an SVG writer and a raster canvas.
package backend

import (
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/transform"
)

type EventKind string

const (
	EventPushTransform EventKind = "pushTransform"
	EventPopTransform  EventKind = "popTransform"
	EventPushAlpha     EventKind = "pushAlpha"
	EventPopAlpha      EventKind = "popAlpha"
	EventPushClip      EventKind = "pushClip"
	EventPopClip       EventKind = "popClip"
	EventShape         EventKind = "shape"
	EventText          EventKind = "text"
	EventImage         EventKind = "image"
)

// Event is one backend call as seen by the Recorder. Alpha is the pushed
// value for pushAlpha and the effective alpha for drawing events.
type Event struct {
	Kind   EventKind          `json:"kind"`
	Matrix *gg.Matrix         `json:"matrix,omitempty"`
	Frame  *geom.Frame        `json:"frame,omitempty"`
	Alpha  float64            `json:"alpha,omitempty"`
	Path   []geom.Element     `json:"path,omitempty"`
	Paint  *paint.PaintParams `json:"paint,omitempty"`
	Text   *paint.TextRun     `json:"text,omitempty"`
	Depth  int                `json:"depth"`
}

// Shape is a committed shape together with the paint state it was drawn in.
type Shape struct {
	Path      *geom.Path
	Params    paint.PaintParams
	Alpha     float64
	Transform gg.Matrix
	Clips     int
}

// ImageDraw is a recorded DrawImage call.
type ImageDraw struct {
	Bounds image.Rectangle
	Dst    geom.Frame
	Alpha  float64
}

// Recorder implements paint.Backend by logging every call. It tracks the
// effective transform and alpha so tests can inspect the state each shape
// was drawn in.
type Recorder struct {
	events     []Event
	shapes     []Shape
	texts      []paint.TextRun
	images     []ImageDraw
	transforms []gg.Matrix
	alphas     []float64
	clips      []*geom.Path
	shape      *geom.Path
	clip       *geom.Path
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) depth() int {
	return len(r.transforms) + len(r.alphas) + len(r.clips)
}

func (r *Recorder) record(e Event) {
	e.Depth = r.depth()
	r.events = append(r.events, e)
}

// Transform returns the effective transform.
func (r *Recorder) Transform() gg.Matrix {
	if len(r.transforms) == 0 {
		return gg.Identity()
	}
	return r.transforms[len(r.transforms)-1]
}

// Alpha returns the effective alpha.
func (r *Recorder) Alpha() float64 {
	if len(r.alphas) == 0 {
		return 1
	}
	return r.alphas[len(r.alphas)-1]
}

func (r *Recorder) PushTransform(m gg.Matrix, f geom.Frame) {
	local := transform.Anchor(m, f)
	r.transforms = append(r.transforms, local.Multiply(r.Transform()))
	r.record(Event{Kind: EventPushTransform, Matrix: &m, Frame: &f})
}

func (r *Recorder) PopTransform() error {
	if len(r.transforms) == 0 {
		return fmt.Errorf("pop transform: %w", paint.ErrStackUnderflow)
	}
	r.transforms = r.transforms[:len(r.transforms)-1]
	r.record(Event{Kind: EventPopTransform})
	return nil
}

func (r *Recorder) PushAlpha(a float64) {
	r.alphas = append(r.alphas, r.Alpha()*a)
	r.record(Event{Kind: EventPushAlpha, Alpha: a})
}

func (r *Recorder) PopAlpha() error {
	if len(r.alphas) == 0 {
		return fmt.Errorf("pop alpha: %w", paint.ErrStackUnderflow)
	}
	r.alphas = r.alphas[:len(r.alphas)-1]
	r.record(Event{Kind: EventPopAlpha})
	return nil
}

func (r *Recorder) BeginClip() geom.PathBuilder {
	r.clip = geom.NewPath()
	return r.clip
}

func (r *Recorder) PushClip() error {
	if r.clip == nil {
		return fmt.Errorf("push clip without BeginClip: %w", paint.ErrInvalidPaint)
	}
	p := r.clip
	r.clip = nil
	r.clips = append(r.clips, p)
	r.record(Event{Kind: EventPushClip, Path: p.Elements()})
	return nil
}

func (r *Recorder) PopClip() error {
	if len(r.clips) == 0 {
		return fmt.Errorf("pop clip: %w", paint.ErrStackUnderflow)
	}
	r.clips = r.clips[:len(r.clips)-1]
	r.record(Event{Kind: EventPopClip})
	return nil
}

func (r *Recorder) BeginShape() geom.PathBuilder {
	r.shape = geom.NewPath()
	return r.shape
}

func (r *Recorder) CommitShape(p paint.PaintParams) error {
	if r.shape == nil {
		return fmt.Errorf("commit without BeginShape: %w", paint.ErrInvalidPaint)
	}
	path := r.shape
	r.shape = nil
	if err := p.Validate(path); err != nil {
		return err
	}
	r.shapes = append(r.shapes, Shape{
		Path:      path,
		Params:    p,
		Alpha:     r.Alpha(),
		Transform: r.Transform(),
		Clips:     len(r.clips),
	})
	r.record(Event{Kind: EventShape, Path: path.Elements(), Paint: &p, Alpha: r.Alpha()})
	return nil
}

func (r *Recorder) DrawText(t paint.TextRun) error {
	r.texts = append(r.texts, t)
	r.record(Event{Kind: EventText, Text: &t, Alpha: r.Alpha()})
	return nil
}

func (r *Recorder) DrawImage(img image.Image, dst geom.Frame) error {
	if img == nil {
		return fmt.Errorf("draw image: %w: nil image", paint.ErrInvalidPaint)
	}
	r.images = append(r.images, ImageDraw{Bounds: img.Bounds(), Dst: dst, Alpha: r.Alpha()})
	r.record(Event{Kind: EventImage, Frame: &dst, Alpha: r.Alpha()})
	return nil
}

// Events returns every recorded call in order.
func (r *Recorder) Events() []Event {
	return r.events
}

// Shapes returns the committed shapes in paint order.
func (r *Recorder) Shapes() []Shape {
	return r.shapes
}

func (r *Recorder) Texts() []paint.TextRun {
	return r.texts
}

func (r *Recorder) Images() []ImageDraw {
	return r.images
}

// Balanced reports whether every push has been popped.
func (r *Recorder) Balanced() bool {
	return r.depth() == 0
}

// WriteJSON writes the event log as indented JSON.
func (r *Recorder) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Events []Event `json:"events"`
	}{r.events})
}
