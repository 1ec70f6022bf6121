// Package render walks a tree of styled boxes and issues drawing commands to
// a backend, keeping the backend's transform, alpha and clip stacks balanced.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/fogleman/gg"

	"boxpaint/pkg/backend"
	"boxpaint/pkg/geom"
	"boxpaint/pkg/images"
	"boxpaint/pkg/logging"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
	"boxpaint/pkg/transform"
)

// Renderer paints node trees onto one backend. Nil Images, Faces and Logger
// fields fall back to defaults on first use.
type Renderer struct {
	Backend  paint.Backend
	Settings paint.Settings
	Images   *images.Loader
	Faces    *text.Faces
	Logger   *slog.Logger
}

// Option configures the renderer used by the RenderTo functions.
type Option func(*Renderer)

// WithImages sets the image loader.
func WithImages(l *images.Loader) Option {
	return func(r *Renderer) { r.Images = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.Logger = l }
}

// WithFaces sets the faces text nodes draw with. Text measurement happens
// before rendering, so nodes that must measure with the same faces need
// Node.SetFaces.
func WithFaces(f *text.Faces) Option {
	return func(r *Renderer) { r.Faces = f }
}

func (r *Renderer) setup() error {
	if r.Backend == nil {
		return errors.New("renderer has no backend")
	}
	if r.Logger == nil {
		r.Logger = logging.Logger()
	}
	if r.Images == nil {
		r.Images = images.NewLoader("", nil)
	}
	if r.Faces == nil {
		faces, err := text.Default()
		if err != nil {
			return fmt.Errorf("loading fonts: %w", err)
		}
		r.Faces = faces
	}
	return nil
}

// Render paints root and its descendants. Image loads for the whole tree are
// started up front and awaited in paint order. ctx is only consulted while
// waiting for images.
func (r *Renderer) Render(ctx context.Context, root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidTreeOperation)
	}
	if err := r.setup(); err != nil {
		return err
	}
	dc := &DrawContext{
		Backend:  r.Backend,
		Settings: r.Settings,
		Faces:    r.Faces,
		Images:   r.Images,
		Logger:   r.Logger,
		futures:  make(map[*Node]*images.Future),
	}
	prefetch(ctx, dc, root)
	return r.render(ctx, dc, root, geom.Point{})
}

func prefetch(ctx context.Context, dc *DrawContext, n *Node) {
	if n.style.Display == style.DisplayNone {
		return
	}
	if n.kind == KindImage && n.source != "" {
		dc.future(ctx, n)
	}
	for _, child := range n.paintChildren() {
		prefetch(ctx, dc, child)
	}
}

func (r *Renderer) render(ctx context.Context, dc *DrawContext, n *Node, parentOffset geom.Point) (err error) {
	st := n.style
	if st.Display == style.DisplayNone {
		return nil
	}
	if n.frame == nil {
		return fmt.Errorf("render %s node: %w", n.kind, ErrMissingFrame)
	}
	frame := *n.frame
	screen := frame.Offset(parentOffset)
	b := r.Backend

	n.rendering = true
	defer func() { n.rendering = false }()

	if st.Transform != nil {
		b.PushTransform(transform.Process(st.Transform), frame)
		defer func() { err = errors.Join(err, b.PopTransform()) }()
	}
	if st.HasOpacity && st.Opacity != 1 {
		b.PushAlpha(st.Opacity)
		defer func() { err = errors.Join(err, b.PopAlpha()) }()
	}
	if st.Overflow == style.OverflowHidden {
		pb := b.BeginClip()
		paint.Clip(pb, screen, r.Settings, st)
		if err := b.PushClip(); err != nil {
			return fmt.Errorf("clip %s node: %w", n.kind, err)
		}
		defer func() { err = errors.Join(err, b.PopClip()) }()
	}

	r.Logger.Debug("render node", "kind", n.kind, "frame", screen, "children", len(n.children))

	if n.drawer != nil {
		if err := n.drawer.Draw(ctx, dc, n, screen); err != nil {
			return fmt.Errorf("draw %s node: %w", n.kind, err)
		}
	}

	offset := screen.Origin()
	for _, child := range n.paintChildren() {
		if err := r.render(ctx, dc, child, offset); err != nil {
			return err
		}
	}
	return nil
}

func newRenderer(b paint.Backend, s paint.Settings, opts []Option) (*Renderer, error) {
	r := &Renderer{Backend: b, Settings: s}
	for _, opt := range opts {
		opt(r)
	}
	if r.Faces == nil {
		faces, err := text.Default()
		if err != nil {
			return nil, fmt.Errorf("loading fonts: %w", err)
		}
		r.Faces = faces
	}
	return r, nil
}

// RenderToSVG writes root as a complete SVG document.
func RenderToSVG(ctx context.Context, w io.Writer, root *Node, s paint.Settings, opts ...Option) error {
	r, err := newRenderer(nil, s, opts)
	if err != nil {
		return err
	}
	svg := backend.NewSVG(w, s, r.Faces)
	r.Backend = svg
	svg.Start()
	err = r.Render(ctx, root)
	return errors.Join(err, svg.End())
}

// RenderToCanvas draws root into dc, which must be sized for the settings'
// DPI.
func RenderToCanvas(ctx context.Context, dc *gg.Context, root *Node, s paint.Settings, opts ...Option) error {
	r, err := newRenderer(nil, s, opts)
	if err != nil {
		return err
	}
	r.Backend = backend.NewCanvas(dc, s, r.Faces)
	return r.Render(ctx, root)
}

// RenderToImage rasterises root onto a new transparent image of the
// settings' pixel size.
func RenderToImage(ctx context.Context, root *Node, s paint.Settings, opts ...Option) (image.Image, error) {
	w, h := s.PixelSize()
	dc := gg.NewContext(w, h)
	if err := RenderToCanvas(ctx, dc, root, s, opts...); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// RecordCommands renders root into a command recorder.
func RecordCommands(ctx context.Context, root *Node, s paint.Settings, opts ...Option) (*backend.Recorder, error) {
	r, err := newRenderer(nil, s, opts)
	if err != nil {
		return nil, err
	}
	rec := backend.NewRecorder()
	r.Backend = rec
	if err := r.Render(ctx, root); err != nil {
		return rec, err
	}
	return rec, nil
}
