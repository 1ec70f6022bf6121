package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/images"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
)

// DrawContext is what a drawer needs from the running pass.
type DrawContext struct {
	Backend  paint.Backend
	Settings paint.Settings
	Faces    *text.Faces
	Images   *images.Loader
	Logger   *slog.Logger

	futures map[*Node]*images.Future
}

// Drawer paints a node's own content at its absolute frame. Children are
// handled by the renderer.
type Drawer interface {
	Draw(ctx context.Context, dc *DrawContext, n *Node, screen geom.Frame) error
}

type viewDrawer struct{}

func (viewDrawer) Draw(_ context.Context, dc *DrawContext, n *Node, screen geom.Frame) error {
	return paint.PaintBox(dc.Backend, screen, dc.Settings, n.style, true)
}

type textDrawer struct{}

func textStyle(st *style.Resolved) text.Style {
	return text.Style{Size: st.FontSize, Bold: st.Bold(), Family: st.FontFamily}
}

// Draw paints the box without a shadow, then one text run per wrapped line.
func (textDrawer) Draw(_ context.Context, dc *DrawContext, n *Node, screen geom.Frame) error {
	st := n.style
	if err := paint.PaintBox(dc.Backend, screen, dc.Settings, st, false); err != nil {
		return err
	}
	if n.text == "" {
		return nil
	}

	faces := n.textFaces(dc.Faces)
	ts := textStyle(st)
	lineHeight := faces.Metrics(ts).LineHeight
	for i, line := range faces.BreakLines(n.text, ts, screen.Width) {
		run := paint.TextRun{
			Text:     line,
			Frame:    geom.Frame{X: screen.X, Y: screen.Y + float64(i)*lineHeight, Width: screen.Width, Height: lineHeight},
			Color:    st.Color,
			FontSize: st.FontSize,
			Bold:     ts.Bold,
			Family:   st.FontFamily,
			Align:    st.TextAlign,
		}
		if err := dc.Backend.DrawText(run); err != nil {
			return fmt.Errorf("draw text: %w", err)
		}
	}
	return nil
}

func measureText(n *Node) MeasureFunc {
	return func(maxWidth float64) (float64, float64) {
		faces := n.textFaces(nil)
		if faces == nil {
			var err error
			if faces, err = text.Default(); err != nil {
				return 0, 0
			}
		}
		return faces.Measure(n.text, textStyle(n.style), maxWidth)
	}
}

type imageDrawer struct{}

// Draw paints the box, then waits for the image and draws it fitted to the
// frame. An image that fails to load is logged and left out.
func (imageDrawer) Draw(ctx context.Context, dc *DrawContext, n *Node, screen geom.Frame) error {
	if err := paint.PaintBox(dc.Backend, screen, dc.Settings, n.style, true); err != nil {
		return err
	}
	if n.source == "" {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := dc.future(ctx, n).Await(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		dc.Logger.Warn("image not drawn", "source", n.source, "error", err)
		return nil
	}

	b := img.Bounds()
	mode := resizeMode(n)
	dst := fit(mode, b.Dx(), b.Dy(), screen)
	if mode != style.ResizeCover {
		return drawImage(dc.Backend, img, dst)
	}

	pb := dc.Backend.BeginClip()
	paint.Clip(pb, screen, dc.Settings, n.style)
	if err := dc.Backend.PushClip(); err != nil {
		return err
	}
	return errors.Join(drawImage(dc.Backend, img, dst), dc.Backend.PopClip())
}

func drawImage(b paint.Backend, img image.Image, dst geom.Frame) error {
	if err := b.DrawImage(img, dst); err != nil {
		return fmt.Errorf("draw image: %w", err)
	}
	return nil
}

// future returns the pending load for n, starting one if the pass did not
// prefetch it.
func (dc *DrawContext) future(ctx context.Context, n *Node) *images.Future {
	if f, ok := dc.futures[n]; ok {
		return f
	}
	f := dc.Images.Start(ctx, n.source)
	if dc.futures == nil {
		dc.futures = make(map[*Node]*images.Future)
	}
	dc.futures[n] = f
	return f
}

// resizeMode reads the resizeMode prop, falling back to the style.
func resizeMode(n *Node) style.ResizeMode {
	switch m := style.ResizeMode(fmt.Sprint(n.props["resizeMode"])); m {
	case style.ResizeStretch, style.ResizeCover, style.ResizeContain:
		return m
	}
	return n.style.ResizeMode
}

// fit places an iw×ih image inside frame f. Stretch fills the frame, contain
// fits the whole image and cover fills the frame, both keeping the aspect
// ratio and centred.
func fit(mode style.ResizeMode, iw, ih int, f geom.Frame) geom.Frame {
	if iw <= 0 || ih <= 0 || mode == style.ResizeStretch {
		return f
	}
	sx, sy := f.Width/float64(iw), f.Height/float64(ih)
	k := min(sx, sy)
	if mode == style.ResizeCover {
		k = max(sx, sy)
	}
	w, h := float64(iw)*k, float64(ih)*k
	return geom.Frame{
		X:      f.X + (f.Width-w)/2,
		Y:      f.Y + (f.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
