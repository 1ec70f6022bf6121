package render

import (
	"errors"
	"fmt"
	"slices"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/style"
	"boxpaint/pkg/text"
)

var (
	// ErrInvalidTreeOperation is returned when a mutation refers to a node
	// that is not a child of the receiver.
	ErrInvalidTreeOperation = errors.New("invalid tree operation")
	// ErrRenderInProgress is returned when a node is mutated while it or
	// one of its ancestors is being rendered.
	ErrRenderInProgress = errors.New("tree mutated during render")
	// ErrMissingFrame is returned when a node reaches render without a
	// frame.
	ErrMissingFrame = errors.New("node has no frame")
)

type Kind int

const (
	KindView Kind = iota
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MeasureFunc reports the size a leaf wants when laid out at maxWidth.
type MeasureFunc func(maxWidth float64) (width, height float64)

// StyleFlattener merges the style prop into one property map before it is
// resolved. It can be replaced to support other style representations.
var StyleFlattener style.Flattener = style.Flatten

// Node is one box in the render tree. Frames are assigned from outside and
// are relative to the parent's frame.
type Node struct {
	kind   Kind
	drawer Drawer

	parent   *Node
	children []*Node

	props   style.Props
	style   *style.Resolved
	frame   *geom.Frame
	measure MeasureFunc

	text   string
	source string
	faces  *text.Faces

	rendering bool
}

func newNode(kind Kind, drawer Drawer, props style.Props) (*Node, error) {
	n := &Node{kind: kind, drawer: drawer, style: style.Default()}
	if err := n.SetProps(props); err != nil {
		return nil, err
	}
	return n, nil
}

// NewView creates a plain box.
func NewView(props style.Props) (*Node, error) {
	return newNode(KindView, viewDrawer{}, props)
}

// NewText creates a text leaf. It measures itself (see SetFaces), so any
// children it is given are never painted.
func NewText(text string, props style.Props) (*Node, error) {
	n, err := newNode(KindText, textDrawer{}, props)
	if err != nil {
		return nil, err
	}
	n.text = text
	n.measure = measureText(n)
	return n, nil
}

// NewImage creates an image box. source is a file path relative to the
// loader's base directory, a data URI or an HTTP(S) URL.
func NewImage(source string, props style.Props) (*Node, error) {
	n, err := newNode(KindImage, imageDrawer{}, props)
	if err != nil {
		return nil, err
	}
	if source != "" {
		n.source = source
	}
	return n, nil
}

func (n *Node) Kind() Kind { return n.kind }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) Props() style.Props { return n.props }
func (n *Node) Style() *style.Resolved { return n.style }
func (n *Node) Text() string { return n.text }
func (n *Node) Source() string { return n.source }

// Children returns a copy of the child list in insertion order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// SetDrawer replaces the node's draw behaviour.
func (n *Node) SetDrawer(d Drawer) {
	n.drawer = d
}

func (n *Node) SetText(text string) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	n.text = text
	return nil
}

// Frame returns the node's frame and whether one has been set.
func (n *Node) Frame() (geom.Frame, bool) {
	if n.frame == nil {
		return geom.Frame{}, false
	}
	return *n.frame, true
}

func (n *Node) SetFrame(f geom.Frame) {
	n.frame = &f
}

// SetMeasureFunc marks the node as a measured leaf; nil clears it. The
// children of a measured leaf are not painted.
func (n *Node) SetMeasureFunc(fn MeasureFunc) {
	n.measure = fn
}

// SetFaces sets the faces a text node both measures and draws with. Without
// them a text node measures with the bundled defaults and draws with the
// renderer's faces.
func (n *Node) SetFaces(f *text.Faces) {
	n.faces = f
}

// textFaces returns the node's own faces, or fallback.
func (n *Node) textFaces(fallback *text.Faces) *text.Faces {
	if n.faces != nil {
		return n.faces
	}
	return fallback
}

// Measure calls the node's measure function, if it has one.
func (n *Node) Measure(maxWidth float64) (width, height float64, ok bool) {
	if n.measure == nil {
		return 0, 0, false
	}
	width, height = n.measure(maxWidth)
	return width, height, true
}

// SetProps replaces the node's props. The "children" prop is ignored, the
// "style" prop is flattened and resolved, and everything else is kept as is.
// On error the node is left unchanged.
func (n *Node) SetProps(props style.Props) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	rest := make(style.Props, len(props))
	var raw any
	for k, v := range props {
		switch k {
		case "children":
		case "style":
			raw = v
		default:
			rest[k] = v
		}
	}

	flat, err := StyleFlattener(raw)
	if err != nil {
		return fmt.Errorf("flatten style: %w", err)
	}
	resolved, err := style.Resolve(flat)
	if err != nil {
		return fmt.Errorf("resolve style: %w", err)
	}

	n.props = rest
	n.style = resolved
	if n.kind == KindImage {
		if src := sourceProp(rest["source"]); src != "" {
			n.source = src
		}
	}
	return nil
}

// sourceProp accepts a plain string or a {uri: ...} map.
func sourceProp(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any:
		uri, _ := s["uri"].(string)
		return uri
	case style.Props:
		uri, _ := s["uri"].(string)
		return uri
	}
	return ""
}

// IndexOf returns the position of child, or -1.
func (n *Node) IndexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// AppendChild moves child to the end of n's children, detaching it from its
// previous parent.
func (n *Node) AppendChild(child *Node) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	if err := child.detach(); err != nil {
		return err
	}
	n.children = append(n.children, child)
	child.parent = n
	return nil
}

// InsertBefore moves child in front of before. If before is not a child of
// n the tree is left untouched.
func (n *Node) InsertBefore(child, before *Node) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	if child == before {
		return nil
	}
	if n.IndexOf(before) < 0 {
		return fmt.Errorf("%w: insert before a node that is not a child", ErrInvalidTreeOperation)
	}
	if err := child.detach(); err != nil {
		return err
	}
	n.children = slices.Insert(n.children, n.IndexOf(before), child)
	child.parent = n
	return nil
}

// RemoveChild removes child from n. Removing a node that is not a child is
// an error when forced and a no-op otherwise.
func (n *Node) RemoveChild(child *Node, forced bool) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	i := n.IndexOf(child)
	if i < 0 {
		if forced {
			return fmt.Errorf("%w: remove a node that is not a child", ErrInvalidTreeOperation)
		}
		return nil
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return nil
}

func (n *Node) detach() error {
	if n.parent == nil {
		return nil
	}
	return n.parent.RemoveChild(n, false)
}

func (n *Node) checkInsert(child *Node) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrInvalidTreeOperation)
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("%w: a node cannot contain itself", ErrInvalidTreeOperation)
		}
	}
	return nil
}

func (n *Node) checkMutable() error {
	for a := n; a != nil; a = a.parent {
		if a.rendering {
			return ErrRenderInProgress
		}
	}
	return nil
}

// paintChildren returns the children in paint order: stably sorted by
// zIndex, with none for a measured leaf.
func (n *Node) paintChildren() []*Node {
	if n.measure != nil {
		return nil
	}
	out := slices.Clone(n.children)
	slices.SortStableFunc(out, func(a, b *Node) int {
		return a.style.ZIndex - b.style.ZIndex
	})
	return out
}
