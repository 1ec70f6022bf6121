// Package scene reads YAML scene files: node trees with explicit frames and
// styles, ready to render. Frames are written by hand or produced by a grid
// on the parent; no layout is computed.
package scene

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"boxpaint/pkg/geom"
	"boxpaint/pkg/images"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/render"
	"boxpaint/pkg/style"
)

// ErrInvalidScene is returned for scene documents that cannot be built.
var ErrInvalidScene = errors.New("invalid scene")

// Document is the YAML form of a scene.
type Document struct {
	Settings Settings `yaml:"settings"`
	Root     NodeSpec `yaml:"root"`
}

type Settings struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	DPI      float64 `yaml:"dpi"`
	Platform string  `yaml:"platform"`
}

// NodeSpec describes one node. Repeat clones the node; RotateStep adds
// i*RotateStep degrees of rotation to clone i.
type NodeSpec struct {
	Type       string         `yaml:"type"`
	Frame      *Frame         `yaml:"frame"`
	Style      map[string]any `yaml:"style"`
	Props      map[string]any `yaml:"props"`
	Text       string         `yaml:"text"`
	Source     string         `yaml:"source"`
	Children   []NodeSpec     `yaml:"children"`
	Repeat     int            `yaml:"repeat"`
	RotateStep float64        `yaml:"rotateStep"`
	Grid       *Grid          `yaml:"grid"`
}

// Grid places a node's children in rows of Columns cells. Each cell is
// CellWidth×CellHeight with Margin on every side, like wrapped flex items.
type Grid struct {
	Columns    int     `yaml:"columns"`
	CellWidth  float64 `yaml:"cellWidth"`
	CellHeight float64 `yaml:"cellHeight"`
	Margin     float64 `yaml:"margin"`
}

// Cell returns the frame of the i-th cell.
func (g Grid) Cell(i int) geom.Frame {
	col, row := i%g.Columns, i/g.Columns
	return geom.Frame{
		X:      g.Margin + float64(col)*(g.CellWidth+2*g.Margin),
		Y:      g.Margin + float64(row)*(g.CellHeight+2*g.Margin),
		Width:  g.CellWidth,
		Height: g.CellHeight,
	}
}

// Frame accepts either [x, y, width, height] or a mapping with those keys.
type Frame geom.Frame

func (f *Frame) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var v []float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		if len(v) != 4 {
			return fmt.Errorf("%w: line %d: frame needs 4 numbers, got %d", ErrInvalidScene, value.Line, len(v))
		}
		*f = Frame{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
		return nil
	case yaml.MappingNode:
		var m struct {
			X      float64 `yaml:"x"`
			Y      float64 `yaml:"y"`
			Width  float64 `yaml:"width"`
			Height float64 `yaml:"height"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*f = Frame{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		return nil
	}
	return fmt.Errorf("%w: line %d: frame must be a list or a mapping", ErrInvalidScene, value.Line)
}

// Scene is a loaded document.
type Scene struct {
	Settings paint.Settings
	Root     *render.Node
	// BaseDir resolves relative image sources.
	BaseDir string
}

// Images returns a loader that resolves sources against the scene's
// directory and fetches HTTP(S) sources.
func (s *Scene) Images() *images.Loader {
	return images.NewLoader(s.BaseDir, images.NewHTTPFetcher(""))
}

// Load reads and builds a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.BaseDir = filepath.Dir(path)
	return sc, nil
}

// Parse builds a scene from YAML.
func Parse(data []byte) (*Scene, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	return Build(doc)
}

// Build turns a document into a node tree. Settings without a size take
// it from the root frame.
func Build(doc Document) (*Scene, error) {
	if doc.Root.Repeat > 1 {
		return nil, fmt.Errorf("%w: the root cannot repeat", ErrInvalidScene)
	}
	root, err := build(doc.Root, "root")
	if err != nil {
		return nil, err
	}

	s := paint.Settings{
		Width:    doc.Settings.Width,
		Height:   doc.Settings.Height,
		DPI:      doc.Settings.DPI,
		Platform: doc.Settings.Platform,
	}
	if f, ok := root.Frame(); ok {
		if s.Width == 0 {
			s.Width = int(f.X + f.Width)
		}
		if s.Height == 0 {
			s.Height = int(f.Y + f.Height)
		}
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: no output size", ErrInvalidScene)
	}
	return &Scene{Settings: s, Root: root}, nil
}

func build(spec NodeSpec, path string) (*render.Node, error) {
	props := make(style.Props, len(spec.Props)+1)
	maps.Copy(props, spec.Props)
	if spec.Style != nil {
		props["style"] = style.Props(spec.Style)
	}

	var (
		n   *render.Node
		err error
	)
	switch spec.Type {
	case "", "view":
		n, err = render.NewView(props)
	case "text":
		n, err = render.NewText(spec.Text, props)
	case "image":
		n, err = render.NewImage(spec.Source, props)
	default:
		return nil, fmt.Errorf("%w: %s: unknown node type %q", ErrInvalidScene, path, spec.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidScene, path, err)
	}
	if spec.Frame != nil {
		n.SetFrame(geom.Frame(*spec.Frame))
	}

	var children []NodeSpec
	for _, c := range spec.Children {
		children = append(children, expand(c)...)
	}
	if spec.Grid != nil && spec.Grid.Columns <= 0 {
		return nil, fmt.Errorf("%w: %s: grid needs at least one column", ErrInvalidScene, path)
	}
	for i, c := range children {
		if spec.Grid != nil {
			f := Frame(spec.Grid.Cell(i))
			c.Frame = &f
		}
		child, err := build(c, path+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		if err := n.AppendChild(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// expand returns the clones of a repeated spec.
func expand(spec NodeSpec) []NodeSpec {
	count := max(spec.Repeat, 1)
	out := make([]NodeSpec, 0, count)
	for i := 0; i < count; i++ {
		clone := spec
		clone.Repeat = 0
		if spec.RotateStep != 0 {
			clone.Style = withRotation(spec.Style, float64(i)*spec.RotateStep)
		}
		out = append(out, clone)
	}
	return out
}

func withRotation(st map[string]any, deg float64) map[string]any {
	out := maps.Clone(st)
	if out == nil {
		out = make(map[string]any)
	}
	var ops []any
	if existing, ok := out["transform"].([]any); ok {
		ops = append(ops, existing...)
	}
	ops = append(ops, map[string]any{"rotate": strconv.FormatFloat(deg, 'f', -1, 64) + "deg"})
	out["transform"] = ops
	return out
}
