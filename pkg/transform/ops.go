// Package transform turns a style's transform list into a single affine
// matrix anchored on a node's frame.
package transform

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// ErrUnsupportedOp is returned for transform entries that are not 2D affine
// operations or cannot be parsed.
var ErrUnsupportedOp = errors.New("unsupported transform operation")

// Kind names a transform operation, using the style key that introduces it.
type Kind string

const (
	Translate  Kind = "translate"
	TranslateX Kind = "translateX"
	TranslateY Kind = "translateY"
	Scale      Kind = "scale"
	ScaleX     Kind = "scaleX"
	ScaleY     Kind = "scaleY"
	Rotate     Kind = "rotate"
	RotateZ    Kind = "rotateZ"
	SkewX      Kind = "skewX"
	SkewY      Kind = "skewY"
	Matrix     Kind = "matrix"
)

// Op is one entry of a transform list. X and Y carry the operand (angles in
// radians); M is only used by Matrix.
type Op struct {
	Kind Kind
	X, Y float64
	M    gg.Matrix
}

// Matrix returns the operation on its own.
func (o Op) Matrix() gg.Matrix {
	switch o.Kind {
	case Translate, TranslateX, TranslateY:
		return gg.Translate(o.X, o.Y)
	case Scale, ScaleX, ScaleY:
		return gg.Scale(o.X, o.Y)
	case Rotate, RotateZ:
		return gg.Rotate(o.X)
	case SkewX:
		return gg.Shear(math.Tan(o.X), 0)
	case SkewY:
		return gg.Shear(0, math.Tan(o.Y))
	case Matrix:
		return o.M
	}
	return gg.Identity()
}

func (o Op) String() string {
	switch o.Kind {
	case Rotate, RotateZ:
		return fmt.Sprintf("%s(%gdeg)", o.Kind, o.X*180/math.Pi)
	case SkewX:
		return fmt.Sprintf("%s(%gdeg)", o.Kind, o.X*180/math.Pi)
	case SkewY:
		return fmt.Sprintf("%s(%gdeg)", o.Kind, o.Y*180/math.Pi)
	case Matrix:
		m := o.M
		return fmt.Sprintf("matrix(%g, %g, %g, %g, %g, %g)", m.XX, m.YX, m.XY, m.YY, m.X0, m.Y0)
	}
	return fmt.Sprintf("%s(%g, %g)", o.Kind, o.X, o.Y)
}

// ParseOps reads a transform list as it appears in a style: a sequence of
// single-key maps such as {rotate: "45deg"} or {scale: 0.5}. A nil value
// yields no operations.
func ParseOps(v any) ([]Op, error) {
	if v == nil {
		return nil, nil
	}
	if ops, ok := v.([]Op); ok {
		return ops, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("%w: transform must be a list, got %T", ErrUnsupportedOp, v)
	}

	ops := make([]Op, 0, len(list))
	for i, entry := range list {
		m, ok := asMap(entry)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d must be a map, got %T", ErrUnsupportedOp, i, entry)
		}
		if len(m) != 1 {
			return nil, fmt.Errorf("%w: entry %d must have exactly one key, got %d", ErrUnsupportedOp, i, len(m))
		}
		for key, val := range m {
			op, err := parseOp(Kind(key), val)
			if err != nil {
				return nil, fmt.Errorf("transform entry %d: %w", i, err)
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// asList accepts any slice, so lists of named map types work too.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

// asMap accepts any map with string keys, including named types such as
// style props.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func parseOp(kind Kind, v any) (Op, error) {
	switch kind {
	case TranslateX:
		x, err := length(v)
		return Op{Kind: kind, X: x}, err
	case TranslateY:
		y, err := length(v)
		return Op{Kind: kind, Y: y}, err
	case Translate:
		xs, err := numbers(v)
		if err != nil {
			return Op{}, err
		}
		switch len(xs) {
		case 1:
			return Op{Kind: kind, X: xs[0]}, nil
		case 2:
			return Op{Kind: kind, X: xs[0], Y: xs[1]}, nil
		}
		return Op{}, fmt.Errorf("%w: translate takes one or two values", ErrUnsupportedOp)
	case Scale:
		s, err := length(v)
		return Op{Kind: kind, X: s, Y: s}, err
	case ScaleX:
		s, err := length(v)
		return Op{Kind: kind, X: s, Y: 1}, err
	case ScaleY:
		s, err := length(v)
		return Op{Kind: kind, X: 1, Y: s}, err
	case Rotate, RotateZ, SkewX:
		a, err := angle(v)
		return Op{Kind: kind, X: a}, err
	case SkewY:
		a, err := angle(v)
		return Op{Kind: kind, Y: a}, err
	case Matrix:
		xs, err := numbers(v)
		if err != nil {
			return Op{}, err
		}
		switch len(xs) {
		case 6:
			return Op{Kind: kind, M: gg.Matrix{XX: xs[0], YX: xs[1], XY: xs[2], YY: xs[3], X0: xs[4], Y0: xs[5]}}, nil
		case 16:
			// Column-major 4x4; keep the 2D affine part.
			return Op{Kind: kind, M: gg.Matrix{XX: xs[0], YX: xs[1], XY: xs[4], YY: xs[5], X0: xs[12], Y0: xs[13]}}, nil
		}
		return Op{}, fmt.Errorf("%w: matrix takes 6 or 16 values, got %d", ErrUnsupportedOp, len(xs))
	}
	return Op{}, fmt.Errorf("%w: %q", ErrUnsupportedOp, string(kind))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func length(v any) (float64, error) {
	if n, ok := number(v); ok {
		return n, nil
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %v is not a number", ErrUnsupportedOp, v)
}

func numbers(v any) ([]float64, error) {
	if n, ok := number(v); ok {
		return []float64{n}, nil
	}
	list, ok := v.([]any)
	if !ok {
		if fs, ok := v.([]float64); ok {
			return fs, nil
		}
		return nil, fmt.Errorf("%w: %v is not a list of numbers", ErrUnsupportedOp, v)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		n, err := length(item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// angle parses "45deg", "0.5rad" or a bare number of degrees into radians.
func angle(v any) (float64, error) {
	if n, ok := number(v); ok {
		return n * math.Pi / 180, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: angle %v", ErrUnsupportedOp, v)
	}
	s = strings.TrimSpace(s)
	scale := math.Pi / 180
	switch {
	case strings.HasSuffix(s, "deg"):
		s = strings.TrimSuffix(s, "deg")
	case strings.HasSuffix(s, "rad"):
		s = strings.TrimSuffix(s, "rad")
		scale = 1
	case strings.HasSuffix(s, "turn"):
		s = strings.TrimSuffix(s, "turn")
		scale = 2 * math.Pi
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: angle %q", ErrUnsupportedOp, v)
	}
	return n * scale, nil
}
