// Package style holds node style properties and resolves them into the
// explicit box-model values the painter consumes.
package style

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned when a style property has the wrong type or an
// unknown keyword.
var ErrInvalidValue = errors.New("invalid style value")

// Props is a flat property map, keyed by camelCase property name.
type Props map[string]any

// Style wraps a flattened property map.
type Style struct {
	Properties Props
}

func NewStyle() *Style {
	return &Style{Properties: make(Props)}
}

func (s *Style) Get(property string) (any, bool) {
	val, ok := s.Properties[property]
	return val, ok && val != nil
}

func (s *Style) Set(property string, value any) {
	s.Properties[property] = value
}

// GetLength returns a numeric property. Strings such as "12px" are accepted.
func (s *Style) GetLength(property string) (float64, bool, error) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false, nil
	}
	n, err := ParseLength(val)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", property, err)
	}
	return n, true, nil
}

// GetString returns a keyword or string property.
func (s *Style) GetString(property string) (string, bool, error) {
	val, ok := s.Get(property)
	if !ok {
		return "", false, nil
	}
	str, isString := val.(string)
	if !isString {
		return "", false, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidValue, property, val)
	}
	return strings.TrimSpace(str), true, nil
}

// GetColor returns a colour property, parsed from a string or passed through
// when already a Color.
func (s *Style) GetColor(property string) (Color, bool, error) {
	val, ok := s.Get(property)
	if !ok {
		return Color{}, false, nil
	}
	switch v := val.(type) {
	case Color:
		return v, true, nil
	case string:
		c, err := ParseColor(v)
		if err != nil {
			return Color{}, false, fmt.Errorf("%s: %w", property, err)
		}
		return c, true, nil
	}
	return Color{}, false, fmt.Errorf("%w: %s must be a color, got %T", ErrInvalidValue, property, val)
}

// ParseLength reads a number, or a string like "100" or "100px".
func ParseLength(val any) (float64, error) {
	switch n := val.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		num, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "px"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a length", ErrInvalidValue, n)
		}
		return num, nil
	}
	return 0, fmt.Errorf("%w: %v (%T) is not a length", ErrInvalidValue, val, val)
}

// Flattener turns a style value, possibly a nested list of style objects,
// into a single property map.
type Flattener func(v any) (Props, error)

// Flatten merges a style value into one map. Lists are merged in order with
// later entries winning; nil and false entries are skipped so conditional
// styles can be written inline.
func Flatten(v any) (Props, error) {
	out := make(Props)
	if err := flattenInto(out, v); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out Props, v any) error {
	switch s := v.(type) {
	case nil:
		return nil
	case bool:
		if s {
			return fmt.Errorf("%w: true is not a style", ErrInvalidValue)
		}
		return nil
	case Props:
		for k, val := range s {
			out[k] = val
		}
	case map[string]any:
		for k, val := range s {
			out[k] = val
		}
	case *Style:
		for k, val := range s.Properties {
			out[k] = val
		}
	case []any:
		for _, item := range s {
			if err := flattenInto(out, item); err != nil {
				return err
			}
		}
	case []Props:
		for _, item := range s {
			if err := flattenInto(out, item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: cannot flatten %T", ErrInvalidValue, v)
	}
	return nil
}
