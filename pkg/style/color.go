package style

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned by ParseColor for strings it cannot read.
var ErrInvalidColor = errors.New("invalid color")

// Color is an sRGB colour with straight (non-premultiplied) alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{255, 255, 255, 1}
	Transparent = Color{}
)

// Opaque reports whether the colour has full alpha.
func (c Color) Opaque() bool {
	return c.A >= 1
}

// Invisible reports whether the colour has no alpha at all.
func (c Color) Invisible() bool {
	return c.A <= 0
}

// WithAlpha scales the colour's alpha by a.
func (c Color) WithAlpha(a float64) Color {
	c.A = clamp01(c.A * a)
	return c
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA converts to the standard library's non-premultiplied colour.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(clamp01(c.A) * 255))}
}

// Hex returns the #rrggbb form, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	if c.Opaque() {
		return c.Hex()
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// ParseColor reads a CSS colour: a named colour, transparent, #rgb, #rgba,
// #rrggbb, #rrggbbaa, rgb() or rgba().
func ParseColor(colorStr string) (Color, error) {
	s := strings.ToLower(strings.TrimSpace(colorStr))
	switch {
	case s == "":
		return Color{}, fmt.Errorf("%w: empty string", ErrInvalidColor)
	case s == "transparent":
		return Transparent, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}
	if named, ok := colornames.Map[s]; ok {
		return Color{R: named.R, G: named.G, B: named.B, A: 1}, nil
	}
	return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, colorStr)
}

func parseHex(s string) (Color, error) {
	digits := s[1:]
	alpha := 1.0
	switch len(digits) {
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(digits[3:], 2), 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = float64(a) / 255
		digits = digits[:3]
	case 8:
		a, err := strconv.ParseUint(digits[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = float64(a) / 255
		digits = digits[:6]
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// parseFunctional reads rgb(r, g, b) and rgba(r, g, b, a). Channels may be
// percentages; alpha may be a fraction or a percentage.
func parseFunctional(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	name := s[:open]
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if (name != "rgb" && name != "rgba") || (len(args) != 3 && len(args) != 4) {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(args[i], 255)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		channels[i] = uint8(math.Round(clamp(v, 0, 255)))
	}
	alpha := 1.0
	if len(args) == 4 {
		v, err := parseChannel(args[3], 1)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = clamp01(v)
	}
	return Color{R: channels[0], G: channels[1], B: channels[2], A: alpha}, nil
}

func parseChannel(arg string, full float64) (float64, error) {
	if pct, ok := strings.CutSuffix(arg, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		return v / 100 * full, err
	}
	return strconv.ParseFloat(arg, 64)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
