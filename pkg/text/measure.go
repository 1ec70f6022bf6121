// Package text provides font faces and the text measurement used by text
// nodes. Faces come from the Go font family bundled with x/image.
package text

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Style selects a face.
type Style struct {
	Size   float64
	Bold   bool
	Family string
}

// Mono reports whether the family asks for a monospace face.
func (s Style) Mono() bool {
	f := strings.ToLower(s.Family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

type faceKey struct {
	size       float64
	bold, mono bool
}

// Faces caches parsed fonts and sized faces. It is safe for concurrent use.
type Faces struct {
	regular, bold, mono, monoBold *truetype.Font

	mu    sync.Mutex
	cache map[faceKey]font.Face
}

var (
	defaultFaces     *Faces
	defaultFacesErr  error
	defaultFacesOnce sync.Once
)

// Default returns the shared face cache.
func Default() (*Faces, error) {
	defaultFacesOnce.Do(func() {
		defaultFaces, defaultFacesErr = NewFaces()
	})
	return defaultFaces, defaultFacesErr
}

// NewFaces parses the bundled fonts.
func NewFaces() (*Faces, error) {
	f := &Faces{cache: make(map[faceKey]font.Face)}
	for _, src := range []struct {
		dst  **truetype.Font
		ttf  []byte
		name string
	}{
		{&f.regular, goregular.TTF, "regular"},
		{&f.bold, gobold.TTF, "bold"},
		{&f.mono, gomono.TTF, "mono"},
		{&f.monoBold, gomonobold.TTF, "mono bold"},
	} {
		parsed, err := truetype.Parse(src.ttf)
		if err != nil {
			return nil, fmt.Errorf("parse %s font: %w", src.name, err)
		}
		*src.dst = parsed
	}
	return f, nil
}

// Face returns a face for s; sizes are in pixels.
func (f *Faces) Face(s Style) font.Face {
	key := faceKey{size: s.Size, bold: s.Bold, mono: s.Mono()}
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.cache[key]; ok {
		return face
	}

	ttf := f.regular
	switch {
	case key.mono && key.bold:
		ttf = f.monoBold
	case key.mono:
		ttf = f.mono
	case key.bold:
		ttf = f.bold
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: s.Size, DPI: 72, Hinting: font.HintingNone})
	f.cache[key] = face
	return face
}

// Metrics are the vertical measurements of a face in pixels.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

func (f *Faces) Metrics(s Style) Metrics {
	m := f.Face(s).Metrics()
	return Metrics{
		Ascent:     unfix(m.Ascent),
		Descent:    unfix(m.Descent),
		LineHeight: unfix(m.Height),
	}
}

// Width returns the advance width of a single line.
func (f *Faces) Width(line string, s Style) float64 {
	face := f.Face(s)
	f.mu.Lock()
	defer f.mu.Unlock()
	return unfix(font.MeasureString(face, line))
}

// Measure returns the size of text wrapped to maxWidth (no wrapping when
// maxWidth is zero or less).
func (f *Faces) Measure(text string, s Style, maxWidth float64) (width, height float64) {
	lines := f.BreakLines(text, s, maxWidth)
	for _, line := range lines {
		width = max(width, f.Width(line, s))
	}
	return width, float64(len(lines)) * f.Metrics(s).LineHeight
}

// BreakLines splits text at explicit newlines and then greedily at spaces so
// that each line fits within maxWidth. A single word wider than maxWidth
// gets a line of its own.
func (f *Faces) BreakLines(text string, s Style, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 || f.Width(para, s) <= maxWidth {
			lines = append(lines, para)
			continue
		}
		current := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if f.Width(candidate, s) <= maxWidth || current == "" {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

func unfix(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
