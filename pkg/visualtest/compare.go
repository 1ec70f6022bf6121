package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
)

// CompareResult contains the results of an image comparison
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference, 0-255
}

// DifferentPercent returns the share of mismatched pixels.
func (r *CompareResult) DifferentPercent() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferentPixels) / float64(r.TotalPixels) * 100
}

func (r *CompareResult) String() string {
	return fmt.Sprintf("%d/%d pixels differ (%.3f%%), max channel difference %d",
		r.DifferentPixels, r.TotalPixels, r.DifferentPercent(), r.MaxDifference)
}

// CompareOptions configures the image comparison
type CompareOptions struct {
	// Tolerance is the largest per-channel difference (0-255) that still
	// counts as equal. Anti-aliased edges usually need 2-5.
	Tolerance int

	// FuzzyRadius lets a pixel match any expected pixel within this many
	// pixels, absorbing sub-pixel shifts of rotated edges and glyphs.
	FuzzyRadius int

	// MaxDifferentPercent accepts the comparison when at most this share
	// of pixels differ.
	MaxDifferentPercent float64

	// DiffImagePath, when set, receives a PNG with mismatches in red over a
	// grey copy of the actual image. It is only written on failure.
	DiffImagePath string
}

// DefaultOptions returns sensible defaults for image comparison
func DefaultOptions() CompareOptions {
	return CompareOptions{Tolerance: 2}
}

// CompareImages compares two PNG files pixel-by-pixel
func CompareImages(actualPath, expectedPath string, opts CompareOptions) (*CompareResult, error) {
	actual, err := imgio.Open(actualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open actual image: %w", err)
	}
	expected, err := imgio.Open(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

// Compare compares two decoded images pixel-by-pixel
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return &CompareResult{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", bounds, expected.Bounds())
	}

	result := &CompareResult{TotalPixels: bounds.Dx() * bounds.Dy()}
	var diffImg *image.RGBA
	if opts.DiffImagePath != "" {
		diffImg = image.NewRGBA(bounds)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			a := actual.At(x, y)
			d := channelDiff(a, expected.At(x, y))
			result.MaxDifference = max(result.MaxDifference, d)

			same := d <= opts.Tolerance ||
				(opts.FuzzyRadius > 0 && fuzzyMatch(a, expected, x, y, opts.FuzzyRadius, opts.Tolerance))
			if !same {
				result.DifferentPixels++
			}
			if diffImg != nil {
				diffImg.Set(x, y, diffColor(a, same))
			}
		}
	}

	result.Match = result.DifferentPixels == 0 ||
		(opts.MaxDifferentPercent > 0 && result.DifferentPercent() <= opts.MaxDifferentPercent)

	if diffImg != nil && !result.Match {
		if err := savePNG(diffImg, opts.DiffImagePath); err != nil {
			return result, fmt.Errorf("failed to save diff image: %w", err)
		}
	}
	return result, nil
}

// channelDiff returns the largest 8-bit channel difference between a and b.
func channelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar, br),
		absDiff(ag, bg),
		absDiff(ab, bb),
		absDiff(aa, ba),
	)
}

func absDiff(a, b uint32) int {
	d := int(a>>8) - int(b>>8)
	if d < 0 {
		return -d
	}
	return d
}

// fuzzyMatch reports whether c matches any expected pixel within radius of
// (x, y).
func fuzzyMatch(c color.Color, expected image.Image, x, y, radius, tolerance int) bool {
	r := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(expected.Bounds())
	for ny := r.Min.Y; ny < r.Max.Y; ny++ {
		for nx := r.Min.X; nx < r.Max.X; nx++ {
			if channelDiff(c, expected.At(nx, ny)) <= tolerance {
				return true
			}
		}
	}
	return false
}

func diffColor(c color.Color, same bool) color.Color {
	if !same {
		return color.RGBA{255, 0, 0, 255}
	}
	g := color.GrayModel.Convert(c).(color.Gray)
	return color.RGBA{g.Y, g.Y, g.Y, 255}
}

// savePNG saves an image as PNG, creating the directory if needed
func savePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return imgio.Save(path, img, imgio.PNGEncoder())
}
