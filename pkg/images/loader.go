// Package images loads and caches the images drawn by image nodes. Loads run
// in the background and are handed to the renderer as futures.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"boxpaint/pkg/logging"
)

// ErrUnsupportedSource is returned for image sources that are neither a file
// path, a data URI nor an HTTP(S) URL.
var ErrUnsupportedSource = errors.New("unsupported image source")

// Loader resolves image sources. File paths are relative to its base
// directory. Concurrent loads of the same source share one fetch.
type Loader struct {
	baseDir string
	fetcher Fetcher

	mu    sync.RWMutex
	cache map[string]image.Image
	group singleflight.Group
}

// NewLoader creates a loader. A nil fetcher disables network sources.
func NewLoader(baseDir string, fetcher Fetcher) *Loader {
	return &Loader{
		baseDir: baseDir,
		fetcher: fetcher,
		cache:   make(map[string]image.Image),
	}
}

// Load returns the decoded image for src, from the cache when possible.
// Cancelling ctx abandons the wait but not a fetch other callers share.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	l.mu.RLock()
	if img, ok := l.cache[src]; ok {
		l.mu.RUnlock()
		return img, nil
	}
	l.mu.RUnlock()

	ch := l.group.DoChan(src, func() (any, error) {
		img, err := l.load(context.WithoutCancel(ctx), src)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[src] = img
		l.mu.Unlock()
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

// Start begins loading src in the background.
func (l *Loader) Start(ctx context.Context, src string) *Future {
	f := newFuture()
	go func() {
		img, err := l.Load(ctx, src)
		f.resolve(img, err)
	}()
	return f
}

func (l *Loader) load(ctx context.Context, src string) (image.Image, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", shortSource(src), err)
	}
	logging.Logger().Debug("image loaded", "source", shortSource(src), "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	case IsDataURI(src):
		return decodeDataURI(src)
	case IsNetworkURL(src):
		if l.fetcher == nil {
			return nil, fmt.Errorf("%w: network sources are disabled", ErrUnsupportedSource)
		}
		body, _, err := l.fetcher.Fetch(ctx, src)
		return body, err
	case strings.HasPrefix(src, "file://"):
		src = strings.TrimPrefix(src, "file://")
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}

	path := src
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

func shortSource(src string) string {
	if IsDataURI(src) && len(src) > 32 {
		return src[:32] + "..."
	}
	return src
}

// Future is the result of a background load.
type Future struct {
	done chan struct{}
	img  image.Image
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(img image.Image, err error) {
	f.img, f.err = img, err
	close(f.done)
}

// Ready returns a future that is already resolved to img.
func Ready(img image.Image) *Future {
	f := newFuture()
	f.resolve(img, nil)
	return f
}

// Failed returns a future that is already resolved to err.
func Failed(err error) *Future {
	f := newFuture()
	f.resolve(nil, err)
	return f
}

// Await blocks until the load finishes or ctx is done.
func (f *Future) Await(ctx context.Context) (image.Image, error) {
	select {
	case <-f.done:
		return f.img, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the future has resolved.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
