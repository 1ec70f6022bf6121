package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{255, 0, 0, 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, red)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// createTestPNGDataURI creates a small 2x2 red PNG as a data URI.
func createTestPNGDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG())
}

func TestIsDataURI(t *testing.T) {
	if !IsDataURI("data:image/png;base64,abc") {
		t.Error("expected true for data URI")
	}
	if IsDataURI("/path/to/file.png") {
		t.Error("expected false for file path")
	}
	if IsDataURI("") {
		t.Error("expected false for empty string")
	}
}

func TestLoad_DataURI(t *testing.T) {
	l := NewLoader("", nil)
	uri := createTestPNGDataURI()
	img, err := l.Load(context.Background(), uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Errorf("expected 2x2 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	// Second call should hit cache
	img2, err := l.Load(context.Background(), uri)
	if err != nil {
		t.Fatalf("unexpected error on cached load: %v", err)
	}
	if img != img2 {
		t.Error("expected cached image to be the same value")
	}
}

func TestLoad_InvalidDataURI(t *testing.T) {
	tests := []string{
		"data:image/png;base64", // no comma
		"data:image/png;base64,!!!invalid-base64!!!",
		"data:image/png;base64,aGVsbG8=", // valid base64 but not an image
	}
	l := NewLoader("", nil)
	for _, uri := range tests {
		if _, err := l.Load(context.Background(), uri); err == nil {
			t.Errorf("expected error for %q", uri)
		}
	}
}

func TestLoad_RelativeFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "red.png"), testPNG(), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(dir, nil)
	for _, src := range []string{"red.png", "file://" + filepath.Join(dir, "red.png")} {
		img, err := l.Load(context.Background(), src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", src, err)
		}
		if img.Bounds().Dx() != 2 {
			t.Errorf("%s: expected width 2, got %d", src, img.Bounds().Dx())
		}
	}
	if _, err := l.Load(context.Background(), "missing.png"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_UnsupportedSources(t *testing.T) {
	l := NewLoader("", nil)
	for _, src := range []string{"", "ftp://example.com/a.png", "https://example.com/a.png"} {
		if _, err := l.Load(context.Background(), src); !errors.Is(err, ErrUnsupportedSource) {
			t.Errorf("%q: expected ErrUnsupportedSource, got %v", src, err)
		}
	}
}

func TestLoad_HTTPDeduplicates(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "image/png")
		w.Write(testPNG())
	}))
	defer srv.Close()

	l := NewLoader("", NewHTTPFetcher(srv.URL))
	futures := []*Future{
		l.Start(context.Background(), srv.URL+"/a.png"),
		l.Start(context.Background(), srv.URL+"/a.png"),
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i, f := range futures {
		img, err := f.Await(context.Background())
		if err != nil {
			t.Fatalf("future %d: unexpected error: %v", i, err)
		}
		if img.Bounds().Dx() != 2 {
			t.Errorf("future %d: expected width 2", i)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected one request, got %d", n)
	}
}

func TestHTTPFetcher_ResolvesRelative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(testPNG())
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL + "/img/")
	body, _, err := f.Fetch(context.Background(), "a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected a body")
	}
	if _, _, err := f.Fetch(context.Background(), "missing.png"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFuture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	got, err := Ready(img).Await(context.Background())
	if err != nil || got != img {
		t.Errorf("expected ready image, got %v, %v", got, err)
	}

	boom := errors.New("boom")
	if _, err := Failed(boom).Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	pending := newFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pending.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if pending.Done() {
		t.Error("pending future should not be done")
	}
}
